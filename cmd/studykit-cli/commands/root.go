package commands

import (
	"context"
	"fmt"
	"os"
	"studykit-backend/lib/configutil"
	"studykit-backend/lib/restyutil"
	"studykit-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "studykit-cli",
	Short: "studykit-cli pulls answers, translations, flashcards and files out of a pile of third-party web services.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging and http transcript dumps.")
}

// dumps raw request/response transcripts under .dev/resty/<name> when
// running with --verbose
func debugHttp(client *resty.Client, name string) {
	if !*verbose {
		return
	}
	restyutil.DumpClient(client, restyutil.NewFilesystemOutput(".dev/resty/"+name))
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type NotionConfig struct {
	Token   string `json:"token"`
	SpaceID string `json:"space_id"`
}

type ConvertioConfig struct {
	ApiKey string `json:"api_key"`
}

type HtmlpdfConfig struct {
	ApiKey string `json:"api_key"`
}

type GanpaintConfig struct {
	BaseUrl string `json:"base_url"`
}

type Config struct {
	Notion    NotionConfig    `json:"notion"`
	Convertio ConvertioConfig `json:"convertio"`
	Htmlpdf   HtmlpdfConfig   `json:"htmlpdf"`
	Ganpaint  GanpaintConfig  `json:"ganpaint"`
	// directory for the badger cache, defaults to .studykit-cache
	CacheDir string `json:"cache_dir"`
}

func readConfig() Config {
	cfg, err := configutil.ReadRecursively[Config]("studykit.json5")
	if err != nil {
		// every command works without a config except the ones that
		// need credentials, those check their own fields
		return Config{}
	}
	return cfg
}
