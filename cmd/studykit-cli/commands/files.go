package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"studykit-backend/lib/scrapers/convertio"
	"studykit-backend/lib/scrapers/ganpaint"
	"studykit-backend/lib/scrapers/htmlpdf"
	"studykit-backend/lib/scrapers/scihub"
	"studykit-backend/lib/serviceutil"
	"studykit-backend/lib/webcache"

	"github.com/spf13/cobra"
)

var convertOutput *string
var scihubOutput *string
var htmlpdfOutput *string
var htmlpdfLandscape *bool
var stylizeOutput *string
var stylizeModel *string

func init() {
	convertOutput = convertCmd.Flags().StringP("output", "o", "", "Output path, defaults to the input name with the new extension.")
	rootCmd.AddCommand(convertCmd)

	scihubOutput = scihubCmd.Flags().StringP("output", "o", "paper.pdf", "Where to write the pdf.")
	rootCmd.AddCommand(scihubCmd)

	htmlpdfOutput = htmlpdfCmd.Flags().StringP("output", "o", "out.pdf", "Where to write the pdf.")
	htmlpdfLandscape = htmlpdfCmd.Flags().Bool("landscape", false, "Render in landscape orientation.")
	rootCmd.AddCommand(htmlpdfCmd)

	stylizeOutput = stylizeCmd.Flags().StringP("output", "o", "stylized.png", "Where to write the result image.")
	stylizeModel = stylizeCmd.Flags().String("model", "", "Which model/style to run.")
	rootCmd.AddCommand(stylizeCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <file> <format>",
	Short: "Converts a file through Convertio, polling until the job finishes. Needs convertio.api_key in studykit.json5.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		if cfg.Convertio.ApiKey == "" {
			serviceutil.Fatal("convert", fmt.Errorf("convertio.api_key must be set in studykit.json5"))
		}

		file, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("read input file", err)
		}

		client := convertio.NewClient(convertio.ClientOptions{ApiKey: cfg.Convertio.ApiKey})

		result, err := client.Convert(cmd.Context(), convertio.Input{
			File:         file,
			Filename:     filepath.Base(args[0]),
			OutputFormat: args[1],
		})
		if err != nil {
			serviceutil.Fatal("convert file", err)
		}

		out := *convertOutput
		if out == "" {
			base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			out = base + "." + args[1]
		}
		err = os.WriteFile(out, result.File, 0644)
		if err != nil {
			serviceutil.Fatal("write output file", err)
		}
		slog.Info("conversion finished", "output", out, "bytes", len(result.File))
	},
}

var scihubCmd = &cobra.Command{
	Use:   "scihub <doi-or-url>",
	Short: "Resolves a DOI to a pdf through Sci-Hub mirrors and downloads it.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		cacheDir := cfg.CacheDir
		if cacheDir == "" {
			cacheDir = ".studykit-cache"
		}

		cache, err := webcache.Open(cacheDir)
		if err != nil {
			serviceutil.Fatal("open cache", err)
		}
		defer cache.Close()

		client, err := scihub.NewClient(scihub.ClientOptions{Cache: cache})
		if err != nil {
			serviceutil.Fatal("init scihub client", err)
		}
		debugHttp(client.Http, "scihub")

		paper, err := client.Locate(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("locate paper", err)
		}
		slog.Info("located pdf", "url", paper.PdfUrl, "mirror", paper.Mirror)

		pdf, err := client.Fetch(cmd.Context(), paper)
		if err != nil {
			serviceutil.Fatal("download pdf", err)
		}

		err = os.WriteFile(*scihubOutput, pdf, 0644)
		if err != nil {
			serviceutil.Fatal("write pdf", err)
		}
		slog.Info("saved pdf", "output", *scihubOutput, "bytes", len(pdf))
	},
}

var htmlpdfCmd = &cobra.Command{
	Use:   "htmlpdf <url-or-html-file>",
	Short: "Renders a url or local html file to pdf.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		client := htmlpdf.NewClient(htmlpdf.ClientOptions{ApiKey: cfg.Htmlpdf.ApiKey})

		req := htmlpdf.Request{Landscape: *htmlpdfLandscape}
		if strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://") {
			req.Url = args[0]
		} else {
			html, err := os.ReadFile(args[0])
			if err != nil {
				serviceutil.Fatal("read html file", err)
			}
			req.HTML = string(html)
		}

		pdf, err := client.Render(cmd.Context(), req)
		if err != nil {
			serviceutil.Fatal("render pdf", err)
		}

		err = os.WriteFile(*htmlpdfOutput, pdf, 0644)
		if err != nil {
			serviceutil.Fatal("write pdf", err)
		}
		slog.Info("saved pdf", "output", *htmlpdfOutput, "bytes", len(pdf))
	},
}

var stylizeCmd = &cobra.Command{
	Use:   "stylize <image>",
	Short: "Runs an image through the GAN inference service. Needs ganpaint.base_url in studykit.json5.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		if cfg.Ganpaint.BaseUrl == "" {
			serviceutil.Fatal("stylize", fmt.Errorf("ganpaint.base_url must be set in studykit.json5"))
		}

		image, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("read image", err)
		}

		client := ganpaint.NewClient(ganpaint.ClientOptions{BaseUrl: cfg.Ganpaint.BaseUrl})

		result, err := client.Stylize(cmd.Context(), ganpaint.Request{
			Image: image,
			Model: *stylizeModel,
		})
		if err != nil {
			serviceutil.Fatal("stylize image", err)
		}

		err = os.WriteFile(*stylizeOutput, result, 0644)
		if err != nil {
			serviceutil.Fatal("write image", err)
		}
		slog.Info("saved image", "output", *stylizeOutput, "bytes", len(result))
	},
}
