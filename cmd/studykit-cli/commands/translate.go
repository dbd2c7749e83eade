package commands

import (
	"fmt"
	"strings"
	"studykit-backend/lib/scrapers/google/translate"
	"studykit-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var translateFrom *string
var translateTo *string

func init() {
	translateFrom = translateCmd.Flags().String("from", "auto", "Source language code.")
	translateTo = translateCmd.Flags().String("to", "en", "Target language code.")
	rootCmd.AddCommand(translateCmd)
}

var translateCmd = &cobra.Command{
	Use:   "translate [--from <lang>] [--to <lang>] <text>",
	Short: "Translates text through the Google Translate widget endpoint.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := translate.NewClient(translate.ClientOptions{})

		result, err := client.Translate(cmd.Context(), translate.Request{
			Text:   strings.Join(args, " "),
			Source: *translateFrom,
			Target: *translateTo,
		})
		if err != nil {
			serviceutil.Fatal("translate", err)
		}

		fmt.Println(result.Text)
		if *translateFrom == "auto" {
			fmt.Printf("\ndetected source language: %s\n", result.DetectedSource)
		}
	},
}
