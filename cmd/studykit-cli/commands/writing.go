package commands

import (
	"fmt"
	"os"
	"strings"
	"studykit-backend/lib/scrapers/cram"
	"studykit-backend/lib/scrapers/ginger"
	"studykit-backend/lib/scrapers/postagger"
	"studykit-backend/lib/scrapers/wordtune"
	"studykit-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(posCmd)
	rootCmd.AddCommand(grammarCmd)
	rootCmd.AddCommand(scoreCmd)
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <sentence>",
	Short: "Asks Wordtune for rewrites of a sentence.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := wordtune.NewClient(wordtune.ClientOptions{})

		suggestions, err := client.Rewrite(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			serviceutil.Fatal("rewrite", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "rewrite"})
		for i, s := range suggestions {
			t.AppendRow(table.Row{i + 1, s})
		}
		t.Render()
	},
}

var posCmd = &cobra.Command{
	Use:   "pos <text>",
	Short: "Tags each word in the text with its part of speech.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := postagger.NewClient(postagger.ClientOptions{})

		words, err := client.Tag(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			serviceutil.Fatal("tag", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"word", "tag"})
		for _, w := range words {
			t.AppendRow(table.Row{w.Word, w.Tag})
		}
		t.Render()
	},
}

var grammarCmd = &cobra.Command{
	Use:   "grammar <text>",
	Short: "Checks grammar through Ginger and prints the corrected text.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := ginger.NewClient(ginger.ClientOptions{})

		result, err := client.Check(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			serviceutil.Fatal("check grammar", err)
		}

		fmt.Println(result.Corrected)
		if len(result.Corrections) == 0 {
			return
		}

		fmt.Println()
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"original", "suggestions"})
		for _, c := range result.Corrections {
			t.AppendRow(table.Row{c.Original, strings.Join(c.Suggestions, ", ")})
		}
		t.Render()
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score <essay-file>",
	Short: "Scores an essay's grammar through Cram, polling until the report is ready.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		essay, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("read essay", err)
		}

		client := cram.NewClient(cram.ClientOptions{})
		debugHttp(client.Http, "cram")

		report, err := client.Score(cmd.Context(), string(essay))
		if err != nil {
			serviceutil.Fatal("score essay", err)
		}

		fmt.Printf("score: %.1f\n", report.Score)
		if len(report.Issues) == 0 {
			return
		}

		fmt.Println()
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"type", "excerpt", "suggestions"})
		for _, issue := range report.Issues {
			t.AppendRow(table.Row{
				issue.Type,
				issue.Excerpt,
				strings.Join(issue.Suggestions, ", "),
			})
		}
		t.Render()
	},
}
