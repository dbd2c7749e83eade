package commands

import (
	"fmt"
	"os"
	"strings"
	"studykit-backend/lib/htmlutil"
	"studykit-backend/lib/scrapers/google/search"
	"studykit-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var answerMarkdown *bool

func init() {
	answerMarkdown = answerCmd.Flags().Bool("markdown", false, "Render the answer panel as markdown.")
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(completeCmd)
}

var answerCmd = &cobra.Command{
	Use:   "answer <query>",
	Short: "Scrapes the Google quick-answer panel for a query.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := search.NewClient(search.ClientOptions{})
		if err != nil {
			serviceutil.Fatal("init google client", err)
		}
		debugHttp(client.Http, "google")

		answer, err := client.AnswerBox(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			serviceutil.Fatal("fetch answer", err)
		}

		if *answerMarkdown && answer.HTML != "" {
			md, err := htmlutil.RenderMarkdown(answer.HTML)
			if err == nil {
				fmt.Println(md)
				return
			}
		}

		if answer.Title != "" {
			fmt.Printf("%s\n\n", answer.Title)
		}
		fmt.Println(answer.Text)
		if answer.Source.Href != "" {
			fmt.Printf("\nsource: %s (%s)\n", answer.Source.Name, answer.Source.Href)
		}
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <prefix>",
	Short: "Lists Google autocomplete suggestions for a prefix.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := search.NewClient(search.ClientOptions{})
		if err != nil {
			serviceutil.Fatal("init google client", err)
		}

		suggestions, err := client.Autocomplete(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			serviceutil.Fatal("fetch suggestions", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "suggestion"})
		for i, s := range suggestions {
			t.AppendRow(table.Row{i + 1, s})
		}
		t.Render()
	},
}
