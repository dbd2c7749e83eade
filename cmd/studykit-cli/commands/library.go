package commands

import (
	"fmt"
	"os"
	"strings"
	"studykit-backend/lib/scrapers/cdnjs"
	"studykit-backend/lib/scrapers/notion"
	"studykit-backend/lib/scrapers/quizlet"
	"studykit-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cdnjsCmd)
	rootCmd.AddCommand(notionCmd)
	rootCmd.AddCommand(flashcardsCmd)
}

var cdnjsCmd = &cobra.Command{
	Use:   "cdnjs <name>",
	Short: "Searches the cdnjs library index.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := cdnjs.NewClient(cdnjs.ClientOptions{})

		libraries, err := client.Search(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("search cdnjs", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"name", "version", "latest file"})
		for _, lib := range libraries {
			t.AppendRow(table.Row{lib.Name, lib.Version, lib.LatestFileUrl})
		}
		t.Render()
	},
}

var notionCmd = &cobra.Command{
	Use:   "notion <query>",
	Short: "Searches a Notion workspace. Needs notion.token and notion.space_id in studykit.json5.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		if cfg.Notion.Token == "" || cfg.Notion.SpaceID == "" {
			serviceutil.Fatal("search notion", fmt.Errorf("notion.token and notion.space_id must be set in studykit.json5"))
		}

		client := notion.NewClient(notion.ClientOptions{Token: cfg.Notion.Token})

		results, err := client.Search(cmd.Context(), notion.Request{
			SpaceID: cfg.Notion.SpaceID,
			Query:   strings.Join(args, " "),
		})
		if err != nil {
			serviceutil.Fatal("search notion", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"block", "snippet"})
		for _, m := range results.Matches {
			t.AppendRow(table.Row{m.BlockID, m.Snippet})
		}
		t.Render()
		fmt.Printf("\n%d total matches\n", results.Total)
	},
}

var flashcardsCmd = &cobra.Command{
	Use:   "flashcards <set-url>",
	Short: "Dumps a Quizlet flashcard set.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setID, err := quizlet.ExtractSetID(args[0])
		if err != nil {
			serviceutil.Fatal("parse set url", err)
		}

		client, err := quizlet.NewClient(quizlet.ClientOptions{})
		if err != nil {
			serviceutil.Fatal("init quizlet client", err)
		}

		set, err := client.FlashcardSet(cmd.Context(), setID)
		if err != nil {
			serviceutil.Fatal("fetch flashcards", err)
		}

		fmt.Printf("%s (%d cards)\n\n", set.Title, len(set.Cards))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"term", "definition"})
		for _, card := range set.Cards {
			t.AppendRow(table.Row{card.Term, card.Definition})
		}
		t.Render()
	},
}
