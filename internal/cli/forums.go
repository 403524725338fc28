package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forumsCmd = &cobra.Command{
	Use:   "forums",
	Short: "List forums with stored content",
	Long: `List every forum present in the content table together with how many
items it holds.

Examples:
  forumjudge forums`,
	RunE:         runForums,
	SilenceUsage: true,
}

func runForums(cmd *cobra.Command, args []string) error {
	forums, err := dbClient.ListForums(cmd.Context())
	if err != nil {
		return err
	}

	if len(forums) == 0 {
		fmt.Println("No content stored yet.")
		return nil
	}

	fmt.Printf("%-25s %10s\n", "FORUM", "CONTENT")
	for _, f := range forums {
		fmt.Printf("%-25s %10d\n", f.Forum, f.Count)
	}
	return nil
}
