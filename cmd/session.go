package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage chat sessions",
}

var sessionNewModel string

var sessionNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Start a new session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := requireConfig()
		store, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()

		title := ""
		if len(args) == 1 {
			title = args[0]
		}
		model := sessionNewModel
		if model == "" {
			model = c.DefaultModel
		}
		sess, err := store.Create(cmd.Context(), title, model)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Session created: %s (%s)\n", sess.ID[:8], sess.Title)
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := requireConfig()
		store, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()

		all, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("No sessions yet. Create one with 'plotloom session new'.")
			return nil
		}
		for _, s := range all {
			fmt.Printf("%s  %-30s  model=%s  datasets=%d  messages=%d  updated=%s\n",
				s.ID[:8], s.Title, s.Model, len(s.Datasets), s.Messages, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session's datasets and transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := requireConfig()
		store, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()

		sess, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Session: %s\nTitle:   %s\nModel:   %s\nCreated: %s\n",
			sess.ID, sess.Title, sess.Model, sess.CreatedAt.Local().Format("2006-01-02 15:04"))
		if len(sess.Datasets) > 0 {
			fmt.Println("\nDatasets:")
			for _, d := range sess.Datasets {
				fmt.Printf("  - %s (%d rows, %d columns) %s\n", d.Name, d.Rows, d.Columns, d.Path)
			}
		}
		msgs, err := store.Messages(cmd.Context(), sess.ID)
		if err != nil {
			return err
		}
		if len(msgs) > 0 {
			fmt.Println("\nTranscript:")
			for _, m := range msgs {
				fmt.Printf("\n[%d] %s:\n%s\n", m.Seq, m.Role, m.Content)
				for _, p := range m.Charts {
					fmt.Printf("    ↳ chart: %s\n", p)
				}
			}
		}
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Delete a session and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := requireConfig()
		store, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()

		sess, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := store.Clear(cmd.Context(), sess.ID); err != nil {
			return err
		}
		fmt.Printf("✓ Session deleted: %s (%s)\n", sess.ID[:8], sess.Title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionNewCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionNewCmd.Flags().StringVar(&sessionNewModel, "model", "", "model for this session (default from config)")
}
