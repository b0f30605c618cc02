package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cursorsUser string
	cursorsKey  string
)

var cursorsCmd = &cobra.Command{
	Use:   "cursors",
	Short: "Inspect and manage pagination cursors",
}

var cursorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's saved-search cursors",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		cursors, err := st.ListSkipCursors(cmd.Context(), cursorsUser)
		if err != nil {
			return err
		}
		if len(cursors) == 0 {
			fmt.Println("no cursors")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CRITERIA\tPOSITION\tUPDATED")
		for _, c := range cursors {
			fmt.Fprintf(w, "%s\t%d\t%s\n", c.CriteriaKey, c.Position, c.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var cursorsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset one saved-search cursor to zero",
	Long:  "Resets the cursor identified by its criteria key (as shown by 'cursors list'). The next acquisition for that search starts from the top of the provider's result set; already-delivered leads are still deduplicated.",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.ResetSkipCursor(cmd.Context(), cursorsUser, cursorsKey); err != nil {
			return err
		}
		zap.L().Info("cursor reset",
			zap.String("user", cursorsUser), zap.String("criteria", cursorsKey))
		return nil
	},
}

func init() {
	cursorsCmd.PersistentFlags().StringVar(&cursorsUser, "user", "", "user ID (required)")
	_ = cursorsCmd.MarkPersistentFlagRequired("user")

	cursorsResetCmd.Flags().StringVar(&cursorsKey, "key", "", "criteria key to reset (required)")
	_ = cursorsResetCmd.MarkFlagRequired("key")

	cursorsCmd.AddCommand(cursorsListCmd)
	cursorsCmd.AddCommand(cursorsResetCmd)
	rootCmd.AddCommand(cursorsCmd)
}
