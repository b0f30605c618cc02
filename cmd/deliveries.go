package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var deliveriesUser string

var deliveriesCmd = &cobra.Command{
	Use:   "deliveries",
	Short: "Manage the per-user lead delivery ledger",
}

var deliveriesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear a user's delivery ledger",
	Long:  "Removes every delivery row for the user so previously served leads become eligible again. Cursors are untouched; combine with 'cursors reset' to replay a search from the top.",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.ResetDeliveries(cmd.Context(), deliveriesUser)
		if err != nil {
			return err
		}
		zap.L().Info("deliveries reset",
			zap.String("user", deliveriesUser), zap.Int64("removed", n))
		return nil
	},
}

func init() {
	deliveriesCmd.PersistentFlags().StringVar(&deliveriesUser, "user", "", "user ID (required)")
	_ = deliveriesCmd.MarkPersistentFlagRequired("user")

	deliveriesCmd.AddCommand(deliveriesResetCmd)
	rootCmd.AddCommand(deliveriesCmd)
}
