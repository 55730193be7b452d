package cmd

import (
	"context"
	"fmt"

	"principal-sync/core/platform"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	transferFromUser string
	transferToUser   string
	transferYes      bool
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer ownership of all objects from one user to another",
	Long: `Reassigns every object owned by one user to another user on the platform.
Run this before deleting a user so their content survives them.`,
	RunE: runTransfer,
}

func init() {
	transferCmd.Flags().StringVar(&transferFromUser, "from-user", "", "login name of the current owner")
	transferCmd.Flags().StringVar(&transferToUser, "to-user", "", "login name of the new owner")
	transferCmd.Flags().BoolVarP(&transferYes, "yes", "y", false, "skip the confirmation prompt")

	RootCmd.AddCommand(transferCmd)
}

func runTransfer(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if transferFromUser == "" || transferToUser == "" {
		return fmt.Errorf("both --from-user and --to-user are required")
	}
	if transferFromUser == transferToUser {
		return fmt.Errorf("owner and new owner are the same user %q", transferFromUser)
	}

	if !transferYes {
		prompt := fmt.Sprintf("This will transfer ALL objects owned by %q to %q. Continue?",
			transferFromUser, transferToUser)
		if !confirmDestructiveAction(prompt) {
			log.Info("transfer aborted by operator")
			return nil
		}
	}

	client, err := platform.NewClient(cfg.Platform, log)
	if err != nil {
		return err
	}

	if err := client.TransferOwnership(context.Background(), transferFromUser, transferToUser); err != nil {
		return fmt.Errorf("transfer ownership: %w", err)
	}

	log.Info("ownership transferred",
		zap.String("from", transferFromUser),
		zap.String("to", transferToUser))
	return nil
}
