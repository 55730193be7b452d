package cmd

import (
	"context"
	"fmt"

	"principal-sync/core/platform"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	deleteUsers  []string
	deleteGroups []string
	deleteYes    bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete named users or groups from the platform",
	Long: `Deletes the named users and groups from the platform. Names that do not
exist on the platform are skipped with a warning rather than failing the
whole run.`,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringSliceVar(&deleteUsers, "users", nil, "login names of users to delete")
	deleteCmd.Flags().StringSliceVar(&deleteGroups, "groups", nil, "names of groups to delete")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")

	RootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if len(deleteUsers) == 0 && len(deleteGroups) == 0 {
		return fmt.Errorf("nothing to delete, pass --users and/or --groups")
	}

	if !deleteYes {
		prompt := fmt.Sprintf("This will DELETE %d users and %d groups from the platform. Continue?",
			len(deleteUsers), len(deleteGroups))
		if !confirmDestructiveAction(prompt) {
			log.Info("delete aborted by operator")
			return nil
		}
	}

	client, err := platform.NewClient(cfg.Platform, log)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if len(deleteUsers) > 0 {
		if err := client.DeleteUsers(ctx, deleteUsers); err != nil {
			return fmt.Errorf("delete users: %w", err)
		}
		log.Info("users deleted", zap.Strings("names", deleteUsers))
	}
	if len(deleteGroups) > 0 {
		if err := client.DeleteGroups(ctx, deleteGroups); err != nil {
			return fmt.Errorf("delete groups: %w", err)
		}
		log.Info("groups deleted", zap.Strings("names", deleteGroups))
	}

	return nil
}
