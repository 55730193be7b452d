package cmd

import (
	"context"
	"fmt"
	"strconv"

	"principal-sync/core/sync"
	"principal-sync/feature/jsonfile"
	"principal-sync/feature/objectstore"
	fplatform "principal-sync/feature/platform"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncFrom            string
	syncTo              string
	syncFilename        string
	syncObject          string
	syncApply           bool
	syncRemoveDeleted   bool
	syncBatchSize       int
	syncMergeGroups     bool
	syncCreateGroups    bool
	syncUpdatePasswords bool
	syncYes             bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile a source of users and groups against a target",
	Long: `Reads the desired set of users, groups, and memberships from a source,
fetches the target's current state, computes the minimal change plan, and
applies it. Without --apply the plan is computed and reported but nothing
is changed.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncFrom, "from", kindJSON, "source kind: json, excel, csv, db, platform, objectstore")
	syncCmd.Flags().StringVar(&syncTo, "to", kindPlatform, "target kind: platform, json, excel, csv, objectstore")
	syncCmd.Flags().StringVarP(&syncFilename, "filename", "f", "", "path of the file-backed side")
	syncCmd.Flags().StringVar(&syncObject, "object", "", "object key for the object-store side")
	syncCmd.Flags().BoolVar(&syncApply, "apply", false, "apply the computed plan instead of only reporting it")
	syncCmd.Flags().BoolVar(&syncRemoveDeleted, "remove-deleted", false, "delete target entities absent from the source")
	syncCmd.Flags().IntVar(&syncBatchSize, "batch-size", 0, "apply user operations in chunks of this many users (0 = single batch)")
	syncCmd.Flags().BoolVar(&syncMergeGroups, "merge-groups", false, "union source memberships with existing ones instead of replacing")
	syncCmd.Flags().BoolVar(&syncCreateGroups, "create-groups", false, "create groups that users reference but no side defines")
	syncCmd.Flags().BoolVar(&syncUpdatePasswords, "update-passwords", false, "push source passwords to the platform for synced users")
	syncCmd.Flags().BoolVarP(&syncYes, "yes", "y", false, "skip the confirmation prompt for destructive runs")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if fileBacked(syncFrom) && fileBacked(syncTo) {
		return fmt.Errorf("source and target cannot both be file-backed, they share the filename option; use the export command for format conversion")
	}
	if syncFrom == kindObjectStore && syncTo == kindObjectStore {
		return fmt.Errorf("source and target cannot both be object-store-backed, they share the object option")
	}

	reader, err := buildReader(syncFrom, cfg, log)
	if err != nil {
		return err
	}
	writer, err := buildWriter(syncTo, syncObject, cfg, log)
	if err != nil {
		return err
	}

	opts := sync.Options{
		ApplyChanges:  syncApply,
		RemoveDeleted: syncRemoveDeleted,
		MergeGroups:   syncMergeGroups,
		CreateGroups:  syncCreateGroups,
		BatchSize:     syncBatchSize,
		Extra:         map[string]string{},
	}
	if syncFilename != "" {
		opts.Extra[jsonfile.OptionFilename] = syncFilename
	}
	if syncObject != "" {
		opts.Extra[objectstore.OptionObject] = syncObject
	}
	if syncUpdatePasswords {
		opts.Extra[fplatform.OptionUpdatePasswords] = strconv.FormatBool(true)
	}

	if syncApply && syncRemoveDeleted && !syncYes {
		if !confirmDestructiveAction("This run will DELETE target users and groups absent from the source. Continue?") {
			log.Info("sync aborted by operator")
			return nil
		}
	}

	orch, err := sync.NewOrchestrator(reader, []sync.Writer{writer}, log)
	if err != nil {
		return err
	}

	log.Info("starting sync",
		zap.String("from", syncFrom),
		zap.String("to", syncTo),
		zap.Bool("apply", syncApply))

	reports, err := orch.Run(context.Background(), opts)
	printReports(log, reports)
	if err != nil {
		return err
	}

	for _, r := range reports {
		if r.TotalFailed() > 0 {
			return fmt.Errorf("sync finished with %d failed operations", r.TotalFailed())
		}
	}

	log.Info("sync complete")
	return nil
}
