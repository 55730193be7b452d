package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"principal-sync/core/config"
	"principal-sync/core/database"
	"principal-sync/core/logger"
	"principal-sync/core/platform"
	"principal-sync/core/storage"
	"principal-sync/core/sync"
	"principal-sync/feature/csvfile"
	"principal-sync/feature/identitydb"
	"principal-sync/feature/jsonfile"
	"principal-sync/feature/objectstore"
	fplatform "principal-sync/feature/platform"
	"principal-sync/feature/spreadsheet"

	"go.uber.org/zap"
)

// Source and target kinds accepted by the --from and --to flags.
const (
	kindJSON        = "json"
	kindExcel       = "excel"
	kindCSV         = "csv"
	kindDatabase    = "db"
	kindPlatform    = "platform"
	kindObjectStore = "objectstore"
)

// setup loads configuration from the working directory and builds the
// application logger. Every command starts here.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(log)

	return cfg, log, nil
}

// fileBacked reports whether a kind reads or writes through the shared
// filename option, which limits a run to one file-backed side.
func fileBacked(kind string) bool {
	switch kind {
	case kindJSON, kindExcel, kindCSV:
		return true
	}
	return false
}

func buildReader(kind string, cfg *config.Config, log *zap.Logger) (sync.Reader, error) {
	switch kind {
	case kindJSON:
		return jsonfile.NewReader(log), nil
	case kindExcel:
		return spreadsheet.NewReader(log), nil
	case kindCSV:
		return csvfile.NewReader(log), nil
	case kindDatabase:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		return identitydb.NewReader(db, log), nil
	case kindPlatform:
		client, err := platform.NewClient(cfg.Platform, log)
		if err != nil {
			return nil, err
		}
		return fplatform.NewReader(client, log), nil
	case kindObjectStore:
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("connect object storage: %w", err)
		}
		return objectstore.NewReader(client, cfg.Storage.Bucket, log), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", kind)
}

func buildWriter(kind, object string, cfg *config.Config, log *zap.Logger) (sync.Writer, error) {
	switch kind {
	case kindJSON:
		return jsonfile.NewWriter(log), nil
	case kindExcel:
		return spreadsheet.NewWriter(log), nil
	case kindCSV:
		return csvfile.NewWriter(log), nil
	case kindPlatform:
		client, err := platform.NewClient(cfg.Platform, log)
		if err != nil {
			return nil, err
		}
		return fplatform.NewWriter(client, log), nil
	case kindObjectStore:
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("connect object storage: %w", err)
		}
		if object == "" {
			return nil, fmt.Errorf("target kind %q requires --object", kind)
		}
		return objectstore.NewWriter(client, cfg.Storage.Bucket, object, log), nil
	}
	return nil, fmt.Errorf("unknown target kind %q", kind)
}

// printReports logs one summary line per report plus every per-entity
// failure, mirroring what the plan API returns over HTTP.
func printReports(log *zap.Logger, reports []*sync.Report) {
	for _, r := range reports {
		fields := []zap.Field{
			zap.String("run_id", r.RunID),
			zap.String("target", r.Target),
			zap.Bool("dry_run", r.DryRun),
			zap.Int("attempted", r.TotalAttempted()),
			zap.Int("succeeded", r.TotalSucceeded()),
			zap.Int("failed", r.TotalFailed()),
		}
		for op, c := range r.Counts {
			fields = append(fields, zap.Int(string(op), c.Attempted))
		}
		log.Info("sync report", fields...)

		for _, f := range r.Failures {
			log.Warn("entity failed",
				zap.String("op", string(f.Op)),
				zap.String("name", f.Name),
				zap.String("error", f.Message))
		}
	}
}

// confirmDestructiveAction prompts the operator before a run that deletes
// entities. It returns true only on an explicit yes.
func confirmDestructiveAction(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
