// ABOUTME: Import utility for localStorage exports from the browser app
// ABOUTME: Writes known collections into the configured storage with dry-run and backup support

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/harperreed/agentcrm/cli"
	"github.com/harperreed/agentcrm/config"
	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/models"
	"go.uber.org/zap"
)

type options struct {
	dryRun     bool
	backup     bool
	backupPath string
}

func main() {
	input := flag.String("input", "", "Path to the exported localStorage JSON (required)")
	configPath := flag.String("config", "", "Config file (default: ~/.local/share/agentcrm/config.json)")
	backend := flag.String("backend", "", "Storage backend: charm, sqlite, or memory")
	dbPath := flag.String("db-path", "", "SQLite file for the sqlite backend")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Save values that get replaced before importing")
	backupPath := flag.String("backup-file", "", "Backup file (default: agentcrm-backup-<timestamp>.json)")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	if *input == "" {
		log.Fatal("Error: -input flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open export: %v", err)
	}
	export, err := readExport(f)
	_ = f.Close()
	if err != nil {
		log.Fatalf("Failed to read export: %v", err)
	}

	storage, closeStorage, err := cli.OpenStorage(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStorage()

	opts := options{dryRun: *dryRun, backup: *backup, backupPath: *backupPath}
	if opts.backupPath == "" {
		opts.backupPath = fmt.Sprintf("agentcrm-backup-%s.json", time.Now().Format("20060102-150405"))
	}

	if err := importExport(storage, export, opts, log); err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Info("Import completed successfully")
}

// readExport decodes an object of localStorage keys. Values may be the raw
// JSON collection or the string localStorage holds it as.
func readExport(r io.Reader) (map[string][]byte, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("export must be a JSON object: %w", err)
	}

	out := make(map[string][]byte, len(raw))
	for key, value := range raw {
		if len(value) > 0 && value[0] == '"' {
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", key, err)
			}
			out[key] = []byte(s)
			continue
		}
		out[key] = value
	}
	return out, nil
}

// countRecords checks that value decodes as the collection stored under key.
func countRecords(key string, value []byte) (int, error) {
	switch key {
	case db.KeyClients:
		return decodeCount[models.Client](value)
	case db.KeyOpportunities:
		return decodeCount[models.Opportunity](value)
	case db.KeyTasks:
		return decodeCount[models.Task](value)
	case db.KeyAgents:
		return decodeCount[models.AiAgent](value)
	case db.KeyChatHistory:
		return decodeCount[models.ChatHistory](value)
	}
	return 0, fmt.Errorf("unknown key %s", key)
}

func decodeCount[T any](value []byte) (int, error) {
	var items []T
	if err := json.Unmarshal(value, &items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func isKnownKey(key string) bool {
	for _, k := range db.Keys {
		if k == key {
			return true
		}
	}
	return false
}

func importExport(storage db.Storage, export map[string][]byte, opts options, log *zap.SugaredLogger) error {
	var unknown []string
	for key := range export {
		if !isKnownKey(key) {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		log.Warnf("Skipping unknown key: %s", key)
	}

	// Validate everything before touching storage
	var keys []string
	for _, key := range db.Keys {
		value, ok := export[key]
		if !ok {
			continue
		}
		n, err := countRecords(key, value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		log.Infof("Found %s: %d records", key, n)
		keys = append(keys, key)
	}

	if len(keys) == 0 {
		log.Info("Nothing to import")
		return nil
	}

	replaced := make(map[string]string)
	for _, key := range keys {
		existing, err := storage.Get(key)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
		if existing != nil {
			replaced[key] = string(existing)
		}
	}

	if opts.dryRun {
		log.Info("[DRY RUN] Would perform the following actions:")
		for _, key := range keys {
			if _, ok := replaced[key]; ok {
				log.Infof("[DRY RUN] - Replace %s", key)
			} else {
				log.Infof("[DRY RUN] - Write %s", key)
			}
		}
		if opts.backup && len(replaced) > 0 {
			log.Infof("[DRY RUN] - Back up %d existing keys to %s", len(replaced), opts.backupPath)
		}
		return nil
	}

	if opts.backup && len(replaced) > 0 {
		data, err := json.MarshalIndent(replaced, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode backup: %w", err)
		}
		if err := os.WriteFile(opts.backupPath, data, 0600); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		log.Infof("Backup created: %s", opts.backupPath)
	}

	for _, key := range keys {
		if err := storage.Set(key, export[key]); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
		log.Infof("Imported %s", key)
	}
	return nil
}
