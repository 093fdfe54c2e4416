// ABOUTME: Entry point for the agentcrm CLI, TUI and MCP server
// ABOUTME: Loads config, opens the storage backend and routes to subcommands
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/agentcrm/charm"
	"github.com/harperreed/agentcrm/cli"
	"github.com/harperreed/agentcrm/config"
	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/gateway"
	"github.com/harperreed/agentcrm/tui"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "0.2.0"

type command func(app *cli.App, args []string) error

var crmCommands = map[string]command{
	"add-client":         cli.AddClientCommand,
	"list-clients":       cli.ListClientsCommand,
	"update-client":      cli.UpdateClientCommand,
	"delete-client":      cli.DeleteClientCommand,
	"add-opportunity":    cli.AddOpportunityCommand,
	"list-opportunities": cli.ListOpportunitiesCommand,
	"update-opportunity": cli.UpdateOpportunityCommand,
	"move-opportunity":   cli.MoveOpportunityCommand,
	"board":              cli.BoardCommand,
	"add-task":           cli.AddTaskCommand,
	"list-tasks":         cli.ListTasksCommand,
	"complete-task":      cli.CompleteTaskCommand,
	"delete-task":        cli.DeleteTaskCommand,
}

var agentCommands = map[string]command{
	"add":           cli.AgentAddCommand,
	"list":          cli.AgentListCommand,
	"update":        cli.AgentUpdateCommand,
	"toggle":        cli.AgentToggleCommand,
	"delete":        cli.AgentDeleteCommand,
	"history":       cli.AgentHistoryCommand,
	"clear-history": cli.AgentClearHistoryCommand,
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.local/share/agentcrm/config.json)")
	backend := flag.String("backend", "", "Storage backend: charm, sqlite, or memory")
	dbPath := flag.String("db-path", "", "SQLite file for the sqlite backend")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("agentcrm version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	if _, err := config.LoadEnv(".env", ".env.local"); err != nil {
		fatal(fmt.Errorf("failed to load .env: %w", err))
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if err := applyFlags(cfg, *backend, *dbPath); err != nil {
		fatal(err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fatal(fmt.Errorf("failed to create logger: %w", err))
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// sync auto only edits the saved charm config
	if command == "sync" && len(commandArgs) > 0 && commandArgs[0] == "auto" {
		exitOnError(charm.SetAutoSyncCommand(commandArgs[1:]))
		return
	}

	switch command {
	case "crm", "agent", "viz", "report", "sync", "mcp", "tui":
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	storage, closeStorage, err := cli.OpenStorage(cfg, logger)
	if err != nil {
		fatal(err)
	}
	defer closeStorage()

	if command == "sync" {
		exitOnError(runSync(storage, commandArgs))
		return
	}

	gw, err := gateway.NewGeminiFromConfig(ctx, cfg, logger)
	if err != nil {
		fatal(err)
	}
	app := cli.NewApp(storage, gw, logger)

	switch command {
	case "mcp":
		exitOnError(cli.MCPCommand(ctx, app))

	case "tui":
		exitOnError(tui.Run(ctx, tui.NewModel(app.Store, app.Engine, app.Agents, app.Chat, logger)))

	case "crm":
		if len(commandArgs) == 0 {
			fmt.Println("Error: crm requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		run, ok := crmCommands[commandArgs[0]]
		if !ok {
			fmt.Printf("Unknown crm command: %s\n\n", commandArgs[0])
			printUsage()
			os.Exit(1)
		}
		exitOnError(run(app, commandArgs[1:]))

	case "agent":
		if len(commandArgs) == 0 {
			fmt.Println("Error: agent requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		if commandArgs[0] == "chat" {
			exitOnError(cli.AgentChatCommand(ctx, app, commandArgs[1:]))
			return
		}
		run, ok := agentCommands[commandArgs[0]]
		if !ok {
			fmt.Printf("Unknown agent command: %s\n\n", commandArgs[0])
			printUsage()
			os.Exit(1)
		}
		exitOnError(run(app, commandArgs[1:]))

	case "viz":
		if len(commandArgs) == 0 {
			fmt.Println("Error: viz requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		switch commandArgs[0] {
		case "dashboard":
			exitOnError(cli.VizDashboardCommand(app, commandArgs[1:]))
		case "pipeline":
			exitOnError(cli.VizPipelineCommand(ctx, app, commandArgs[1:]))
		default:
			fmt.Printf("Unknown viz command: %s\n\n", commandArgs[0])
			printUsage()
			os.Exit(1)
		}

	case "report":
		exitOnError(cli.ReportCommand(app, commandArgs))
	}
}

func applyFlags(cfg *config.Config, backend, dbPath string) error {
	if backend != "" {
		cfg.Backend = backend
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if cfg.Backend == config.BackendSQLite && cfg.DBPath == "" {
		cfg.DBPath = config.DefaultDBPath()
	}
	return cfg.Validate()
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	// stdout belongs to command output and the MCP stdio transport
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

func runSync(storage db.Storage, args []string) error {
	client, ok := storage.(*charm.Client)
	if !ok {
		return fmt.Errorf("sync requires the charm backend (use --backend charm)")
	}
	if len(args) == 0 {
		return charm.SyncStatusCommand(client, nil)
	}

	switch args[0] {
	case "status":
		return charm.SyncStatusCommand(client, args[1:])
	case "now":
		return charm.SyncNowCommand(client, args[1:])
	case "link":
		return charm.SyncLinkCommand(client, args[1:])
	case "wipe":
		return charm.SyncWipeCommand(client, args[1:])
	}
	return fmt.Errorf("unknown sync command: %s", args[0])
}

func exitOnError(err error) {
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Printf(`agentcrm v%s - CRM with a sales pipeline and AI agents

USAGE:
  agentcrm [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.local/share/agentcrm/config.json)
  --backend <name>       Storage backend: charm (default), sqlite, or memory
  --db-path <path>       SQLite file for the sqlite backend

COMMANDS:
  crm                    Clients, opportunities and tasks
  agent                  AI agents and chat
  viz                    Dashboard and pipeline graph
  report                 Monthly PDF sales report
  sync                   Charm cloud sync
  mcp                    Start MCP server on stdio
  tui                    Full-screen interface

CRM COMMANDS:
  agentcrm crm add-client          Add a client
    --name <name>                    Full name (required)
    --email, --phone, --source, --notes, --city, --state
    --status <status>                Status (default: Novo)
    --value <brl>                    Potential value

  agentcrm crm list-clients        List clients
    --query <text>                   Fuzzy search by name or email
    --status <status>                Filter by status
    --limit <n>                      Max results (default: 50)

  agentcrm crm update-client [flags] <id>
  agentcrm crm delete-client <id>

  agentcrm crm add-opportunity     Add an opportunity
    --name <name>                    Name (required)
    --client <name> | --client-id <id>
    --value <brl>, --stage <stage>, --next-action, --description
    --close-date <YYYY-MM-DD>

  agentcrm crm list-opportunities  [--stage <stage>] [--client-id <id>]
  agentcrm crm update-opportunity [flags] <id>
                                   Same flags as add-opportunity except --stage
  agentcrm crm move-opportunity <id> <stage>
  agentcrm crm board               Show the kanban board

  agentcrm crm add-task            --name <name> [--due YYYY-MM-DD] [--at HH:MM]
                                   [--priority Alta|Média|Baixa] [--assignee <name>]
  agentcrm crm list-tasks          [--pending]
  agentcrm crm complete-task <id>
  agentcrm crm delete-task <id>

AGENT COMMANDS:
  agentcrm agent add               --name <name> [--prompt] [--model] [--temperature]
                                   [--max-tokens] [--triggers a,b]
  agentcrm agent list
  agentcrm agent update [flags] <id>
                                   Same flags as add; only the flags given change
  agentcrm agent toggle <id>
  agentcrm agent delete [--purge] <id>
  agentcrm agent chat [--message <text>] <id>
  agentcrm agent history [--limit <n>] <id>
  agentcrm agent clear-history [--all] [<id>]

VIZ COMMANDS:
  agentcrm viz dashboard           [--year <yyyy>]
  agentcrm viz pipeline            [--format dot|svg|png] [--output <file>] [--clients]

REPORT:
  agentcrm report                  [--month <1-12>] [--year <yyyy>] [--output <file>]

SYNC COMMANDS:
  agentcrm sync status             Show sync status
  agentcrm sync now                Sync immediately
  agentcrm sync link               Link this device to a Charm account
  agentcrm sync auto --enable|--disable
  agentcrm sync wipe --confirm     Delete all synced data

EXAMPLES:
  agentcrm crm add-client --name "Ana Silva" --city Campinas --state SP --value 1500
  agentcrm crm add-opportunity --name "Site" --client "Ana Silva" --value 3000
  agentcrm crm move-opportunity <id> fechado-ganhou
  agentcrm agent chat <agent-id>

`, version)
}
