// ABOUTME: CLI commands for Charm KV sync operations
// ABOUTME: Status per CRM collection, manual sync, auto-sync toggle and wipe

package charm

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/charm/client"
)

// CollectionKeys are the storage keys reported by sync status.
// Kept here instead of importing db so db can stay backend-agnostic.
var CollectionKeys = []string{
	"crm_clients",
	"crm_opportunities",
	"crm_tasks",
	"crm_ai_agents",
	"crm_agent_chat_history",
}

// SyncLinkCommand links this device to a Charm account using SSH key auth.
func SyncLinkCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("sync link", flag.ExitOnError)
	_ = fs.Parse(args)

	fmt.Printf("Linking to Charm Cloud (%s)...\n\n", c.Config().Host)

	if err := c.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	id, err := c.ID()
	if err != nil {
		fmt.Println("✓ Device linked (ID unavailable)")
	} else {
		fmt.Printf("✓ Linked to account: %s\n", id)
	}
	fmt.Printf("✓ Auto-sync: %v\n", c.Config().AutoSync)
	return nil
}

// SyncStatusCommand shows sync configuration and the size of each collection.
func SyncStatusCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("sync status", flag.ExitOnError)
	_ = fs.Parse(args)

	return writeSyncStatus(os.Stdout, c)
}

func writeSyncStatus(w io.Writer, c *Client) error {
	cfg := c.Config()
	fmt.Fprintln(w, "Charm Sync Status")
	fmt.Fprintln(w, "─────────────────")
	fmt.Fprintf(w, "Server:    %s\n", cfg.Host)
	fmt.Fprintf(w, "Auto-sync: %v\n", cfg.AutoSync)

	if c.remote != nil {
		if _, err := client.NewClientWithDefaults(); err != nil {
			fmt.Fprintln(w, "Status:    Not connected")
		} else if id, err := c.ID(); err != nil {
			fmt.Fprintln(w, "Status:    Connected (ID unavailable)")
		} else {
			fmt.Fprintln(w, "Status:    Connected")
			fmt.Fprintf(w, "ID:        %s\n", id)
		}
	}

	fmt.Fprintln(w)
	for _, key := range CollectionKeys {
		value, err := c.Get(key)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
		if value == nil {
			fmt.Fprintf(w, "  %-24s (empty)\n", key)
			continue
		}
		fmt.Fprintf(w, "  %-24s %d bytes\n", key, len(value))
	}
	return nil
}

// SyncWipeCommand resets the KV store. Requires --confirm.
func SyncWipeCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("sync wipe", flag.ExitOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	_ = fs.Parse(args)

	if !*confirm {
		fmt.Println("WARNING: This will delete ALL clients, opportunities, tasks, agents and chat history!")
		fmt.Println()
		fmt.Println("To confirm, run:")
		fmt.Println("  agentcrm sync wipe --confirm")
		return nil
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}

	fmt.Println("✓ All data wiped")
	return nil
}

// SyncNowCommand performs an immediate sync.
func SyncNowCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("sync now", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Show verbose output")
	_ = fs.Parse(args)

	if *verbose {
		fmt.Println("Syncing with server...")
	}

	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Println("✓ Synced")
	return nil
}

// SetAutoSyncCommand enables or disables auto-sync in the saved config.
func SetAutoSyncCommand(args []string) error {
	fs := flag.NewFlagSet("sync auto", flag.ExitOnError)
	enable := fs.Bool("enable", false, "Enable auto-sync")
	disable := fs.Bool("disable", false, "Disable auto-sync")
	_ = fs.Parse(args)

	if *enable == *disable {
		fmt.Println("Usage: agentcrm sync auto --enable|--disable")
		return nil
	}

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.SetAutoSync(*enable); err != nil {
		return fmt.Errorf("failed to update auto-sync: %w", err)
	}
	if *enable {
		fmt.Println("✓ Auto-sync enabled")
	} else {
		fmt.Println("✓ Auto-sync disabled")
	}
	return nil
}
