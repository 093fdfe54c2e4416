// ABOUTME: Client CLI commands
// ABOUTME: Human-friendly commands for managing clients
package cli

import (
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/agentcrm/models"
	"github.com/harperreed/agentcrm/viz"
)

// AddClientCommand adds a new client.
func AddClientCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-client", flag.ContinueOnError)
	name := fs.String("name", "", "Client full name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	source := fs.String("source", "", "Lead source (Indicação, Site, ...)")
	status := fs.String("status", models.ClientStatusNew, "Client status")
	value := fs.Float64("value", 0, "Potential value in BRL")
	notes := fs.String("notes", "", "Notes about the client")
	city := fs.String("city", "", "City")
	state := fs.String("state", "", "State code (UF)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	client, err := app.Store.AddClient(models.Client{
		FullName:       *name,
		Email:          *email,
		Phone:          *phone,
		Source:         *source,
		Status:         *status,
		PotentialValue: *value,
		Notes:          *notes,
		City:           *city,
		State:          *state,
		CreatedBy:      "cli",
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	fmt.Fprintf(app.Out, "✓ Client created: %s (ID: %s)\n", client.FullName, client.ID)
	if client.Email != "" {
		fmt.Fprintf(app.Out, "  Email: %s\n", client.Email)
	}
	if client.PotentialValue > 0 {
		fmt.Fprintf(app.Out, "  Potential value: %s\n", viz.FormatBRL(client.PotentialValue))
	}
	if !models.IsKnownClientStatus(client.Status) {
		fmt.Fprintf(app.Out, "  Note: status %q is not a standard status\n", client.Status)
	}

	return nil
}

// ListClientsCommand lists clients, optionally fuzzy-filtered.
func ListClientsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list-clients", flag.ContinueOnError)
	query := fs.String("query", "", "Fuzzy search by name or email")
	status := fs.String("status", "", "Filter by status")
	limit := fs.Int("limit", 50, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var clients []models.Client
	for _, c := range app.Store.FindClients(*query, 0) {
		if *status != "" && c.Status != *status {
			continue
		}
		clients = append(clients, c)
		if len(clients) == *limit {
			break
		}
	}

	if len(clients) == 0 {
		fmt.Fprintln(app.Out, "No clients found")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tSTATUS\tVALUE\tLOCATION\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t------\t-----\t--------\t--")

	for _, c := range clients {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.FullName, dash(c.Email), c.Status, viz.FormatBRL(c.PotentialValue), location(c), c.ID)
	}

	return w.Flush()
}

// UpdateClientCommand updates fields on an existing client.
func UpdateClientCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("update-client", flag.ContinueOnError)
	name := fs.String("name", "", "New full name")
	email := fs.String("email", "", "New email")
	phone := fs.String("phone", "", "New phone")
	status := fs.String("status", "", "New status")
	value := fs.Float64("value", -1, "New potential value")
	notes := fs.String("notes", "", "New notes")
	city := fs.String("city", "", "New city")
	state := fs.String("state", "", "New state code")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("client ID required")
	}

	client, err := app.Store.Client(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("client not found: %w", err)
	}

	if *name != "" {
		client.FullName = *name
	}
	if *email != "" {
		client.Email = *email
	}
	if *phone != "" {
		client.Phone = *phone
	}
	if *status != "" {
		client.Status = *status
	}
	if *value >= 0 {
		client.PotentialValue = *value
	}
	if *notes != "" {
		client.Notes = *notes
	}
	if *city != "" {
		client.City = *city
	}
	if *state != "" {
		client.State = *state
	}

	if _, err := app.Store.UpdateClient(client); err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	fmt.Fprintf(app.Out, "✓ Client updated: %s\n", client.FullName)
	return nil
}

// DeleteClientCommand deletes a client by ID.
func DeleteClientCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("delete-client", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("client ID required")
	}

	deleted, err := app.Store.DeleteClient(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if !deleted {
		return fmt.Errorf("client not found: %s", fs.Arg(0))
	}

	fmt.Fprintf(app.Out, "✓ Client deleted: %s\n", fs.Arg(0))
	return nil
}

func location(c models.Client) string {
	switch {
	case c.City != "" && c.State != "":
		return c.City + "/" + c.State
	case c.State != "":
		return c.State
	case c.City != "":
		return c.City
	}
	return "-"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
