// ABOUTME: Opportunity CLI commands
// ABOUTME: Add, list, update, and move opportunities and print the kanban board
package cli

import (
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harperreed/agentcrm/models"
	"github.com/harperreed/agentcrm/viz"
)

// AddOpportunityCommand adds a new opportunity.
func AddOpportunityCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-opportunity", flag.ContinueOnError)
	name := fs.String("name", "", "Opportunity name (required)")
	clientID := fs.String("client-id", "", "Client ID to link")
	clientName := fs.String("client", "", "Client full name (used when --client-id is not given)")
	value := fs.Float64("value", 0, "Value in BRL")
	stage := fs.String("stage", models.StageNewLead, "Stage ("+strings.Join(models.Stages, ", ")+")")
	nextAction := fs.String("next-action", "", "Next action")
	description := fs.String("description", "", "Description")
	closeDate := fs.String("close-date", "", "Expected close date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if *closeDate != "" {
		if _, err := time.Parse(models.DateLayout, *closeDate); err != nil {
			return fmt.Errorf("invalid --close-date (use YYYY-MM-DD): %w", err)
		}
	}

	opp := models.Opportunity{
		Name:              *name,
		ClientName:        *clientName,
		Value:             *value,
		Stage:             *stage,
		NextAction:        *nextAction,
		Description:       *description,
		ExpectedCloseDate: *closeDate,
	}
	if *clientID != "" {
		client, err := app.Store.Client(*clientID)
		if err != nil {
			return fmt.Errorf("client not found: %w", err)
		}
		opp.ClientID = client.ID
		opp.ClientName = client.FullName
	}

	created, err := app.Store.AddOpportunity(opp)
	if err != nil {
		return fmt.Errorf("failed to create opportunity: %w", err)
	}

	fmt.Fprintf(app.Out, "✓ Opportunity created: %s (ID: %s)\n", created.Name, created.ID)
	if created.ClientName != "" {
		fmt.Fprintf(app.Out, "  Client: %s\n", created.ClientName)
	}
	fmt.Fprintf(app.Out, "  Value: %s\n", viz.FormatBRL(created.Value))
	fmt.Fprintf(app.Out, "  Stage: %s\n", models.StageName(created.Stage))
	return nil
}

// ListOpportunitiesCommand lists opportunities.
func ListOpportunitiesCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list-opportunities", flag.ContinueOnError)
	stage := fs.String("stage", "", "Filter by stage")
	clientID := fs.String("client-id", "", "Only opportunities for this client")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opps := app.Store.Opportunities()
	if *clientID != "" {
		opps = app.Store.OpportunitiesForClient(*clientID)
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCLIENT\tSTAGE\tVALUE\tCLOSE\tID")
	_, _ = fmt.Fprintln(w, "----\t------\t-----\t-----\t-----\t--")

	count := 0
	for _, o := range opps {
		if *stage != "" && o.Stage != *stage {
			continue
		}
		count++
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Name, dash(o.ClientName), models.StageName(o.Stage), viz.FormatBRL(o.Value), dash(o.ExpectedCloseDate), o.ID)
	}

	if count == 0 {
		fmt.Fprintln(app.Out, "No opportunities found")
		return nil
	}
	return w.Flush()
}

// UpdateOpportunityCommand edits an opportunity. The stage is left alone;
// use move-opportunity so the won cascade runs.
func UpdateOpportunityCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("update-opportunity", flag.ContinueOnError)
	name := fs.String("name", "", "New name")
	clientID := fs.String("client-id", "", "Relink to this client ID")
	clientName := fs.String("client", "", "Relink to this client name")
	value := fs.Float64("value", -1, "New value in BRL")
	nextAction := fs.String("next-action", "", "New next action")
	description := fs.String("description", "", "New description")
	closeDate := fs.String("close-date", "", "New expected close date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("opportunity ID required")
	}
	if *closeDate != "" {
		if _, err := time.Parse(models.DateLayout, *closeDate); err != nil {
			return fmt.Errorf("invalid --close-date (use YYYY-MM-DD): %w", err)
		}
	}

	opp, err := app.Store.Opportunity(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("opportunity not found: %w", err)
	}

	if *name != "" {
		opp.Name = *name
	}
	switch {
	case *clientID != "":
		client, err := app.Store.Client(*clientID)
		if err != nil {
			return fmt.Errorf("client not found: %w", err)
		}
		opp.ClientID = client.ID
		opp.ClientName = client.FullName
	case *clientName != "":
		opp.ClientID = ""
		opp.ClientName = *clientName
	}
	if *value >= 0 {
		opp.Value = *value
	}
	if *nextAction != "" {
		opp.NextAction = *nextAction
	}
	if *description != "" {
		opp.Description = *description
	}
	if *closeDate != "" {
		opp.ExpectedCloseDate = *closeDate
	}

	if _, err := app.Store.UpdateOpportunity(opp); err != nil {
		return fmt.Errorf("failed to update opportunity: %w", err)
	}

	fmt.Fprintf(app.Out, "✓ Opportunity updated: %s\n", opp.Name)
	fmt.Fprintf(app.Out, "  Value: %s\n", viz.FormatBRL(opp.Value))
	fmt.Fprintf(app.Out, "  Stage: %s\n", models.StageName(opp.Stage))
	return nil
}

// MoveOpportunityCommand moves an opportunity to another stage.
func MoveOpportunityCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("move-opportunity", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 2 {
		return fmt.Errorf("usage: move-opportunity <id> <stage>")
	}

	opp, err := app.Engine.MoveToStage(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return fmt.Errorf("failed to move opportunity: %w", err)
	}

	fmt.Fprintf(app.Out, "✓ %s → %s\n", opp.Name, models.StageName(opp.Stage))
	if opp.Stage == models.StageClosedWon {
		if client, ok := app.Engine.ClientFor(opp); ok && client.Status == models.ClientStatusClosedWon {
			fmt.Fprintf(app.Out, "  Client %s marked as %s\n", client.FullName, client.Status)
		} else {
			fmt.Fprintf(app.Out, "  No client named %q found; client status unchanged\n", opp.ClientName)
		}
	}
	return nil
}

// BoardCommand prints the kanban board column by column.
func BoardCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("board", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	for _, col := range app.Engine.Board() {
		fmt.Fprintf(app.Out, "%s (%d) %s\n", col.Name, len(col.Opportunities), viz.FormatBRL(col.Total))
		for _, o := range col.Opportunities {
			fmt.Fprintf(app.Out, "  • %s  %s  %s\n", o.Name, dash(o.ClientName), viz.FormatBRL(o.Value))
		}
	}
	return nil
}
