// ABOUTME: Visualization and report CLI commands
// ABOUTME: Handles viz dashboard, pipeline graph generation, and the monthly PDF report
package cli

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-graphviz"
	"github.com/harperreed/agentcrm/report"
	"github.com/harperreed/agentcrm/viz"
)

// VizDashboardCommand prints the terminal dashboard.
func VizDashboardCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("viz dashboard", flag.ContinueOnError)
	year := fs.Int("year", viz.CurrentYear(), "Year for the monthly sales series")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stats := viz.GenerateDashboardStats(app.Store.Clients(), app.Store.Opportunities(), app.Store.Tasks(), *year)
	fmt.Fprint(app.Out, viz.RenderDashboard(stats))
	return nil
}

// VizPipelineCommand renders the kanban as a graph.
func VizPipelineCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("viz pipeline", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", "dot", "Output format: dot, svg, or png")
	clients := fs.Bool("clients", false, "Include client nodes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var gvFormat graphviz.Format
	switch *format {
	case "dot":
		gvFormat = graphviz.XDOT
	case "svg":
		gvFormat = graphviz.SVG
	case "png":
		gvFormat = graphviz.PNG
		if *output == "" {
			return fmt.Errorf("--output is required for png")
		}
	default:
		return fmt.Errorf("unknown format: %s (valid: dot, svg, png)", *format)
	}

	linked := app.Store.Clients()
	if !*clients {
		linked = nil
	}

	generator := viz.NewGraphGenerator(app.Logger)
	data, err := generator.GeneratePipelineGraph(ctx, app.Store.Opportunities(), linked, gvFormat)
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, data, 0644)
	}

	_, err = app.Out.Write(data)
	return err
}

// ReportCommand writes the monthly PDF sales report.
func ReportCommand(app *App, args []string) error {
	now := time.Now()
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	month := fs.Int("month", int(now.Month()), "Month (1-12)")
	year := fs.Int("year", now.Year(), "Year")
	output := fs.String("output", "", "Output file (default: relatorio-YYYY-MM.pdf)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *output
	if path == "" {
		path = fmt.Sprintf("relatorio-%04d-%02d.pdf", *year, *month)
	}

	var buf bytes.Buffer
	if err := report.GenerateMonthlyReport(&buf, app.Store.Opportunities(), time.Month(*month), *year); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	period := report.InPeriod(app.Store.Opportunities(), time.Month(*month), *year)
	summary := report.Summarize(period, time.Month(*month), *year)
	fmt.Fprintf(app.Out, "✓ Report written: %s\n", path)
	fmt.Fprintf(app.Out, "  %d opportunities, %d won, %s revenue\n", summary.Opportunities, summary.Won, viz.FormatBRL(summary.Revenue))
	return nil
}
