// ABOUTME: Monthly sales report rendered as PDF
// ABOUTME: Summarises the period's opportunities and lists them in a table
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/harperreed/agentcrm/models"
	"github.com/harperreed/agentcrm/viz"
)

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// Summary holds the headline numbers of a report period.
type Summary struct {
	Month          time.Month `json:"month"`
	Year           int        `json:"year"`
	Opportunities  int        `json:"opportunities"`
	Won            int        `json:"won"`
	Revenue        float64    `json:"revenue"`
	ConversionRate int        `json:"conversion_rate"`
}

// InPeriod returns the opportunities created in month/year (local time), oldest first.
func InPeriod(opps []models.Opportunity, month time.Month, year int) []models.Opportunity {
	var out []models.Opportunity
	for _, o := range opps {
		created := o.CreatedAt.Local()
		if created.Year() == year && created.Month() == month {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Summarize computes the summary lines for an already filtered period.
func Summarize(period []models.Opportunity, month time.Month, year int) Summary {
	s := Summary{Month: month, Year: year, Opportunities: len(period)}
	for _, o := range period {
		if o.Stage == models.StageClosedWon {
			s.Won++
			s.Revenue += o.Value
		}
	}
	if s.Opportunities > 0 {
		s.ConversionRate = int(math.Round(float64(s.Won) / float64(s.Opportunities) * 100))
	}
	return s
}

// GenerateMonthlyReport writes the PDF report for month/year to w.
func GenerateMonthlyReport(w io.Writer, opps []models.Opportunity, month time.Month, year int) error {
	if month < time.January || month > time.December {
		return fmt.Errorf("invalid month: %d", month)
	}

	period := InPeriod(opps, month, year)
	summary := Summarize(period, month, year)

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	title := fmt.Sprintf("Relatório de Vendas - %s/%d", monthNames[month-1], year)
	pdf.SetTitle(title, true)
	pdf.SetCreationDate(time.Now())
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		fmt.Sprintf("Oportunidades no período: %d", summary.Opportunities),
		fmt.Sprintf("Vendas fechadas: %d", summary.Won),
		fmt.Sprintf("Receita: %s", viz.FormatBRL(summary.Revenue)),
		fmt.Sprintf("Taxa de conversão: %d%%", summary.ConversionRate),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	writeTable(pdf, tr, period)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func writeTable(pdf *fpdf.Fpdf, tr func(string) string, period []models.Opportunity) {
	headers := []string{"Oportunidade", "Cliente", "Etapa", "Valor", "Criada em"}
	widths := []float64{50, 45, 35, 32, 28}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	if len(period) == 0 {
		pdf.CellFormat(sum(widths), 8, tr("Nenhuma oportunidade no período."), "1", 1, "C", false, 0, "")
		return
	}
	for _, o := range period {
		row := []string{
			clip(o.Name, 28),
			clip(o.ClientName, 25),
			models.StageName(o.Stage),
			viz.FormatBRL(o.Value),
			o.CreatedAt.Local().Format("02/01/2006"),
		}
		for i, cell := range row {
			align := "L"
			if i == 3 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}
