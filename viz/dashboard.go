// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Aggregates clients, opportunities and tasks into the CRM overview
package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/harperreed/agentcrm/models"
)

// MonthLabels are the short pt-BR month names used on the sales series.
var MonthLabels = [12]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

type DashboardStats struct {
	Year int `json:"year"`

	NewClients         int     `json:"new_clients"`
	TotalClients       int     `json:"total_clients"`
	TotalOpportunities int     `json:"total_opportunities"`
	PendingTasks       int     `json:"pending_tasks"`
	WonCount           int     `json:"won_count"`
	ConversionRate     int     `json:"conversion_rate"` // rounded percent
	TotalRevenue       float64 `json:"total_revenue"`

	LastClient *models.Client `json:"last_client,omitempty"`

	// MonthlySales holds won value per month of Year, by opportunity creation date.
	MonthlySales [12]float64 `json:"monthly_sales"`

	Pipeline []PipelineStageStats `json:"pipeline"`

	ClientsByState     []Bucket `json:"clients_by_state"`
	ClientsByCityState []Bucket `json:"clients_by_city_state"`
}

type PipelineStageStats struct {
	Stage string  `json:"stage"`
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// Bucket is one heatmap cell.
type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// GenerateDashboardStats computes the dashboard for year.
func GenerateDashboardStats(clients []models.Client, opps []models.Opportunity, tasks []models.Task, year int) *DashboardStats {
	stats := &DashboardStats{
		Year:               year,
		TotalClients:       len(clients),
		TotalOpportunities: len(opps),
	}

	for _, c := range clients {
		if c.Status == models.ClientStatusNew {
			stats.NewClients++
		}
	}
	for _, t := range tasks {
		if t.IsPending() {
			stats.PendingTasks++
		}
	}

	byStage := make(map[string]*PipelineStageStats, len(models.Stages))
	for _, stage := range models.Stages {
		stats.Pipeline = append(stats.Pipeline, PipelineStageStats{Stage: stage, Name: models.StageName(stage)})
	}
	for i := range stats.Pipeline {
		byStage[stats.Pipeline[i].Stage] = &stats.Pipeline[i]
	}

	for _, o := range opps {
		if p, ok := byStage[o.Stage]; ok {
			p.Count++
			p.Value += o.Value
		}
		if o.Stage != models.StageClosedWon {
			continue
		}
		stats.WonCount++
		stats.TotalRevenue += o.Value
		if created := o.CreatedAt.Local(); created.Year() == year {
			stats.MonthlySales[created.Month()-1] += o.Value
		}
	}
	for i := range stats.MonthlySales {
		stats.MonthlySales[i] = math.Round(stats.MonthlySales[i])
	}

	if stats.TotalOpportunities > 0 {
		stats.ConversionRate = int(math.Round(float64(stats.WonCount) / float64(stats.TotalOpportunities) * 100))
	}

	stats.LastClient = lastClient(clients)
	stats.ClientsByState, stats.ClientsByCityState = heatmap(clients)
	return stats
}

func lastClient(clients []models.Client) *models.Client {
	if len(clients) == 0 {
		return nil
	}
	latest := clients[0]
	for _, c := range clients[1:] {
		if c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	return &latest
}

// heatmap counts clients per state and per "city/state". Clients without a state are skipped.
func heatmap(clients []models.Client) (states, cities []Bucket) {
	stateCounts := map[string]int{}
	cityCounts := map[string]int{}
	for _, c := range clients {
		state := strings.ToUpper(strings.TrimSpace(c.State))
		if state == "" {
			continue
		}
		stateCounts[state]++
		if city := strings.TrimSpace(c.City); city != "" {
			cityCounts[city+"/"+state]++
		}
	}
	return sortedBuckets(stateCounts), sortedBuckets(cityCounts)
}

func sortedBuckets(counts map[string]int) []Bucket {
	out := make([]Bucket, 0, len(counts))
	for k, n := range counts {
		out = append(out, Bucket{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// FormatBRL renders a value as Brazilian reais.
func FormatBRL(v float64) string {
	return money.NewFromFloat(v, money.BRL).Display()
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  AGENTCRM DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("OVERVIEW\n")
	out.WriteString(fmt.Sprintf("  Novos clientes:      %d\n", stats.NewClients))
	out.WriteString(fmt.Sprintf("  Oportunidades:       %d\n", stats.TotalOpportunities))
	out.WriteString(fmt.Sprintf("  Tarefas pendentes:   %d\n", stats.PendingTasks))
	out.WriteString(fmt.Sprintf("  Vendas realizadas:   %d\n", stats.WonCount))
	out.WriteString(fmt.Sprintf("  Taxa de conversão:   %d%%\n", stats.ConversionRate))
	out.WriteString(fmt.Sprintf("  Receita total:       %s\n", FormatBRL(stats.TotalRevenue)))
	if stats.LastClient != nil {
		out.WriteString(fmt.Sprintf("  Último cliente:      %s (%s)\n",
			stats.LastClient.FullName, stats.LastClient.CreatedAt.Local().Format("02/01/2006")))
	}
	out.WriteString("\n")

	out.WriteString("PIPELINE\n")
	renderPipeline(&out, stats.Pipeline)
	out.WriteString("\n")

	out.WriteString(fmt.Sprintf("VENDAS %d\n", stats.Year))
	renderMonthly(&out, stats.MonthlySales)
	out.WriteString("\n")

	if len(stats.ClientsByState) > 0 {
		out.WriteString("CLIENTES POR ESTADO\n")
		renderBuckets(&out, stats.ClientsByState, 10)
		out.WriteString("\n")
	}
	if len(stats.ClientsByCityState) > 0 {
		out.WriteString("CLIENTES POR CIDADE\n")
		renderBuckets(&out, stats.ClientsByCityState, 10)
	}

	return out.String()
}

func bar(n, top int) string {
	if top == 0 {
		top = 1
	}
	length := (n * 10) / top
	return strings.Repeat("█", length) + strings.Repeat("░", 10-length)
}

func renderPipeline(out *strings.Builder, pipeline []PipelineStageStats) {
	maxCount := 0
	for _, p := range pipeline {
		if p.Count > maxCount {
			maxCount = p.Count
		}
	}
	for _, p := range pipeline {
		out.WriteString(fmt.Sprintf("  %-17s %s  %2d (%s)\n", p.Name, bar(p.Count, maxCount), p.Count, FormatBRL(p.Value)))
	}
}

func renderMonthly(out *strings.Builder, sales [12]float64) {
	maxValue := 0.0
	for _, v := range sales {
		maxValue = math.Max(maxValue, v)
	}
	for i, v := range sales {
		scaled := 0
		if maxValue > 0 {
			scaled = int(v / maxValue * 100)
		}
		out.WriteString(fmt.Sprintf("  %s  %s  %s\n", MonthLabels[i], bar(scaled, 100), FormatBRL(v)))
	}
}

func renderBuckets(out *strings.Builder, buckets []Bucket, limit int) {
	maxCount := buckets[0].Count
	for i, b := range buckets {
		if i == limit {
			out.WriteString(fmt.Sprintf("  ... e mais %d\n", len(buckets)-limit))
			break
		}
		out.WriteString(fmt.Sprintf("  %-22s %s  %d\n", b.Key, bar(b.Count, maxCount), b.Count))
	}
}

// CurrentYear is the default dashboard year.
func CurrentYear() int {
	return time.Now().Year()
}
