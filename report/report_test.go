// ABOUTME: Tests for the monthly PDF report
// ABOUTME: Checks period filtering, summary numbers and the PDF output
package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/harperreed/agentcrm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.Local)
}

func fixtures() []models.Opportunity {
	return []models.Opportunity{
		{ID: "o1", Name: "Site", ClientName: "Ana Silva", Stage: models.StageClosedWon, Value: 1200, CreatedAt: at(2024, time.March, 20)},
		{ID: "o2", Name: "App", ClientName: "Bruno Costa", Stage: models.StageProposal, Value: 800, CreatedAt: at(2024, time.March, 2)},
		{ID: "o3", Name: "Loja", ClientName: "Carla Dias", Stage: models.StageClosedLost, Value: 300, CreatedAt: at(2024, time.March, 10)},
		{ID: "o4", Name: "ERP", ClientName: "Ana Silva", Stage: models.StageClosedWon, Value: 5000, CreatedAt: at(2024, time.April, 1)},
		{ID: "o5", Name: "BI", ClientName: "Ana Silva", Stage: models.StageClosedWon, Value: 700, CreatedAt: at(2023, time.March, 15)},
	}
}

func TestInPeriodFiltersAndSorts(t *testing.T) {
	period := InPeriod(fixtures(), time.March, 2024)

	require.Len(t, period, 3)
	assert.Equal(t, "o2", period[0].ID)
	assert.Equal(t, "o3", period[1].ID)
	assert.Equal(t, "o1", period[2].ID)

	assert.Empty(t, InPeriod(fixtures(), time.May, 2024))
}

func TestSummarize(t *testing.T) {
	s := Summarize(InPeriod(fixtures(), time.March, 2024), time.March, 2024)

	assert.Equal(t, 3, s.Opportunities)
	assert.Equal(t, 1, s.Won)
	assert.Equal(t, 1200.0, s.Revenue)
	assert.Equal(t, 33, s.ConversionRate)

	empty := Summarize(nil, time.May, 2024)
	assert.Equal(t, 0, empty.ConversionRate)
}

func TestGenerateMonthlyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateMonthlyReport(&buf, fixtures(), time.March, 2024))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestGenerateMonthlyReportEmptyPeriod(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateMonthlyReport(&buf, nil, time.January, 2024))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestGenerateMonthlyReportRejectsBadMonth(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, GenerateMonthlyReport(&buf, nil, 13, 2024))
	assert.Zero(t, buf.Len())
}

func TestClip(t *testing.T) {
	assert.Equal(t, "curto", clip("curto", 10))
	assert.Equal(t, "Negoc…", clip("Negociação", 6))
}
