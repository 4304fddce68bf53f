package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practicepulse/internal/calendar"
	"practicepulse/pkg/contracts/domain"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		present bool
	}{
		{"plain number", "1234.56", 1234.56, true},
		{"dollar sign", "$1,234.56", 1234.56, true},
		{"thousands separators", "1,234,567", 1234567, true},
		{"leading minus", "-500", -500, true},
		{"minus with symbol", "-$500.25", -500.25, true},
		{"accounting parentheses", "($1,200)", -1200, true},
		{"parentheses no symbol", "(300)", -300, true},
		{"zero", "0", 0, true},
		{"zero with symbol", "$0.00", 0, true},
		{"empty", "", 0, false},
		{"whitespace", "   ", 0, false},
		{"garbage", "N/A", 0, false},
		{"text", "pending", 0, false},
		{"lone symbol", "$", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCurrency(tt.raw)
			assert.Equal(t, tt.present, got.Present)
			if tt.present {
				assert.InDelta(t, tt.want, got.Value, 1e-9)
			}
		})
	}
}

func TestParsePercent(t *testing.T) {
	// Whole-number percentages are used as-is, no extra scaling.
	assert.Equal(t, domain.Some(85), ParsePercent("85"))
	assert.Equal(t, domain.Some(85.5), ParsePercent("85.5%"))
	assert.Equal(t, domain.Some(0), ParsePercent("0%"))
	assert.False(t, ParsePercent("").Present)
	assert.False(t, ParsePercent("n/a").Present)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"2025-06-13", "2025-06-13", true},
		{"6/13/2025", "2025-06-13", true},
		{"6/13/2025 14:22:31", "2025-06-13", true},
		{"Jun 13, 2025", "2025-06-13", true},
		{"", "", false},
		{"yesterday", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseDate(tt.raw)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func newTestTransformer() *Transformer {
	cal := calendar.New(map[string]calendar.WeekPattern{
		"midtown": calendar.ClosedOn(time.Sunday),
	})
	return NewTransformer(cal, nil)
}

func TestTransform(t *testing.T) {
	tr := newTestTransformer()

	snapshot := &domain.TabularSnapshot{
		Alias: "midtown-daily",
		Rows: []domain.RawRow{
			{
				"Date":           "6/13/2025",
				"Production":     "$10,000",
				"Adjustments":    "($500)",
				"Write-Offs":     "-300",
				"Patient Income": "$8,000",
			},
			{
				"Date":             "6/14/2025",
				"Production":      "not entered",
				"Insurance Income": "$1,200",
			},
		},
	}

	records := tr.Transform("midtown", snapshot)
	require.Len(t, records, 2)

	fri := records["2025-06-13"]
	assert.Equal(t, domain.Some(10000), fri.Production)
	assert.Equal(t, domain.Some(-500), fri.Adjustments)
	assert.Equal(t, domain.Some(-300), fri.WriteOffs)
	assert.Equal(t, domain.Some(8000), fri.PatientIncome)
	assert.False(t, fri.InsuranceIncome.Present)

	sat := records["2025-06-14"]
	assert.False(t, sat.Production.Present, "unparsable production must be absent, not zero")
	assert.Equal(t, domain.Some(1200), sat.InsuranceIncome)
}

func TestTransformLastSubmissionWins(t *testing.T) {
	tr := newTestTransformer()

	snapshot := &domain.TabularSnapshot{
		Rows: []domain.RawRow{
			{"Date": "6/13/2025", "Production": "$1,000"},
			{"Date": "6/13/2025", "Production": "$2,000"},
		},
	}

	records := tr.Transform("midtown", snapshot)
	require.Len(t, records, 1)
	assert.Equal(t, domain.Some(2000), records["2025-06-13"].Production)
}

func TestTransformSkipsClosedDays(t *testing.T) {
	tr := newTestTransformer()

	// 2025-06-15 is a Sunday; midtown is closed Sundays.
	snapshot := &domain.TabularSnapshot{
		Rows: []domain.RawRow{
			{"Date": "6/14/2025", "Production": "$500"},
			{"Date": "6/15/2025", "Production": "$100"},
		},
	}

	records := tr.Transform("midtown", snapshot)
	assert.Len(t, records, 1)
	_, has := records["2025-06-15"]
	assert.False(t, has)

	tr.SetBusinessDaysOnly(false)
	records = tr.Transform("midtown", snapshot)
	assert.Len(t, records, 2)
}

func TestTransformMissingColumn(t *testing.T) {
	tr := newTestTransformer()

	// Snapshot with no hygiene columns at all: every hygiene field is
	// absent, the snapshot as a whole is still usable.
	snapshot := &domain.TabularSnapshot{
		Rows: []domain.RawRow{
			{"Date": "6/13/2025", "Production": "$10,000"},
		},
	}

	records := tr.Transform("midtown", snapshot)
	require.Len(t, records, 1)
	rec := records["2025-06-13"]
	assert.True(t, rec.Production.Present)
	assert.False(t, rec.TotalHygiene.Present)
	assert.False(t, rec.HygieneNotReappointed.Present)
}

func TestTransformColumnAliases(t *testing.T) {
	tr := newTestTransformer()

	snapshot := &domain.TabularSnapshot{
		Rows: []domain.RawRow{
			{
				"Timestamp":            "6/13/2025 09:15:00",
				"Write Offs":           "-250",
				"New Patients (MTD)":   "12",
				"total production":     "$5,500",
			},
		},
	}

	records := tr.Transform("midtown", snapshot)
	require.Len(t, records, 1)
	rec := records["2025-06-13"]
	assert.Equal(t, domain.Some(-250), rec.WriteOffs)
	assert.Equal(t, domain.Some(12), rec.NewPatientsMTD)
	assert.Equal(t, domain.Some(5500), rec.Production)
}

func TestSortRecords(t *testing.T) {
	records := map[string]domain.NumericRecord{
		"2025-06-14": {Date: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)},
		"2025-06-12": {Date: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)},
		"2025-06-13": {Date: time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)},
	}

	sorted := SortRecords(records)
	require.Len(t, sorted, 3)
	assert.True(t, sorted[0].Date.Before(sorted[1].Date))
	assert.True(t, sorted[1].Date.Before(sorted[2].Date))
}

func TestLatestRecord(t *testing.T) {
	records := map[string]domain.NumericRecord{
		"2025-06-12": {Date: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)},
		"2025-06-14": {Date: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)},
	}

	rec, ok := LatestRecord(records, time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, "2025-06-12", rec.Date.Format("2006-01-02"))

	_, ok = LatestRecord(records, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}
