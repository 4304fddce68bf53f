// Package pipeline turns raw spreadsheet rows into validated per-day numeric
// records and computes the practice KPIs from them. Dirty input degrades to
// absent fields and unavailable values; nothing in this package returns an
// error for malformed data.
package pipeline

import (
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"practicepulse/internal/calendar"
	"practicepulse/pkg/contracts/domain"
)

// Canonical column labels as they appear on the daily production form.
// Matching is case-insensitive on the normalized label.
const (
	ColDate                  = "Date"
	ColProduction            = "Production"
	ColAdjustments           = "Adjustments"
	ColWriteOffs             = "Write-Offs"
	ColPatientIncome         = "Patient Income"
	ColInsuranceIncome       = "Insurance Income"
	ColUnearnedIncome        = "Unearned Income"
	ColTotalHygiene          = "Total Hygiene Appointments"
	ColHygieneNotReappointed = "Hygiene Not Reappointed"
	ColPresentedDollars      = "Dollar Amount Presented"
	ColScheduledDollars      = "Dollar Amount Scheduled"
	ColSameDayDollars        = "Same Day Treatment"
	ColNewPatientsMTD        = "New Patients MTD"
)

// columnAliases maps alternate spreadsheet headings onto canonical labels.
// Forms drift over time; old exports keep working through this table.
var columnAliases = map[string]string{
	"timestamp":                  ColDate,
	"write offs":                 ColWriteOffs,
	"writeoffs":                  ColWriteOffs,
	"total production":           ColProduction,
	"hygiene appointments total": ColTotalHygiene,
	"not reappointed":            ColHygieneNotReappointed,
	"treatment presented":        ColPresentedDollars,
	"treatment scheduled":        ColScheduledDollars,
	"same day dollars":           ColSameDayDollars,
	"new patients (mtd)":         ColNewPatientsMTD,
	"new patients mtd":           ColNewPatientsMTD,
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// canonicalColumn resolves a raw heading to its canonical label, or "" when
// the heading is not one the pipeline knows.
func canonicalColumn(label string) string {
	norm := normalizeLabel(label)
	if alias, ok := columnAliases[norm]; ok {
		return alias
	}
	for _, canonical := range []string{
		ColDate, ColProduction, ColAdjustments, ColWriteOffs,
		ColPatientIncome, ColInsuranceIncome, ColUnearnedIncome,
		ColTotalHygiene, ColHygieneNotReappointed,
		ColPresentedDollars, ColScheduledDollars, ColSameDayDollars,
		ColNewPatientsMTD,
	} {
		if norm == normalizeLabel(canonical) {
			return canonical
		}
	}
	return ""
}

// dateLayouts are tried in order when parsing the date cell. Form responses
// carry a full timestamp; manual exports usually carry a bare date.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"Jan 2, 2006",
	"2006-01-02T15:04:05Z07:00",
}

// ParseDate parses a raw date cell into a UTC midnight time. The boolean is
// false when no known layout matches.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseCurrency converts a raw currency cell into a Field. It strips
// currency symbols and thousands separators; a leading minus or accounting
// parentheses yield a negative value. Unparsable text is absent, never zero.
func ParseCurrency(raw string) domain.Field {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.None()
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}

	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.None()
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.None()
	}
	if negative {
		v = -v
	}
	return domain.Some(v)
}

// ParsePercent converts a raw percent cell into a Field. Values on the form
// are already whole-number percentages, so "85" and "85%" both parse to 85.
func ParsePercent(raw string) domain.Field {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if s == "" {
		return domain.None()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.None()
	}
	return domain.Some(v)
}

// ParseCount converts a raw count cell into a Field. Counts are integers on
// the form but decimal text is accepted.
func ParseCount(raw string) domain.Field {
	return ParseCurrency(raw)
}

// Transformer converts tabular snapshots into date-keyed numeric records for
// one location, tagging each row's date through the business calendar.
type Transformer struct {
	calendar *calendar.Calendar
	logger   *slog.Logger

	// When true, rows dated on non-operational days are dropped. Closed-day
	// submissions are almost always data-entry mistakes.
	businessDaysOnly bool
}

// NewTransformer builds a transformer. A nil logger falls back to
// slog.Default.
func NewTransformer(cal *calendar.Calendar, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{
		calendar:         cal,
		logger:           logger.With(slog.String("component", "transformer")),
		businessDaysOnly: true,
	}
}

// SetBusinessDaysOnly toggles dropping of rows dated on closed days.
func (t *Transformer) SetBusinessDaysOnly(v bool) {
	t.businessDaysOnly = v
}

// Transform converts one snapshot into a date-keyed record map. Rows without
// a parsable date are skipped; later rows for the same date overwrite
// earlier ones, mirroring the append-only form-response sheet where a
// resubmission supersedes the original.
func (t *Transformer) Transform(location string, snapshot *domain.TabularSnapshot) map[string]domain.NumericRecord {
	records := make(map[string]domain.NumericRecord)
	if snapshot.Empty() {
		return records
	}

	skippedNoDate := 0
	skippedClosed := 0

	for _, row := range snapshot.Rows {
		canonical := canonicalizeRow(row)

		date, ok := ParseDate(canonical[ColDate])
		if !ok {
			skippedNoDate++
			continue
		}
		if t.businessDaysOnly && !t.calendar.IsBusinessDay(date, location) {
			skippedClosed++
			continue
		}

		rec := domain.NumericRecord{
			Location:              location,
			Date:                  date,
			Production:            ParseCurrency(canonical[ColProduction]),
			Adjustments:           ParseCurrency(canonical[ColAdjustments]),
			WriteOffs:             ParseCurrency(canonical[ColWriteOffs]),
			PatientIncome:         ParseCurrency(canonical[ColPatientIncome]),
			InsuranceIncome:       ParseCurrency(canonical[ColInsuranceIncome]),
			UnearnedIncome:        ParseCurrency(canonical[ColUnearnedIncome]),
			TotalHygiene:          ParseCount(canonical[ColTotalHygiene]),
			HygieneNotReappointed: ParseCount(canonical[ColHygieneNotReappointed]),
			PresentedDollars:      ParseCurrency(canonical[ColPresentedDollars]),
			ScheduledDollars:      ParseCurrency(canonical[ColScheduledDollars]),
			SameDayDollars:        ParseCurrency(canonical[ColSameDayDollars]),
			NewPatientsMTD:        ParseCount(canonical[ColNewPatientsMTD]),
		}
		records[date.Format("2006-01-02")] = rec
	}

	t.logger.Debug("transformed snapshot",
		slog.String("location", location),
		slog.String("alias", snapshot.Alias),
		slog.Int("rows", len(snapshot.Rows)),
		slog.Int("records", len(records)),
		slog.Int("skipped_no_date", skippedNoDate),
		slog.Int("skipped_closed", skippedClosed))

	return records
}

// canonicalizeRow remaps a raw row's headings onto canonical labels.
// Unrecognized columns are dropped; missing columns simply yield empty
// strings downstream, which parse to absent fields.
func canonicalizeRow(row domain.RawRow) map[string]string {
	out := make(map[string]string, len(row))
	for label, value := range row {
		if canonical := canonicalColumn(label); canonical != "" {
			out[canonical] = value
		}
	}
	return out
}

// SortRecords returns the records ordered ascending by date.
func SortRecords(records map[string]domain.NumericRecord) []domain.NumericRecord {
	out := make([]domain.NumericRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// LatestRecord returns the record with the greatest date at or before
// cutoff, or false when none qualifies.
func LatestRecord(records map[string]domain.NumericRecord, cutoff time.Time) (domain.NumericRecord, bool) {
	var best domain.NumericRecord
	found := false
	for _, rec := range records {
		if rec.Date.After(cutoff) {
			continue
		}
		if !found || rec.Date.After(best.Date) {
			best = rec
			found = true
		}
	}
	return best, found
}
