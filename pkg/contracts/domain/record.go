package domain

import (
	"time"
)

// Field is a numeric cell value that distinguishes "absent" from zero.
// Parsing failures and missing columns produce an absent Field, never an
// error and never a silent 0.
type Field struct {
	Value   float64 `json:"value"`
	Present bool    `json:"present"`
}

// Some returns a present Field holding v.
func Some(v float64) Field {
	return Field{Value: v, Present: true}
}

// None returns an absent Field.
func None() Field {
	return Field{}
}

// Or returns the field's value when present, otherwise the fallback.
func (f Field) Or(fallback float64) float64 {
	if f.Present {
		return f.Value
	}
	return fallback
}

// Abs returns a present Field holding the absolute value, or an absent one.
func (f Field) Abs() Field {
	if !f.Present {
		return None()
	}
	if f.Value < 0 {
		return Some(-f.Value)
	}
	return f
}

// NumericRecord holds one calendar day's validated figures for one location
// alias. Every field is either a finite number or explicitly absent; the row
// transformer guarantees no NaN/Inf values reach this struct.
type NumericRecord struct {
	Location string    `json:"location" validate:"required"`
	Date     time.Time `json:"date" validate:"required"`

	Production  Field `json:"production"`
	Adjustments Field `json:"adjustments"`
	WriteOffs   Field `json:"write_offs"`

	PatientIncome   Field `json:"patient_income"`
	InsuranceIncome Field `json:"insurance_income"`
	UnearnedIncome  Field `json:"unearned_income"`

	TotalHygiene         Field `json:"total_hygiene"`
	HygieneNotReappointed Field `json:"hygiene_not_reappointed"`

	PresentedDollars Field `json:"presented_dollars"`
	ScheduledDollars Field `json:"scheduled_dollars"`
	SameDayDollars   Field `json:"same_day_dollars"`

	// NewPatientsMTD is the month-to-date cumulative new patient count as it
	// appears on the form; the daily figure is derived downstream.
	NewPatientsMTD Field `json:"new_patients_mtd"`
}

// RawRow is one ingested spreadsheet row: a mapping from column label to the
// raw cell text. Rows are immutable once fetched and discarded after
// transformation.
type RawRow map[string]string

// TabularSnapshot is the full set of rows returned by one fetch of a source
// alias. Rows keep their submission order; the column set is shared but the
// snapshot is not required to be rectangular.
type TabularSnapshot struct {
	Alias   string   `json:"alias"`
	Columns []string `json:"columns"`
	Rows    []RawRow `json:"rows"`
}

// Empty reports whether the snapshot carries no data rows.
func (s *TabularSnapshot) Empty() bool {
	return s == nil || len(s.Rows) == 0
}
