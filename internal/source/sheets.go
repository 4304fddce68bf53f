package source

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"practicepulse/pkg/contracts/domain"
)

// SheetRef points one alias at a tab of a Google spreadsheet.
type SheetRef struct {
	SpreadsheetID string `yaml:"spreadsheet_id" validate:"required"`
	ReadRange     string `yaml:"read_range" validate:"required"`
}

// SheetsSource fetches snapshots from Google Sheets, where the practice
// management form writes its responses.
type SheetsSource struct {
	service *sheets.Service
	refs    map[string]SheetRef
	logger  *slog.Logger
}

// NewSheetsSource builds a source over an existing sheets service.
func NewSheetsSource(service *sheets.Service, refs map[string]SheetRef, logger *slog.Logger) *SheetsSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetsSource{
		service: service,
		refs:    refs,
		logger:  logger.With(slog.String("component", "sheets_source")),
	}
}

// NewSheetsSourceFromCredentials builds the sheets service from a service
// account credentials file and wraps it.
func NewSheetsSourceFromCredentials(ctx context.Context, credentialsFile string, refs map[string]SheetRef, logger *slog.Logger) (*SheetsSource, error) {
	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewSheetsSource(service, refs, logger), nil
}

// Fetch reads the alias's configured range. The first row is the header;
// every following row becomes a RawRow keyed by those headings. Short rows
// simply omit the trailing columns.
func (s *SheetsSource) Fetch(ctx context.Context, alias string) (*domain.TabularSnapshot, error) {
	ref, ok := s.refs[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAliasNotFound, alias)
	}

	resp, err := s.service.Spreadsheets.Values.Get(ref.SpreadsheetID, ref.ReadRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet values for alias %q: %w", alias, err)
	}

	snapshot := valuesToSnapshot(alias, resp.Values)
	s.logger.Debug("fetched sheet snapshot",
		slog.String("alias", alias),
		slog.Int("rows", len(snapshot.Rows)))
	return snapshot, nil
}

// ListAliases returns the configured aliases in stable order.
func (s *SheetsSource) ListAliases(ctx context.Context) ([]string, error) {
	aliases := make([]string, 0, len(s.refs))
	for alias := range s.refs {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases, nil
}

// Validate reports whether the alias is configured.
func (s *SheetsSource) Validate(ctx context.Context, alias string) bool {
	_, ok := s.refs[alias]
	return ok
}

// valuesToSnapshot converts a sheets value grid into a snapshot. Cell values
// arrive as interface{}; everything is stringified since the row transformer
// parses defensively anyway.
func valuesToSnapshot(alias string, values [][]interface{}) *domain.TabularSnapshot {
	snapshot := &domain.TabularSnapshot{Alias: alias}
	if len(values) == 0 {
		return snapshot
	}

	headers := make([]string, len(values[0]))
	for i, h := range values[0] {
		headers[i] = fmt.Sprint(h)
	}
	snapshot.Columns = headers

	for _, rowValues := range values[1:] {
		row := make(domain.RawRow, len(headers))
		for i, cell := range rowValues {
			if i >= len(headers) {
				break
			}
			row[headers[i]] = fmt.Sprint(cell)
		}
		snapshot.Rows = append(snapshot.Rows, row)
	}
	return snapshot
}
