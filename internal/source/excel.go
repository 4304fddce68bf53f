package source

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/xuri/excelize/v2"

	"practicepulse/pkg/contracts/domain"
)

// WorkbookRef points one alias at a sheet of an Excel workbook on disk.
// Offices that export their form responses to xlsx are served through this
// adapter instead of the live Sheets API.
type WorkbookRef struct {
	Path  string `yaml:"path" validate:"required"`
	Sheet string `yaml:"sheet"`
}

// ExcelSource fetches snapshots from Excel workbook exports.
type ExcelSource struct {
	refs   map[string]WorkbookRef
	logger *slog.Logger
}

// NewExcelSource builds an Excel-backed source.
func NewExcelSource(refs map[string]WorkbookRef, logger *slog.Logger) *ExcelSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelSource{
		refs:   refs,
		logger: logger.With(slog.String("component", "excel_source")),
	}
}

// Fetch opens the workbook and reads the configured sheet, or the first
// sheet when none is configured. The first row is the header.
func (s *ExcelSource) Fetch(ctx context.Context, alias string) (*domain.TabularSnapshot, error) {
	ref, ok := s.refs[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAliasNotFound, alias)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook for alias %q: %w", alias, err)
	}
	defer f.Close()

	sheet := ref.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook for alias %q has no sheets", alias)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q for alias %q: %w", sheet, alias, err)
	}

	snapshot := rowsToSnapshot(alias, rows)
	s.logger.Debug("fetched workbook snapshot",
		slog.String("alias", alias),
		slog.String("sheet", sheet),
		slog.Int("rows", len(snapshot.Rows)))
	return snapshot, nil
}

// ListAliases returns the configured aliases in stable order.
func (s *ExcelSource) ListAliases(ctx context.Context) ([]string, error) {
	aliases := make([]string, 0, len(s.refs))
	for alias := range s.refs {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases, nil
}

// Validate reports whether the alias is configured.
func (s *ExcelSource) Validate(ctx context.Context, alias string) bool {
	_, ok := s.refs[alias]
	return ok
}

func rowsToSnapshot(alias string, rows [][]string) *domain.TabularSnapshot {
	snapshot := &domain.TabularSnapshot{Alias: alias}
	if len(rows) == 0 {
		return snapshot
	}

	headers := rows[0]
	snapshot.Columns = headers

	for _, cells := range rows[1:] {
		row := make(domain.RawRow, len(headers))
		for i, cell := range cells {
			if i >= len(headers) {
				break
			}
			row[headers[i]] = cell
		}
		snapshot.Rows = append(snapshot.Rows, row)
	}
	return snapshot
}
