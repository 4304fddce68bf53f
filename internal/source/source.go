// Package source defines the narrow fetch interface the KPI core consumes
// and the concrete adapters behind it. The core never touches the network
// or the filesystem directly; everything arrives as a TabularSnapshot.
package source

import (
	"context"
	"errors"

	"practicepulse/pkg/contracts/domain"
)

// ErrAliasNotFound is returned when a source does not know the alias.
var ErrAliasNotFound = errors.New("source: alias not found")

// DataSource is the fetch collaborator. Implementations may be slow or
// failing; callers bound them with a context deadline.
type DataSource interface {
	// Fetch returns the current snapshot for the alias. A missing alias is
	// an error wrapping ErrAliasNotFound; an empty snapshot is valid data.
	Fetch(ctx context.Context, alias string) (*domain.TabularSnapshot, error)

	// ListAliases returns every alias the source can serve.
	ListAliases(ctx context.Context) ([]string, error)

	// Validate reports whether the alias is fetchable.
	Validate(ctx context.Context, alias string) bool
}
