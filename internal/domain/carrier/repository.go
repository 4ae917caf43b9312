package carrier

import "context"

// Repository is the persisted carrier catalog.
//
// Insert and Update overwrite every column, including zero values.
// MarkDeletedExcept flags every active carrier whose ID is not in keepIDs and
// reports how many rows changed; an empty keepIDs is refused with
// ErrEmptyKeepSet.
type Repository interface {
	// AllIDs returns every stored ID, deleted ones included, ascending.
	AllIDs(ctx context.Context) ([]int64, error)

	// ActiveByCountry returns non-deleted carriers of a country ordered by ID.
	ActiveByCountry(ctx context.Context, country string) ([]Summary, error)

	// FindByID returns a carrier regardless of its deleted flag.
	FindByID(ctx context.Context, id int64) (*Carrier, error)

	Insert(ctx context.Context, c *Carrier) error
	Update(ctx context.Context, c *Carrier, id int64) error
	MarkDeletedExcept(ctx context.Context, keepIDs []int64) (int64, error)

	// Transaction runs fn against a repository bound to a single transaction.
	// Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	EnsureTable(ctx context.Context) error
	DropTable(ctx context.Context) error
}
