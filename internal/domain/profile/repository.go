package profile

import "context"

// Repository is the backend accessor for the profiles table.
//
// GetByID returns a NotFound AppError when no row exists. Create returns a
// Conflict AppError when a row with the same id already exists.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Profile, error)
	Create(ctx context.Context, p *Profile) error
	Update(ctx context.Context, id string, patch Patch) (*Profile, error)
}

// IndexByID builds an id lookup from a batch query result.
func IndexByID(profiles []*Profile) map[string]*Profile {
	out := make(map[string]*Profile, len(profiles))
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out
}
