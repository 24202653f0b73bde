package usecases

import (
	"context"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// distinct returns the unique non-empty values in first-seen order.
func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// lookupProfiles batch-fetches profiles by id. A failed query is logged and
// yields an empty lookup so callers render the field as null.
func lookupProfiles(ctx context.Context, repo profile.Repository, ids []string, log logger.Interface, field string) map[string]*profile.Profile {
	if len(ids) == 0 {
		return map[string]*profile.Profile{}
	}
	rows, err := repo.ListByIDs(ctx, ids)
	if err != nil {
		log.Warnw("profile lookup failed, degrading to null",
			"field", field,
			"ids", len(ids),
			"error", err,
		)
		return map[string]*profile.Profile{}
	}
	return profile.IndexByID(rows)
}
