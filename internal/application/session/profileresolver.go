package session

import (
	"context"
	"time"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/shared/biztime"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// DefaultProvisionDelay spaces the first lookup after sign-in. Correctness
// comes from conflict handling, not from this delay.
const DefaultProvisionDelay = 300 * time.Millisecond

// ProfileResolver finds the profile of an authenticated user and provisions a
// default one on first access. It is safe to call concurrently for the same
// user: a uniqueness conflict on insert is resolved by adopting the winner.
type ProfileResolver struct {
	profiles profile.Repository
	logger   logger.Interface
	delay    time.Duration
	now      biztime.Clock
}

func NewProfileResolver(profiles profile.Repository, logger logger.Interface, delay time.Duration) *ProfileResolver {
	return &ProfileResolver{
		profiles: profiles,
		logger:   logger,
		delay:    delay,
		now:      biztime.NowUTC,
	}
}

// Resolve returns the user's profile, creating a customer profile when none
// exists and an email is known. The returned error is for logging; callers
// treat a missing profile as a valid state.
func (r *ProfileResolver) Resolve(ctx context.Context, userID, email string) (*profile.Profile, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}

	p, err := r.profiles.GetByID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.IsNotFoundError(err) {
		// Provisioning below is still safe: an existing row surfaces as a conflict.
		r.logger.Warnw("profile fetch failed, attempting provisioning", "user_id", userID, "error", err)
	}

	if email == "" {
		return nil, errors.NewNotFoundError("profile not found", userID)
	}

	return r.Provision(ctx, userID, email, profile.RoleCustomer)
}

// Provision inserts a profile with the given role. A conflict means another
// path created it first, and that row is adopted. Any other failure is
// followed by one last fetch.
func (r *ProfileResolver) Provision(ctx context.Context, userID, email string, role profile.Role) (*profile.Profile, error) {
	p, err := profile.NewProfile(userID, email, role, r.now())
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	err = r.profiles.Create(ctx, p)
	if err == nil {
		r.logger.Infow("profile provisioned", "user_id", userID, "role", role)
		return p, nil
	}

	if errors.IsConflictError(err) {
		r.logger.Infow("profile created concurrently, adopting existing row", "user_id", userID)
		return r.profiles.GetByID(ctx, userID)
	}

	r.logger.Warnw("profile provisioning failed, re-fetching", "user_id", userID, "error", err)
	existing, fetchErr := r.profiles.GetByID(ctx, userID)
	if fetchErr != nil {
		return nil, errors.NewInternalError("failed to resolve profile").WithCause(err)
	}
	return existing, nil
}

func (r *ProfileResolver) wait(ctx context.Context) error {
	if r.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
