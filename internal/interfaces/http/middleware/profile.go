package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*profile.Profile, error)
}

// ProfileProvisioner creates a profile on first access and adopts a row
// created concurrently by another request.
type ProfileProvisioner interface {
	Provision(ctx context.Context, userID, email string, role profile.Role) (*profile.Profile, error)
}

// ProfileMiddleware loads the caller's profile after authentication. A user
// without a profile row gets a customer profile.
type ProfileMiddleware struct {
	profiles    ProfileReader
	provisioner ProfileProvisioner
	logger      logger.Interface
}

func NewProfileMiddleware(profiles ProfileReader, provisioner ProfileProvisioner, logger logger.Interface) *ProfileMiddleware {
	return &ProfileMiddleware{
		profiles:    profiles,
		provisioner: provisioner,
		logger:      logger,
	}
}

// RequireProfile must run after RequireAuth.
func (m *ProfileMiddleware) RequireProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
			c.Abort()
			return
		}

		p, err := m.load(c.Request.Context(), userID, GetUserEmail(c))
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			c.Abort()
			return
		}

		setProfile(c, p)
		c.Next()
	}
}

// OptionalProfile resolves the profile when the request is authenticated.
// Resolution failures leave the role unknown instead of failing the request.
func (m *ProfileMiddleware) OptionalProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.Next()
			return
		}

		if p, err := m.load(c.Request.Context(), userID, GetUserEmail(c)); err == nil {
			setProfile(c, p)
		}

		c.Next()
	}
}

func (m *ProfileMiddleware) load(ctx context.Context, userID, email string) (*profile.Profile, error) {
	p, err := m.profiles.GetByID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.IsNotFoundError(err) {
		m.logger.Errorw("failed to load profile", "user_id", userID, "error", err)
		return nil, err
	}

	p, err = m.provisioner.Provision(ctx, userID, email, profile.RoleCustomer)
	if err != nil {
		m.logger.Errorw("failed to provision profile", "user_id", userID, "error", err)
		return nil, err
	}
	return p, nil
}
