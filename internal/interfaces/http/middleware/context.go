package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/shared/constants"
)

// GetUserID returns the authenticated user id set by RequireAuth.
func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(constants.ContextKeyUserID)
	return id, id != ""
}

func GetSessionID(c *gin.Context) string {
	return c.GetString(constants.ContextKeySessionID)
}

func GetUserEmail(c *gin.Context) string {
	return c.GetString(constants.ContextKeyUserEmail)
}

// GetProfile returns the profile resolved by the profile middleware, or nil.
func GetProfile(c *gin.Context) *profile.Profile {
	v, ok := c.Get(constants.ContextKeyProfile)
	if !ok {
		return nil
	}
	p, _ := v.(*profile.Profile)
	return p
}

// GetRole returns the role of the resolved profile, or nil when unknown.
func GetRole(c *gin.Context) *profile.Role {
	p := GetProfile(c)
	if p == nil {
		return nil
	}
	r := p.Role
	return &r
}

func setProfile(c *gin.Context, p *profile.Profile) {
	c.Set(constants.ContextKeyProfile, p)
	c.Set(constants.ContextKeyUserRole, p.Role.String())
}
