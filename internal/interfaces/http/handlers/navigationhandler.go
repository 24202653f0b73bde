package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/helpdesk/internal/application/session"
	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/interfaces/http/middleware"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

type NavigationResponse struct {
	Path          string        `json:"path"`
	Authenticated bool          `json:"authenticated"`
	Role          *profile.Role `json:"role"`
	Redirect      bool          `json:"redirect"`
	Target        string        `json:"target,omitempty"`
}

// NavigationHandler tells a front end where the caller belongs. It runs
// behind optional authentication so anonymous callers get an answer too.
type NavigationHandler struct{}

func NewNavigationHandler() *NavigationHandler {
	return &NavigationHandler{}
}

// Decide handles GET /api/navigation?path=
func (h *NavigationHandler) Decide(c *gin.Context) {
	path := c.DefaultQuery("path", session.PathRoot)
	_, authenticated := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	intent := session.DecideNavigation(authenticated, role, path)

	utils.SuccessResponse(c, http.StatusOK, "", NavigationResponse{
		Path:          path,
		Authenticated: authenticated,
		Role:          role,
		Redirect:      intent.Redirect,
		Target:        intent.Target,
	})
}
