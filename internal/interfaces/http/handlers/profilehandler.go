package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/interfaces/http/middleware"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

// ProfileHandler serves the signed-in user's own profile.
type ProfileHandler struct {
	profiles profileUpdater
	logger   logger.Interface
}

func NewProfileHandler(profiles profileUpdater, logger logger.Interface) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger,
	}
}

// GetProfile handles GET /api/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	p := middleware.GetProfile(c)
	if p == nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", p)
}

// UpdateProfile handles PATCH /api/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	current := middleware.GetProfile(c)
	if current == nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var patch profile.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Warnw("invalid request body for update profile", "user_id", current.ID, "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateStruct(patch); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("update profile request",
		"user_id", current.ID,
		"has_full_name", patch.FullName != nil,
		"has_avatar_url", patch.AvatarURL != nil)

	updated, err := h.profiles.Update(c.Request.Context(), current.ID, patch)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "profile updated successfully", updated)
}
