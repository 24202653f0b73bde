package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/interfaces/http/middleware"
	"github.com/orris-inc/helpdesk/internal/shared/biztime"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

type AuthHandler struct {
	credentials credentialService
	provisioner profileProvisioner
	logger      logger.Interface
	now         biztime.Clock
}

func NewAuthHandler(credentials credentialService, provisioner profileProvisioner, logger logger.Interface) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		provisioner: provisioner,
		logger:      logger,
		now:         biztime.NowUTC,
	}
}

// SignUp handles POST /api/auth/signup. It creates credentials and a profile
// with the requested role; it does not sign the user in.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for sign up", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	role := profile.RoleCustomer
	if req.Role != "" {
		role = profile.Role(req.Role)
	}

	user, err := h.credentials.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warnw("sign up failed", "email", req.Email, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	p, err := h.provisioner.Provision(c.Request.Context(), user.ID, user.Email, role)
	if err != nil {
		h.logger.Errorw("failed to provision profile after sign up", "user_id", user.ID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, SignUpResponse{
		User:    UserResponse{ID: user.ID, Email: user.Email},
		Profile: p,
	}, "sign up successful")
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.credentials.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warnw("sign in failed", "email", req.Email, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "sign in successful", toTokenResponse(tokens, h.now()))
}

// SignOut handles POST /api/auth/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	if sessionID == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	if err := h.credentials.SignOut(c.Request.Context(), sessionID); err != nil {
		h.logger.Errorw("sign out failed", "session_id", sessionID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "signed out", nil)
}

// Refresh handles POST /api/auth/refresh. The presented refresh token is
// rotated and cannot be used again.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.credentials.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "token refreshed", toTokenResponse(tokens, h.now()))
}

// RequestPasswordReset handles POST /api/auth/password-reset. The response
// is the same whether or not the email is registered.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.credentials.SendPasswordReset(c.Request.Context(), req.Email, req.RedirectTo); err != nil {
		h.logger.Errorw("failed to send password reset", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "if the email is registered, a reset link has been sent", nil)
}

// ConfirmPasswordReset handles POST /api/auth/password-reset/confirm
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.credentials.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "password has been reset", nil)
}
