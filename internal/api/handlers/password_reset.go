package handlers

import (
	"context"
	"errors"
	"fittrack/internal/auth"
	"fittrack/internal/email"
	"fittrack/internal/models"
	"fittrack/internal/repository"
	"fittrack/internal/reset"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidTokenOrCode = "invalid_token_or_code"
	errRateLimited        = "rate_limited"
	errInternal           = "internal_error"

	resetRequestedMessage = "if an account exists for this email, a reset code has been sent"
	resetCompleteMessage  = "password has been reset"
)

// PasswordResetHandler serves the request, verify and complete steps of a
// password reset
type PasswordResetHandler struct {
	userRepo     repository.UserRepository
	manager      *reset.Manager
	authService  *auth.Service
	emailService email.EmailSender
	autoSignIn   bool
	now          func() time.Time
}

// NewPasswordResetHandler creates a new password reset handler
func NewPasswordResetHandler(
	userRepo repository.UserRepository,
	manager *reset.Manager,
	authService *auth.Service,
	emailService email.EmailSender,
	autoSignIn bool,
) *PasswordResetHandler {
	return &PasswordResetHandler{
		userRepo:     userRepo,
		manager:      manager,
		authService:  authService,
		emailService: emailService,
		autoSignIn:   autoSignIn,
		now:          time.Now,
	}
}

// Request godoc
// @Summary Request a password reset
// @Description Sends a reset code and link to the address when an account exists. The response is the same whether or not it does.
// @Tags password-reset
// @Accept json
// @Produce json
// @Param request body models.PasswordResetRequest true "Account email"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /password-reset/request [post]
func (h *PasswordResetHandler) Request(c *gin.Context) {
	var req models.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	meta := requestMeta(c, req.Email)
	if err := h.manager.CheckLimits(ctx, reset.ScopeRequest, meta); err != nil {
		respondResetError(c, err)
		return
	}

	user, err := h.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("Failed to look up user for password reset: %v", err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: errInternal})
			return
		}
		if err := h.manager.Decoy(); err != nil {
			log.Printf("Failed to run decoy password reset: %v", err)
		}
		c.JSON(http.StatusOK, models.SuccessResponse{Message: resetRequestedMessage})
		return
	}

	issued, err := h.manager.RequestReset(ctx, user.ID, meta)
	if err != nil {
		log.Printf("Failed to issue password reset token: %v", err)
		respondResetError(c, err)
		return
	}

	if err := h.emailService.SendPasswordResetEmail(email.PasswordReset{
		To:        user.Email,
		Name:      user.Name,
		Code:      issued.Code,
		Token:     issued.Token,
		ExpiresIn: issued.ExpiresAt.Sub(h.now()),
	}); err != nil {
		log.Printf("Failed to send password reset email: %v", err)
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: resetRequestedMessage})
}

// Verify godoc
// @Summary Verify a reset code and token
// @Description Checks the pair without consuming it
// @Tags password-reset
// @Accept json
// @Produce json
// @Param request body models.VerifyResetRequest true "Code and token"
// @Success 200 {object} models.VerifyResetResponse
// @Failure 400 {object} models.ErrorResponse "Invalid token or code"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /password-reset/verify [post]
func (h *PasswordResetHandler) Verify(c *gin.Context) {
	var req models.VerifyResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: errInvalidTokenOrCode})
		return
	}

	ctx := c.Request.Context()
	meta := requestMeta(c, "")
	if err := h.manager.CheckLimits(ctx, reset.ScopeVerify, meta); err != nil {
		respondResetError(c, err)
		return
	}

	if _, err := h.manager.Validate(ctx, req.Code, req.Token, meta); err != nil {
		respondResetError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.VerifyResetResponse{Valid: true})
}

// Complete godoc
// @Summary Complete a password reset
// @Description Consumes the code and token and sets a new password. Returns an access token when auto sign-in is enabled.
// @Tags password-reset
// @Accept json
// @Produce json
// @Param request body models.CompleteResetRequest true "Code, token and new password"
// @Success 200 {object} models.CompleteResetResponse
// @Failure 400 {object} models.ErrorResponse "Invalid token or code, or weak password"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /password-reset/complete [post]
func (h *PasswordResetHandler) Complete(c *gin.Context) {
	var req models.CompleteResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if msg, ok := passwordPolicyError(err, req.NewPassword); ok {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: errInvalidTokenOrCode})
		return
	}

	ctx := c.Request.Context()
	meta := requestMeta(c, "")
	if err := h.manager.CheckLimits(ctx, reset.ScopeComplete, meta); err != nil {
		respondResetError(c, err)
		return
	}

	hashedPassword, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: errInternal})
		return
	}

	record, err := h.manager.Complete(ctx, req.Code, req.Token, meta, func(ctx context.Context, record *models.ResetToken) error {
		return h.userRepo.UpdatePassword(ctx, record.UserID, hashedPassword, h.now().UTC())
	})
	if err != nil {
		respondResetError(c, err)
		return
	}

	resp := models.CompleteResetResponse{Message: resetCompleteMessage}
	if h.autoSignIn {
		if token, err := h.signIn(ctx, record); err != nil {
			log.Printf("Failed to sign in after password reset: %v", err)
		} else {
			resp.AccessToken = token
			resp.ExpiresIn = h.authService.AccessTokenTTL()
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PasswordResetHandler) signIn(ctx context.Context, record *models.ResetToken) (string, error) {
	user, err := h.userRepo.GetByID(ctx, record.UserID)
	if err != nil {
		return "", err
	}
	return h.authService.GenerateAccessToken(user)
}

// respondResetError writes the public form of a reset failure. Locked and
// invalid tokens are indistinguishable to the client.
func respondResetError(c *gin.Context, err error) {
	switch reset.CodeOf(err) {
	case reset.CodeRateLimited:
		var rlErr *reset.RateLimitError
		if errors.As(err, &rlErr) && rlErr.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rlErr.RetryAfter.Seconds()))))
		}
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Error: errRateLimited})
	case reset.CodeInvalidTokenOrCode, reset.CodeLocked:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: errInvalidTokenOrCode})
	default:
		if !errors.Is(err, reset.ErrInternal) {
			log.Printf("Unexpected password reset error: %v", err)
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: errInternal})
	}
}
