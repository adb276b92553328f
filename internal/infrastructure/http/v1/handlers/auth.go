package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tally/internal/core/apperror"
	appctx "tally/internal/core/context"
	"tally/internal/domain/auth"
	"tally/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// currentUserID extracts the authenticated user's numeric ID from context.
func (h *AuthHandler) currentUserID(c *gin.Context) (int64, bool) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return 0, false
	}
	userID, err := strconv.ParseInt(user.UserID, 10, 64)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid user id"))
		return 0, false
	}
	return userID, true
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(ctx, req.ToAuthRequest())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromUser(user))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, user, err := h.service.Login(ctx, req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Tokens: dto.FromTokenPair(tokens),
		User:   dto.FromUser(user),
	})
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, err := h.service.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTokenPair(tokens))
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.service.Logout(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	user, err := h.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromUser(user))
}

// GrantCompany handles POST /auth/grant-company
func (h *AuthHandler) GrantCompany(c *gin.Context) {
	var req dto.CompanyAccessRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.GrantCompanyAccess(c.Request.Context(), req.UserID, req.CompanyID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "company access granted")
}

// RevokeCompany handles POST /auth/revoke-company
func (h *AuthHandler) RevokeCompany(c *gin.Context) {
	var req dto.CompanyAccessRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.RevokeCompanyAccess(c.Request.Context(), req.UserID, req.CompanyID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "company access revoked")
}

// ListUsers handles GET /auth/users
func (h *AuthHandler) ListUsers(c *gin.Context) {
	filter := auth.UserFilter{
		Search: c.Query("search"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if active := c.Query("isActive"); active != "" {
		v := active == "true"
		filter.IsActive = &v
	}

	users, total, err := h.service.ListUsers(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.UserResponse, len(users))
	for i := range users {
		items[i] = dto.FromUser(&users[i])
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "totalCount": total})
}
