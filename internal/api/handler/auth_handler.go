package handler

import (
	"context"
	"errors"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/auth"
	"recruitflow-go/internal/config"
	"recruitflow-go/internal/constants"
	"recruitflow-go/internal/logger"
	"recruitflow-go/internal/storage"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"gorm.io/gorm"
)

// AuthHandler serves login and token refresh.
type AuthHandler struct {
	store  *storage.Storage
	tokens *auth.TokenManager
	cfg    *config.Config
}

// NewAuthHandler wires the authentication endpoints.
func NewAuthHandler(store *storage.Storage, tokens *auth.TokenManager, cfg *config.Config) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens, cfg: cfg}
}

// TokenResponse is the login/refresh payload.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// Login verifies form-encoded credentials and issues both tokens. The
// tokens are also set as http-only cookies for browser clients.
func (h *AuthHandler) Login(ctx context.Context, c *app.RequestContext) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		writeError(c, apperr.New(apperr.KindValidation, "username y password son obligatorios"))
		return
	}

	user, err := h.store.MySQL.GetUserByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, apperr.New(apperr.KindUnauthorized, "Credenciales inválidas"))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if !user.State || !auth.CheckPassword(user.PasswordHash, password) {
		writeError(c, apperr.New(apperr.KindUnauthorized, "Credenciales inválidas"))
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user)
	if err != nil {
		writeError(c, err)
		return
	}
	refreshToken, jti, err := h.tokens.IssueRefreshToken(user)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.store.Redis.StoreRefreshToken(ctx, jti, user.ID, h.tokens.RefreshTTL()); err != nil {
		writeError(c, err)
		return
	}

	h.setAuthCookie(c, constants.AccessTokenCookie, accessToken, int(h.tokens.AccessTTL().Seconds()))
	h.setAuthCookie(c, constants.RefreshTokenCookie, refreshToken, int(h.tokens.RefreshTTL().Seconds()))

	logger.Info().Str("username", user.Username).Msg("user logged in")
	c.JSON(consts.StatusOK, TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	})
}

// refreshRequest is the refresh body; the cookie is the fallback.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates the access token. The refresh token must verify and its
// jti must still be on the Redis allow-list.
func (h *AuthHandler) Refresh(ctx context.Context, c *app.RequestContext) {
	var req refreshRequest
	_ = c.BindJSON(&req)
	if req.RefreshToken == "" {
		req.RefreshToken = string(c.Cookie(constants.RefreshTokenCookie))
	}
	if req.RefreshToken == "" {
		writeError(c, apperr.New(apperr.KindUnauthorized, "refresh_token requerido"))
		return
	}

	claims, err := h.tokens.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	allowed, err := h.store.Redis.CheckRefreshToken(ctx, claims.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !allowed {
		writeError(c, apperr.New(apperr.KindUnauthorized, "Refresh token revocado o desconocido"))
		return
	}

	user, err := h.store.MySQL.GetUserByID(ctx, claims.UserID)
	if err != nil || !user.State {
		writeError(c, apperr.New(apperr.KindUnauthorized, "Usuario inválido o deshabilitado"))
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setAuthCookie(c, constants.AccessTokenCookie, accessToken, int(h.tokens.AccessTTL().Seconds()))
	c.JSON(consts.StatusOK, TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}

// Logout revokes the presented refresh token and clears both cookies.
func (h *AuthHandler) Logout(ctx context.Context, c *app.RequestContext) {
	var req refreshRequest
	_ = c.BindJSON(&req)
	if req.RefreshToken == "" {
		req.RefreshToken = string(c.Cookie(constants.RefreshTokenCookie))
	}
	if req.RefreshToken != "" {
		if claims, err := h.tokens.ParseRefreshToken(req.RefreshToken); err == nil {
			if err := h.store.Redis.RevokeRefreshToken(ctx, claims.ID); err != nil {
				logger.Warn().Err(err).Msg("failed to revoke refresh token on logout")
			}
		}
	}

	h.setAuthCookie(c, constants.AccessTokenCookie, "", -1)
	h.setAuthCookie(c, constants.RefreshTokenCookie, "", -1)
	c.JSON(consts.StatusOK, utils.H{"detail": "Sesión cerrada"})
}

func (h *AuthHandler) setAuthCookie(c *app.RequestContext, name, value string, maxAge int) {
	c.SetCookie(name, value, maxAge, "/", h.cfg.Auth.CookieDomain,
		protocol.CookieSameSiteLaxMode, h.cfg.Auth.CookieSecure, true)
}
