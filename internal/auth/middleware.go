package auth

import (
	"context"

	"recruitflow-go/internal/constants"
	"recruitflow-go/internal/logger"
	"recruitflow-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// CurrentUserKey is where the middleware stores the authenticated user in
// the request context.
const CurrentUserKey = "current_user"

// UserLoader fetches an account by ID. Satisfied by storage.MySQL.
type UserLoader interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// CurrentUser returns the authenticated user attached by the middleware.
func CurrentUser(c *app.RequestContext) (*models.User, bool) {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// Middleware authenticates requests with a bearer access token. Browser
// clients that rely on the login cookie instead of the Authorization header
// are covered by a cookie fallback. Disabled accounts are rejected even
// while their token is still unexpired.
func Middleware(tm *TokenManager, users UserLoader) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithContextKey("access_token"),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, token string) (bool, error) {
			return validateAndAttach(ctx, c, tm, users, token)
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			if cookie := string(c.Cookie(constants.AccessTokenCookie)); cookie != "" {
				if ok, cerr := validateAndAttach(ctx, c, tm, users, cookie); ok && cerr == nil {
					c.Next(ctx)
					return
				}
			}
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(consts.StatusUnauthorized, map[string]string{
				"detail": "No autenticado",
			})
		}),
	)
}

// validateAndAttach verifies the token, loads the account and stores it on
// the request context.
func validateAndAttach(ctx context.Context, c *app.RequestContext, tm *TokenManager, users UserLoader, token string) (bool, error) {
	claims, err := tm.ParseAccessToken(token)
	if err != nil {
		return false, err
	}

	user, err := users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		logger.Warn().Err(err).Uint("user_id", claims.UserID).Msg("token refers to unknown user")
		return false, err
	}
	if !user.State {
		logger.Warn().Str("username", user.Username).Msg("disabled account presented a valid token")
		return false, nil
	}

	c.Set(CurrentUserKey, user)
	return true, nil
}

// RequireAdmin rejects authenticated callers without the admin role. Must
// run after Middleware.
func RequireAdmin() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(consts.StatusUnauthorized, map[string]string{
				"detail": "No autenticado",
			})
			return
		}
		if user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(consts.StatusForbidden, map[string]string{
				"detail": "Se requiere rol de administrador",
			})
			return
		}
		c.Next(ctx)
	}
}
