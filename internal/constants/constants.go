package constants

import "time"

// Token lifetimes.
const (
	AccessTokenTTL  = 60 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Intake form upload limits.
const (
	MaxCVUploadBytes = 5 * 1024 * 1024
)

// AllowedCVContentTypes is the allow-list for files submitted through the
// public intake form.
var AllowedCVContentTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// AuthCookie names set on successful login for browser clients.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)
