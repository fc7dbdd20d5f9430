package process

import (
	"context"
	"testing"
	"time"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	date := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "0007-20250314-00001", GenerateCode(7, date, 1))
	assert.Equal(t, "0123-20250314-00042", GenerateCode(123, date, 42))
	assert.Equal(t, "12345-20250314-123456", GenerateCode(12345, date, 123456),
		"wide values must not be truncated")
}

func TestNewFormToken(t *testing.T) {
	first, err := NewFormToken()
	require.NoError(t, err)
	second, err := NewFormToken()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, first, 43, "32 raw bytes encode to 43 URL-safe characters")
	assert.NotContains(t, first, "=")
	assert.NotContains(t, first, "+")
	assert.NotContains(t, first, "/")
}

func TestBuildFormURL(t *testing.T) {
	url := BuildFormURL("https://jobs.example.com/form/{code}/{token}", "0007-20250314-00001", "abc123")
	assert.Equal(t, "https://jobs.example.com/form/0007-20250314-00001/abc123", url)

	plain := BuildFormURL("https://jobs.example.com/form", "c", "t")
	assert.Equal(t, "https://jobs.example.com/form", plain, "templates without placeholders pass through")
}

func TestAuthorize(t *testing.T) {
	proc := &models.ChargeProcess{UserID: 10}

	assert.NoError(t, Authorize(&models.User{ID: 10, Role: models.RoleUsuario}, proc))
	assert.NoError(t, Authorize(&models.User{ID: 99, Role: models.RoleAdmin}, proc))

	err := Authorize(&models.User{ID: 11, Role: models.RoleUsuario}, proc)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, "No tienes permiso para este proceso", apperr.DetailOf(err))
}

func TestReactivateRequiresAdmin(t *testing.T) {
	// The role gate fires before any lookup, so no backing stores are
	// needed to exercise it.
	s := NewService(nil, nil, nil)

	err := s.Reactivate(context.Background(), &models.User{ID: 10, Role: models.RoleUsuario}, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, "Solo un administrador puede reactivar un proceso", apperr.DetailOf(err))
}
