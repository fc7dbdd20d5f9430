package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"recruitflow-go/internal/config"
	"recruitflow-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// integrationMySQL connects with the default local configuration and skips
// the test when no database is reachable.
func integrationMySQL(t *testing.T) *MySQL {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	m, err := NewMySQL(&cfg.MySQL)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestAreaDuplicateActiveName(t *testing.T) {
	m := integrationMySQL(t)
	ctx := context.Background()

	name := fmt.Sprintf("it-area-%d", time.Now().UnixNano())
	area, err := m.CreateArea(ctx, name)
	require.NoError(t, err)
	require.NotZero(t, area.ID)

	_, err = m.CreateArea(ctx, name)
	assert.ErrorIs(t, err, ErrDuplicateName)

	// Deactivating frees the name for a new active area.
	_, err = m.ToggleAreaState(ctx, area.ID)
	require.NoError(t, err)
	again, err := m.CreateArea(ctx, name)
	require.NoError(t, err)
	assert.NotEqual(t, area.ID, again.ID)
}

func TestUserRenameIsAudited(t *testing.T) {
	m := integrationMySQL(t)
	ctx := context.Background()

	username := fmt.Sprintf("it-user-%d", time.Now().UnixNano())
	user := &models.User{Username: username, PasswordHash: "x", Role: models.RoleUsuario, State: true}
	require.NoError(t, m.CreateUser(ctx, user))

	renamed := username + "-renamed"
	_, err := m.RenameUser(ctx, user.ID, renamed, "it-admin")
	require.NoError(t, err)

	audit, err := m.GetUserAudit(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, audit.UsernameChanges)
	last := audit.UsernameChanges[0]
	assert.Equal(t, username, last.UsernameOld)
	assert.Equal(t, renamed, last.UsernameNew)
	assert.Equal(t, "it-admin", last.UpdatedBy)
}

func TestProcessCodeCollision(t *testing.T) {
	m := integrationMySQL(t)
	ctx := context.Background()

	owner := &models.User{
		Username: fmt.Sprintf("it-owner-%d", time.Now().UnixNano()),
		PasswordHash: "x", Role: models.RoleUsuario, State: true,
	}
	require.NoError(t, m.CreateUser(ctx, owner))

	area, err := m.CreateArea(ctx, fmt.Sprintf("it-area-%d", time.Now().UnixNano()))
	require.NoError(t, err)
	job, err := m.CreateJobPosition(ctx, fmt.Sprintf("it-job-%d", time.Now().UnixNano()), area.ID)
	require.NoError(t, err)

	code := fmt.Sprintf("%04d-%s-%05d", owner.ID, time.Now().Format("20060102"), 1)
	first := &models.ChargeProcess{Code: code, JobID: job.ID, UserID: owner.ID, State: true}
	require.NoError(t, m.CreateProcess(ctx, first))

	dup := &models.ChargeProcess{Code: code, JobID: job.ID, UserID: owner.ID, State: true}
	assert.ErrorIs(t, m.CreateProcess(ctx, dup), ErrDuplicateCode)
}

func TestMatchCorrectionRecomputesBlend(t *testing.T) {
	m := integrationMySQL(t)
	ctx := context.Background()

	owner := &models.User{
		Username: fmt.Sprintf("it-owner-%d", time.Now().UnixNano()),
		PasswordHash: "x", Role: models.RoleUsuario, State: true,
	}
	require.NoError(t, m.CreateUser(ctx, owner))
	area, err := m.CreateArea(ctx, fmt.Sprintf("it-area-%d", time.Now().UnixNano()))
	require.NoError(t, err)
	job, err := m.CreateJobPosition(ctx, fmt.Sprintf("it-job-%d", time.Now().UnixNano()), area.ID)
	require.NoError(t, err)

	process := &models.ChargeProcess{
		Code:   fmt.Sprintf("%04d-%s-%05d", owner.ID, time.Now().Format("20060102"), 2),
		JobID:  job.ID,
		UserID: owner.ID,
		State:  true,
	}
	require.NoError(t, m.CreateProcess(ctx, process))

	blendedDNI := fmt.Sprintf("it-dni-a-%d", time.Now().UnixNano())
	engineOnlyDNI := fmt.Sprintf("it-dni-b-%d", time.Now().UnixNano())
	for _, dni := range []string{blendedDNI, engineOnlyDNI} {
		require.NoError(t, m.CreatePostulant(ctx, &models.Postulant{DNI: dni, Name: "it"}))
	}

	blended := &models.EvaluacionCV{
		PuestoID: job.ID, ChargeProcessID: process.ID,
		DNIPostulante: &blendedDNI, Match: 60, CVProcesado: true,
	}
	require.NoError(t, m.CreateEvaluacion(ctx, blended))
	require.NoError(t, m.UpdateEvaluacionScores(ctx, blended.ID, 90, models.BlendScores(60, 90)))

	engineOnly := &models.EvaluacionCV{
		PuestoID: job.ID, ChargeProcessID: process.ID,
		DNIPostulante: &engineOnlyDNI, Match: 60, CVProcesado: true,
	}
	require.NoError(t, m.CreateEvaluacion(ctx, engineOnly))

	// Correcting the engine score must carry the blended total with it.
	n, err := m.UpdateMatchByDNIAndProcess(ctx, blendedDNI, process.ID, 80)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := m.GetEvaluacionByID(ctx, blended.ID)
	require.NoError(t, err)
	assert.Equal(t, 80.0, got.Match)
	require.NotNil(t, got.MatchEval)
	assert.Equal(t, 90.0, *got.MatchEval)
	require.NotNil(t, got.MatchTotal)
	assert.Equal(t, models.BlendScores(80, 90), *got.MatchTotal,
		"blended total must follow the corrected engine score")

	// Without a manual score there is nothing to blend.
	n, err = m.UpdateMatchByDNIAndProcess(ctx, engineOnlyDNI, process.ID, 75)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err = m.GetEvaluacionByID(ctx, engineOnly.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, got.Match)
	assert.Nil(t, got.MatchEval)
	assert.Nil(t, got.MatchTotal)
}
