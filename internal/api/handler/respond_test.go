package handler

import (
	"encoding/json"
	"errors"
	"testing"

	"recruitflow-go/internal/apperr"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestContext() *app.RequestContext {
	c := app.NewContext(16)
	c.Request.SetRequestURI("/test")
	return c
}

func decodeDetail(t *testing.T, c *app.RequestContext) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(c.Response.Body(), &body))
	detail, _ := body["detail"].(string)
	return detail
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperr.New(apperr.KindValidation, "dato inválido"), consts.StatusBadRequest},
		{"unauthorized", apperr.New(apperr.KindUnauthorized, "Credenciales inválidas"), consts.StatusUnauthorized},
		{"forbidden", apperr.New(apperr.KindForbidden, "No tienes permiso para este proceso"), consts.StatusForbidden},
		{"not found", apperr.New(apperr.KindNotFound, "Proceso no encontrado"), consts.StatusNotFound},
		{"conflict", apperr.New(apperr.KindConflict, "duplicado"), consts.StatusConflict},
		{"gateway", apperr.New(apperr.KindGateway, "motor caído"), consts.StatusBadGateway},
		{"gateway timeout", apperr.New(apperr.KindGatewayTimeout, "tiempo agotado"), consts.StatusGatewayTimeout},
		{"unclassified", errors.New("boom"), consts.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestContext()
			writeError(c, tc.err)
			assert.Equal(t, tc.status, c.Response.StatusCode())
			assert.NotEmpty(t, decodeDetail(t, c))
		})
	}
}

func TestWriteErrorRecordNotFound(t *testing.T) {
	c := newTestContext()
	writeError(c, gorm.ErrRecordNotFound)
	assert.Equal(t, consts.StatusNotFound, c.Response.StatusCode())
	assert.Equal(t, "Recurso no encontrado", decodeDetail(t, c))
}

func TestWriteErrorUnauthorizedChallenge(t *testing.T) {
	c := newTestContext()
	writeError(c, apperr.New(apperr.KindUnauthorized, "Token inválido o expirado"))
	assert.Equal(t, "Bearer", c.Response.Header.Get("WWW-Authenticate"))
}

func TestUintParam(t *testing.T) {
	c := newTestContext()
	c.Params = append(c.Params, param.Param{Key: "id", Value: "42"})

	v, err := uintParam(c, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(42), v)

	c.Params[0].Value = "abc"
	_, err = uintParam(c, "id")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestOptionalQueryHelpers(t *testing.T) {
	c := newTestContext()
	c.QueryArgs().Add("job_id", "3")
	c.QueryArgs().Add("state", "true")
	c.QueryArgs().Add("min_match", "75.5")
	c.QueryArgs().Add("bad", "zzz")

	jobID, err := optionalUintQuery(c, "job_id")
	require.NoError(t, err)
	require.NotNil(t, jobID)
	assert.Equal(t, uint(3), *jobID)

	state, err := optionalBoolQuery(c, "state")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, *state)

	minMatch, err := optionalFloatQuery(c, "min_match")
	require.NoError(t, err)
	require.NotNil(t, minMatch)
	assert.InDelta(t, 75.5, *minMatch, 0.001)

	missing, err := optionalUintQuery(c, "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = optionalUintQuery(c, "bad")
	assert.Error(t, err)
	_, err = optionalBoolQuery(c, "bad")
	assert.Error(t, err)
	_, err = optionalFloatQuery(c, "bad")
	assert.Error(t, err)
}

func TestIntQueryDefault(t *testing.T) {
	c := newTestContext()
	c.QueryArgs().Add("limit", "50")
	c.QueryArgs().Add("negative", "-1")
	c.QueryArgs().Add("bad", "zzz")

	assert.Equal(t, 50, intQueryDefault(c, "limit", 20))
	assert.Equal(t, 20, intQueryDefault(c, "missing", 20))
	assert.Equal(t, 20, intQueryDefault(c, "negative", 20))
	assert.Equal(t, 20, intQueryDefault(c, "bad", 20))
}
