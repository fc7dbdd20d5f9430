package router

import (
	"context"
	"encoding/json"
	"testing"

	"recruitflow-go/internal/api/handler"
	"recruitflow-go/internal/config"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *server.Hertz {
	t.Helper()
	h := server.New(server.WithHostPorts("127.0.0.1:0"))

	passthrough := func(c context.Context, ctx *app.RequestContext) {
		ctx.Next(c)
	}
	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"http://localhost:5173"}

	RegisterRoutes(h, cfg, &Deps{
		Auth:        &handler.AuthHandler{},
		Users:       &handler.UserHandler{},
		Catalog:     &handler.CatalogHandler{},
		Postulants:  &handler.PostulantHandler{},
		Process:     &handler.ProcessHandler{},
		Evaluations: &handler.EvaluationHandler{},
		Form:        &handler.FormHandler{},
		AuthMW:      passthrough,
		AdminMW:     passthrough,
	})
	return h
}

func TestHealthRoute(t *testing.T) {
	h := testServer(t)

	resp := ut.PerformRequest(h.Engine, "GET", "/health", nil)
	require.Equal(t, consts.StatusOK, resp.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestUnknownRoute(t *testing.T) {
	h := testServer(t)

	resp := ut.PerformRequest(h.Engine, "GET", "/no-such-route", nil)
	assert.Equal(t, consts.StatusNotFound, resp.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := testServer(t)

	resp := ut.PerformRequest(h.Engine, "OPTIONS", "/login", nil,
		ut.Header{Key: "Origin", Value: "http://localhost:5173"},
		ut.Header{Key: "Access-Control-Request-Method", Value: "POST"},
	)
	assert.Equal(t, consts.StatusNoContent, resp.Code)
	assert.Equal(t, "http://localhost:5173",
		resp.Header().Get("Access-Control-Allow-Origin"))
}
