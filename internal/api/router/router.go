package router

import (
	"context"
	"fmt"
	"time"

	"recruitflow-go/internal/api/handler"
	"recruitflow-go/internal/config"
	"recruitflow-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/cors"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// recordHTTPErrors marks the request span as failed for responses of 400
// and above. The span itself is opened by the server tracing middleware.
func recordHTTPErrors() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		ctx.Next(c)

		status := ctx.Response.StatusCode()
		if status >= consts.StatusBadRequest {
			tracing.RecordHTTPError(oteltrace.SpanFromContext(c),
				fmt.Errorf("%s %s returned %d", ctx.Method(), ctx.Path(), status), status)
		}
	}
}

// Deps bundles everything the route table needs.
type Deps struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Catalog     *handler.CatalogHandler
	Postulants  *handler.PostulantHandler
	Process     *handler.ProcessHandler
	Evaluations *handler.EvaluationHandler
	Form        *handler.FormHandler

	// AuthMW authenticates; AdminMW additionally requires the admin role.
	AuthMW  app.HandlerFunc
	AdminMW app.HandlerFunc
}

// RegisterRoutes builds the full route table.
func RegisterRoutes(h *server.Hertz, cfg *config.Config, deps *Deps) {
	h.Use(recordHTTPErrors())
	h.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	// Public surface: login, token refresh and the intake form.
	h.POST("/login", deps.Auth.Login)
	h.POST("/refresh", deps.Auth.Refresh)
	h.POST("/logout", deps.Auth.Logout)

	form := h.Group("/form")
	form.POST("/apply", deps.Form.Apply)
	form.GET("/info/:process_code/:token", deps.Form.Info)

	// Account administration.
	h.POST("/registro", deps.AuthMW, deps.AdminMW, deps.Users.Register)

	usuarios := h.Group("/usuarios", deps.AuthMW, deps.AdminMW)
	usuarios.GET("/", deps.Users.List)
	usuarios.PUT("/:id/rol", deps.Users.ChangeRole)
	usuarios.PUT("/:id/editar", deps.Users.Rename)
	usuarios.PUT("/:id/activar", deps.Users.Enable)
	usuarios.PUT("/:id/desactivar", deps.Users.Disable)
	usuarios.PUT("/:id/password", deps.Users.ChangePassword)
	usuarios.GET("/:id/auditoria", deps.Users.Audit)

	// Reference data.
	areas := h.Group("/areas", deps.AuthMW)
	areas.POST("/", deps.Catalog.CreateArea)
	areas.GET("/", deps.Catalog.ListActiveAreas)
	areas.GET("/todos", deps.Catalog.ListAllAreas)
	areas.GET("/:id", deps.Catalog.GetArea)
	areas.PUT("/:id", deps.Catalog.UpdateArea)
	areas.PUT("/:id/estado", deps.Catalog.ToggleAreaState)

	puestos := h.Group("/puestos", deps.AuthMW)
	puestos.POST("/", deps.Catalog.CreateJob)
	puestos.GET("/", deps.Catalog.ListActiveJobs)
	puestos.GET("/todos", deps.Catalog.ListAllJobs)
	puestos.GET("/:id", deps.Catalog.GetJob)
	puestos.PUT("/:id", deps.Catalog.UpdateJob)
	puestos.PUT("/:id/activar", deps.Catalog.EnableJob)
	puestos.PUT("/:id/desactivar", deps.Catalog.DisableJob)

	// Candidate registry.
	postulantes := h.Group("/postulantes", deps.AuthMW)
	postulantes.GET("/", deps.Postulants.List)
	postulantes.GET("/:dni/historial", deps.Postulants.History)

	// Charge-process lifecycle.
	procesos := h.Group("/procesos", deps.AuthMW)
	procesos.POST("/crear-proceso-carga/", deps.Process.Create)
	procesos.GET("/listar", deps.Process.List)
	procesos.GET("/:id", deps.Process.Detail)
	procesos.PUT("/:id/activar", deps.Process.Activate)
	procesos.PUT("/:id/desactivar", deps.Process.Deactivate)
	procesos.POST("/:id/procesar-cvs", deps.Process.Ingest)
	procesos.GET("/:id/evaluaciones", deps.Process.Evaluations)
	procesos.POST("/:id/finalizar", deps.Process.Finalize)
	procesos.POST("/:id/reactivar", deps.Process.Reactivate)
	procesos.PUT("/evaluaciones/:eval_id", deps.Process.UpdateBlend)

	// Cross-process reporting.
	evaluaciones := h.Group("/evaluaciones", deps.AuthMW)
	evaluaciones.GET("/historial", deps.Evaluations.History)
	evaluaciones.PATCH("/actualizar-match", deps.Evaluations.CorrectMatch)
}
