package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recruitflow-go/internal/api/handler"
	"recruitflow-go/internal/api/router"
	"recruitflow-go/internal/auth"
	"recruitflow-go/internal/config"
	"recruitflow-go/internal/engine"
	"recruitflow-go/internal/logger"
	"recruitflow-go/internal/process"
	"recruitflow-go/internal/storage"
	"recruitflow-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzerolog "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

var configFile string

func init() {
	pflag.StringVarP(&configFile, "config", "c", "internal/config/config.yaml", "path to the configuration file")
}

func main() {
	pflag.Parse()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logger.Fatal().Err(err).Str("config", configFile).Msg("failed to load configuration")
	}

	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	// Route Hertz's own logging through the same zerolog instance.
	glog.SetLogger(hertzzerolog.From(logger.Logger))

	ctx := context.Background()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing.OTLPEndpoint, cfg.Tracing.ServiceName, cfg.Tracing.SampleRatio)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown failed")
		}
	}()

	store, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("storage close failed")
		}
	}()

	tokens, err := auth.NewTokenManager(&cfg.Auth)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize token manager")
	}

	engineClient, err := engine.NewClient(&cfg.Engine)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize workflow engine client")
	}

	svc := process.NewService(store, engineClient, cfg)

	deps := &router.Deps{
		Auth:        handler.NewAuthHandler(store, tokens, cfg),
		Users:       handler.NewUserHandler(store),
		Catalog:     handler.NewCatalogHandler(store),
		Postulants:  handler.NewPostulantHandler(store),
		Process:     handler.NewProcessHandler(store, svc),
		Evaluations: handler.NewEvaluationHandler(store),
		Form:        handler.NewFormHandler(store, engineClient, cfg),
		AuthMW:      auth.Middleware(tokens, store.MySQL),
		AdminMW:     auth.RequireAdmin(),
	}

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		glog.CtxInfof(c, "%d | %v | %s %s",
			ctx.Response.StatusCode(), time.Since(start),
			string(ctx.Method()), string(ctx.Path()))
	})

	router.RegisterRoutes(h, cfg, deps)

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("server starting")
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("server run failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
