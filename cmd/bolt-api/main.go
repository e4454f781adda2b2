package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/bolt-api/internal/catalog"
	"github.com/dimitrije/bolt-api/internal/completion"
	"github.com/dimitrije/bolt-api/internal/config"
	"github.com/dimitrije/bolt-api/internal/database"
	"github.com/dimitrije/bolt-api/internal/events"
	"github.com/dimitrije/bolt-api/internal/handlers"
	"github.com/dimitrije/bolt-api/internal/logger"
	authmw "github.com/dimitrije/bolt-api/internal/middleware"
	"github.com/dimitrije/bolt-api/internal/services"
	"github.com/dimitrije/bolt-api/internal/sse"
	"github.com/dimitrije/bolt-api/internal/workflow"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	bus, err := newEventBus(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to start event bus", "error", err)
	}
	defer bus.Close()

	cat := catalog.Builtin()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	workspaceService := services.NewWorkspaceService(db, bus)
	templateService := services.NewTemplateService(db)

	seeded, err := templateService.Seed(ctx, catalog.BuiltinTemplates())
	if err != nil {
		log.Fatal("failed to seed project templates", "error", err)
	}
	log.Info("project templates seeded", "count", seeded)

	gateway := completion.NewGateway(completion.Config{
		APIKey:  cfg.OpenRouter.APIKey,
		BaseURL: cfg.OpenRouter.BaseURL,
		AppURL:  cfg.AppURL,
		Timeout: cfg.OpenRouter.Timeout,
	}, cat, log)
	if cfg.OpenRouter.APIKey == "" {
		log.Warn("OPENROUTER_API_KEY is not set; completion requests will fail")
	}

	controller := workflow.NewController(workspaceService, gateway, log, workflow.Options{
		Policy: cfg.ChatOverlapPolicy,
		Window: cfg.ContextWindowMessages,
	})

	hub := sse.NewHub()

	authHandler := handlers.NewAuthHandler(cfg, userService, tokenService, jwtService, log)
	userHandler := handlers.NewUserHandler(userService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService, templateService, controller, log)
	completionHandler := handlers.NewCompletionHandler(gateway, cat, log)
	templateHandler := handlers.NewTemplateHandler(templateService)
	sseHandler := handlers.NewSSEHandler(hub, workspaceService)
	healthHandler := handlers.NewHealthHandler(db.Pool)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.AppURL},
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())
	app.Use(authmw.RequestLogger(log))

	api := app.Group("/api/v1")

	api.Get("/health", healthHandler.Check)

	api.Get("/chat-completion", completionHandler.ChatModels)
	api.Post("/chat-completion", completionHandler.Chat)
	api.Post("/code-completion", completionHandler.Code)
	api.Get("/models", completionHandler.ListModels)

	api.Get("/templates", templateHandler.Search)
	api.Get("/templates/:slug", templateHandler.Get)

	auth := api.Group("/auth")
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)
	protected.Get("/users/me", userHandler.GetMe)

	protected.Get("/workspaces", workspaceHandler.List)
	protected.Post("/workspaces", workspaceHandler.Create)
	protected.Get("/workspaces/:workspaceId", workspaceHandler.Get)
	protected.Delete("/workspaces/:workspaceId", workspaceHandler.Delete)
	protected.Patch("/workspaces/:workspaceId/messages", workspaceHandler.ReplaceMessages)
	protected.Patch("/workspaces/:workspaceId/files", workspaceHandler.ReplaceFiles)
	protected.Post("/workspaces/:workspaceId/messages", workspaceHandler.SendMessage)
	protected.Post("/workspaces/:workspaceId/reply", workspaceHandler.Reply)
	protected.Post("/workspaces/:workspaceId/generate", workspaceHandler.Generate)
	protected.Get("/workspaces/:workspaceId/export", workspaceHandler.Export)
	protected.Get("/workspaces/:workspaceId/events", sseHandler.Connect)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return bus.StartForwarder(gctx, hub.Deliver)
	})

	g.Go(func() error {
		authHandler.RunCleanup(gctx)
		return nil
	})

	g.Go(func() error {
		runTokenCleanup(gctx, tokenService, log)
		return nil
	})

	g.Go(func() error {
		controller.RunCleanup(gctx, time.Minute)
		return nil
	})

	g.Go(func() error {
		log.Info("server starting", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return
	}
	log.Info("server stopped")
}

func newEventBus(ctx context.Context, cfg *config.Config, log *logger.Logger) (events.Bus, error) {
	if cfg.Redis.Addr == "" {
		return events.NewLocalBus(), nil
	}
	return events.NewRedisBus(ctx, log, cfg.Redis.Addr, cfg.Redis.Channel)
}

func runTokenCleanup(ctx context.Context, tokens *services.TokenService, log *logger.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tokens.CleanupExpired(ctx)
			if err != nil {
				log.Warn("refresh token cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("expired refresh tokens removed", "count", n)
			}
		}
	}
}
