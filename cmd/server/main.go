package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emberquest/api/internal/config"
	"github.com/emberquest/api/internal/database"
	"github.com/emberquest/api/internal/handler"
	"github.com/emberquest/api/internal/middleware"
	"github.com/emberquest/api/internal/repository"
	"github.com/emberquest/api/internal/service"
	"github.com/emberquest/api/pkg/jwt"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})
	if err := db.Connect(context.Background()); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	tokens, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		return fmt.Errorf("initialize JWT service: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)

	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo: userRepo,
		Tokens:   tokens,
	})
	groupService := service.NewGroupService(service.GroupServiceConfig{
		GroupRepo: groupRepo,
		UserRepo:  userRepo,
		Logger:    logger,
	})
	chatService := service.NewChatService(service.ChatServiceConfig{
		GroupRepo: groupRepo,
		UserRepo:  userRepo,
		Logger:    logger,
	})
	hallService := service.NewHallService(service.HallServiceConfig{
		UserRepo: userRepo,
		Logger:   logger,
	})

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   100,
		Window: time.Minute,
		Burst:  20,
	})
	defer limiter.Stop()

	// Replay store so clients can retry mutations like guild creation
	// without double-charging gems.
	replays := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL:     24 * time.Hour,
		Cleanup: time.Hour,
	})
	defer replays.Stop()

	mux := buildRoutes(cfg, authService, groupService, chatService, hallService)

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: middleware.Chain(
			mux,
			middleware.RequestID,
			middleware.Logger,
			middleware.Recovery,
			middleware.Metrics,
			middleware.CORS(cfg.Server.AllowedOrigins),
			middleware.RateLimit(limiter),
			middleware.Idempotency(replays),
			middleware.Compress,
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("server exited")
	return nil
}

func buildRoutes(
	cfg *config.Config,
	authService *service.AuthService,
	groupService *service.GroupService,
	chatService *service.ChatService,
	hallService *service.HallService,
) *http.ServeMux {
	authHandler := handler.NewAuthHandler(authService)
	groupHandler := handler.NewGroupHandler(groupService)
	chatHandler := handler.NewChatHandler(chatService)
	hallHandler := handler.NewHallHandler(hallService)

	authed := middleware.Auth(authService)
	admin := middleware.AdminAuth(authService)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health)
	if cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", middleware.MetricsHandler())
	}

	mux.HandleFunc("POST /v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", authHandler.Login)
	mux.Handle("GET /v1/auth/me", authed(http.HandlerFunc(authHandler.Me)))

	mux.Handle("GET /v1/groups", authed(http.HandlerFunc(groupHandler.List)))
	mux.Handle("POST /v1/groups", authed(http.HandlerFunc(groupHandler.Create)))
	mux.Handle("GET /v1/groups/{groupId}", authed(http.HandlerFunc(groupHandler.Get)))
	mux.Handle("PATCH /v1/groups/{groupId}", authed(http.HandlerFunc(groupHandler.Update)))
	mux.Handle("POST /v1/groups/{groupId}/join", authed(http.HandlerFunc(groupHandler.Join)))
	mux.Handle("POST /v1/groups/{groupId}/leave", authed(http.HandlerFunc(groupHandler.Leave)))
	mux.Handle("POST /v1/groups/{groupId}/invite", authed(http.HandlerFunc(groupHandler.Invite)))
	mux.Handle("DELETE /v1/groups/{groupId}/members/{memberId}", authed(http.HandlerFunc(groupHandler.RemoveMember)))

	mux.Handle("GET /v1/groups/{groupId}/chat", authed(http.HandlerFunc(chatHandler.Get)))
	mux.Handle("POST /v1/groups/{groupId}/chat", authed(http.HandlerFunc(chatHandler.Post)))
	mux.Handle("DELETE /v1/groups/{groupId}/chat/{messageId}", authed(http.HandlerFunc(chatHandler.Delete)))
	mux.Handle("POST /v1/groups/{groupId}/chat/seen", authed(http.HandlerFunc(chatHandler.MarkSeen)))

	// Hall listings are public; individual hero records are admin-only.
	mux.HandleFunc("GET /v1/hall/patrons", hallHandler.GetPatrons)
	mux.HandleFunc("GET /v1/hall/heroes", hallHandler.GetHeroes)
	mux.Handle("GET /v1/hall/heroes/{heroId}", admin(http.HandlerFunc(hallHandler.GetHero)))
	mux.Handle("PATCH /v1/hall/heroes/{heroId}", admin(http.HandlerFunc(hallHandler.UpdateHero)))

	return mux
}
