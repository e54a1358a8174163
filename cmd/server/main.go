package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/soundwave-agency/agency-server/internal/config"
	"github.com/soundwave-agency/agency-server/internal/database"
	"github.com/soundwave-agency/agency-server/internal/handler"
	"github.com/soundwave-agency/agency-server/internal/middleware"
	"github.com/soundwave-agency/agency-server/internal/model"
	"github.com/soundwave-agency/agency-server/internal/redis"
	"github.com/soundwave-agency/agency-server/internal/repository"
	"github.com/soundwave-agency/agency-server/internal/service"
	"github.com/soundwave-agency/agency-server/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	avatars, err := storage.NewAvatarStore(cfg.UploadsDir, cfg.AvatarMaxBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare avatar storage")
	}

	accountRepo := repository.NewAccountRepository(db.DB)
	clientRepo := repository.NewClientRepository(db.DB)
	assocRepo := repository.NewAssociationRepository(db.DB)
	catalogRepo := repository.NewCatalogRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(redisClient.Client)

	authService := service.NewAuthService(accountRepo, sessionRepo, cfg.SessionSecret, cfg.SessionTTL)
	clientService := service.NewClientService(db, clientRepo, accountRepo, assocRepo, catalogRepo, cfg.DefaultManagerID)
	profileService := service.NewProfileService(clientService, clientRepo, accountRepo, avatars, authService)
	rateLimiter := service.NewRateLimiter(redisClient.Client)

	isProduction := cfg.IsProduction()
	sessionMiddleware := middleware.NewSessionMiddleware(authService)
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction, cfg.SessionTTL)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(config.DefaultBodyLimit)
	avatarBodyLimit := middleware.NewBodyLimitMiddleware(cfg.AvatarMaxBytes + config.MultipartOverhead)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	loginLimits := map[model.Role]func(http.Handler) http.Handler{}
	for _, scope := range []model.Role{model.RoleManager, model.RoleClient} {
		loginLimits[scope] = middleware.NewLoginRateLimitMiddleware(rateLimiter, scope, cfg.LoginRateLimit, config.LoginRateWindow).Handler
	}

	authHandler := handler.NewAuthHandler(authService, loginLimits, isProduction)
	clientsHandler := handler.NewClientsHandler(clientService)
	profileHandler := handler.NewProfileHandler(profileService)
	dashboardHandler := handler.NewDashboardHandler(clientService)
	redisPing := handler.PingFunc(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"database": db,
		"redis":    redisPing,
	}, config.DBPingTimeout)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	mountAvatars(r, avatars.Dir(), securityHeadersMiddleware.Handler)

	r.Group(func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(sessionMiddleware.Handler)
		r.Use(csrfMiddleware.Handler)

		r.Get("/", handler.Home)

		r.With(bodyLimitMiddleware.Handler).Mount("/auth", authHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleManager))
			r.Use(bodyLimitMiddleware.Handler)
			r.Get("/manager/dashboard", dashboardHandler.Manager)
			r.Mount("/app/clients", clientsHandler.Routes())
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleClient))
			r.Get("/client/dashboard", dashboardHandler.Client)
			r.Mount("/client/profile", profileHandler.Routes(bodyLimitMiddleware.Handler, avatarBodyLimit.Handler))
		})
	})

	r.NotFound(handler.NotFound)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerRequestTimeout + config.ServerReadTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.AppEnv).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// mountAvatars serves uploaded files behind the security headers.
func mountAvatars(r chi.Router, dir string, headers func(http.Handler) http.Handler) {
	r.With(headers).Handle("/uploads/avatars/*", handler.NewAvatarFileHandler(dir))
}

func setLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
