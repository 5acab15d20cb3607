// Package app wires configuration, storage, services and the HTTP server.
package app

import (
	"database/sql"
	"fmt"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-watchlist/internal/config"
	"github.com/iliyamo/movie-watchlist/internal/handler"
	"github.com/iliyamo/movie-watchlist/internal/middleware"
	"github.com/iliyamo/movie-watchlist/internal/queue"
	"github.com/iliyamo/movie-watchlist/internal/repository"
	"github.com/iliyamo/movie-watchlist/internal/router"
	"github.com/iliyamo/movie-watchlist/internal/service"
	"github.com/iliyamo/movie-watchlist/internal/view"
)

// Deps are the external resources the app runs on. Redis and Publisher
// are optional.
type Deps struct {
	Config    config.Config
	RateLimit config.RateLimitConfig
	DB        *sql.DB
	Logger    *zap.Logger
	Redis     *redis.Client
	Publisher service.ActivityPublisher
}

type App struct {
	Config config.Config
	DB     *sql.DB
	Logger *zap.Logger
	Redis  *redis.Client

	UserRepo    *repository.UserRepo
	SessionRepo *repository.SessionRepo
	MovieRepo   *repository.MovieRepo

	AuthService  *service.AuthService
	MovieService *service.MovieService

	Handler *handler.Handler
	Echo    *echo.Echo
}

func New(d Deps) (*App, error) {
	cfg := d.Config
	log := d.Logger

	userRepo := repository.NewUserRepo(d.DB)
	sessionRepo := repository.NewSessionRepo(d.DB)
	movieRepo := repository.NewMovieRepo(d.DB)

	pub := d.Publisher
	if pub == nil && cfg.ActivityEnabled {
		pub = queue.NewPublisher(cfg.AMQPURL, log.Named("activity"))
	}

	authService := service.NewAuthService(userRepo, sessionRepo, service.AuthConfig{
		Secret:     cfg.SessionSecret,
		SessionTTL: cfg.SessionTTL,
		BcryptCost: cfg.BcryptCost,
	}, log.Named("auth"))
	movieService := service.NewMovieService(movieRepo, pub, log.Named("movies"))

	renderer, err := view.New()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	h := handler.NewHandler(authService, movieService, log, cfg.CookieSecure)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = h.HTTPErrorHandler
	e.Use(
		middleware.AccessLog(log.Named("http")),
		echomw.Recover(),
		middleware.Session(authService, cfg.CookieSecure, log),
	)

	var limiter middleware.Limiter
	if d.Redis != nil {
		limiter = middleware.NewRedisLimiter(d.RateLimit, d.Redis)
	}
	router.RegisterRoutes(e, h, d.DB)
	router.RegisterAuth(e, h, middleware.RateLimit(d.RateLimit, limiter, log.Named("ratelimit")))
	router.RegisterMovies(e, h)

	return &App{
		Config:       cfg,
		DB:           d.DB,
		Logger:       log,
		Redis:        d.Redis,
		UserRepo:     userRepo,
		SessionRepo:  sessionRepo,
		MovieRepo:    movieRepo,
		AuthService:  authService,
		MovieService: movieService,
		Handler:      h,
		Echo:         e,
	}, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	return a.DB.Close()
}
