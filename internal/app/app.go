package app

import (
	"context"

	"github.com/ewhitmore/inkfeed/internal/cache"
	"github.com/ewhitmore/inkfeed/internal/config"
	"github.com/ewhitmore/inkfeed/internal/contentapi"
	"github.com/ewhitmore/inkfeed/internal/enrich"
	"github.com/ewhitmore/inkfeed/internal/httpapi"
	"github.com/ewhitmore/inkfeed/internal/logging"
	"github.com/ewhitmore/inkfeed/internal/media"
	"github.com/ewhitmore/inkfeed/internal/post"
	"github.com/ewhitmore/inkfeed/internal/ratelimit"
	"github.com/ewhitmore/inkfeed/internal/resolve"
)

// App holds all application dependencies
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Cache      cache.Cache
	Content    contentapi.Client
	Enricher   *enrich.Service
	PostSvc    *post.Service
	HTTPServer *httpapi.Server
}

// New creates and initializes a new App instance
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	// Initialize logger
	app.Logger = app.initLogger()

	// Initialize cache
	app.Cache = app.initCache()

	// Initialize content platform client
	limiter := ratelimit.New(cfg.ContentAPI.RateLimitDur)
	content, err := contentapi.NewHTTPClient(contentapi.HTTPConfig{
		BaseURL:   cfg.ContentAPI.BaseURL,
		APIKey:    cfg.ContentAPI.APIKey,
		SiteID:    cfg.ContentAPI.SiteID,
		Timeout:   cfg.ContentAPI.Timeout,
		UserAgent: cfg.ContentAPI.UserAgent,
	}, limiter, app.Cache)
	if err != nil {
		return nil, err
	}
	app.Content = content

	// Initialize resolution and enrichment pipeline
	resolver := resolve.NewService(app.Content, app.Logger)
	app.Enricher = enrich.NewService(resolver, media.NewURLResolver(""), app.Logger)

	// Initialize post service
	app.PostSvc = post.NewService(app.Content, app.Enricher, app.Logger)

	// Initialize HTTP server
	app.HTTPServer = httpapi.New(app.Content, app.Enricher, app.PostSvc,
		cfg.Feed.DefaultPageSize, cfg.Feed.MaxPageSize, app.Logger)

	return app, nil
}

// Run starts the HTTP server
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("Starting HTTP server", logging.WithField("addr", a.Config.Server.HTTPAddr))
	return a.HTTPServer.Start(a.Config.Server.HTTPAddr)
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", logging.WithField("error", err.Error()))
		}
	}
	return nil
}

func (a *App) initLogger() *logging.Logger {
	level := logging.LevelInfo
	switch a.Config.Logging.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	return logging.New(level)
}

func (a *App) initCache() cache.Cache {
	switch a.Config.Cache.Backend {
	case "redis":
		a.Logger.Info("Using Redis cache backend", logging.WithField("addr", a.Config.Cache.RedisAddr))
		redisCache, err := cache.NewRedis(cache.RedisConfig{
			Addr: a.Config.Cache.RedisAddr,
		}, a.Config.Cache.TTL)
		if err != nil {
			a.Logger.Error("Failed to connect to Redis, falling back to memory cache", logging.WithField("error", err.Error()))
			return cache.NewMemory(a.Config.Cache.TTL)
		}
		return redisCache
	default:
		a.Logger.Info("Using in-memory cache backend")
		return cache.NewMemory(a.Config.Cache.TTL)
	}
}
