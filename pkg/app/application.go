package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/zubairashfaque/FuturNod-Agents/internal/agentapi"
	"github.com/zubairashfaque/FuturNod-Agents/internal/backoff"
	"github.com/zubairashfaque/FuturNod-Agents/internal/metrics"
	"github.com/zubairashfaque/FuturNod-Agents/internal/middleware"
	"github.com/zubairashfaque/FuturNod-Agents/internal/normalizer"
	"github.com/zubairashfaque/FuturNod-Agents/internal/poller"
	"github.com/zubairashfaque/FuturNod-Agents/internal/providers"
	"github.com/zubairashfaque/FuturNod-Agents/internal/ratelimit"
	"github.com/zubairashfaque/FuturNod-Agents/internal/services"
	"github.com/zubairashfaque/FuturNod-Agents/internal/tracing"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/auth"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/config"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/history"
	_ "github.com/zubairashfaque/FuturNod-Agents/pkg/history/memory"
	historyredis "github.com/zubairashfaque/FuturNod-Agents/pkg/history/redis"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type Application struct {
	Config      *config.Config
	Engine      *gin.Engine
	Logger      *slog.Logger
	AgentAPI    *agentapi.Client
	Poller      *poller.Poller
	History     history.Sink
	Recorder    services.HistoryRecorder
	Sessions    *services.SessionRegistry
	Validator   auth.Validator
	RateLimiter ratelimit.Limiter
	Reports     providers.ReportWriter

	TracingShutdown tracing.ShutdownFunc

	logOutput  io.Writer
	httpClient *http.Client
	pollerOpts []poller.Option
	rdb        *redis.Client
	ownsRedis  bool
	stopLoops  context.CancelFunc
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithValidator sets a custom identity validator
func WithValidator(validator auth.Validator) ApplicationOption {
	return func(app *Application) error {
		app.Validator = validator
		return nil
	}
}

// WithHistorySink replaces the sink built from history.provider
func WithHistorySink(sink history.Sink) ApplicationOption {
	return func(app *Application) error {
		app.History = sink
		return nil
	}
}

// WithHTTPClient sets the client used to reach the agent API
func WithHTTPClient(c *http.Client) ApplicationOption {
	return func(app *Application) error {
		app.httpClient = c
		return nil
	}
}

func WithPollerOptions(opts ...poller.Option) ApplicationOption {
	return func(app *Application) error {
		app.pollerOpts = append(app.pollerOpts, opts...)
		return nil
	}
}

func WithLogOutput(w io.Writer) ApplicationOption {
	return func(app *Application) error {
		app.logOutput = w
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	app := &Application{Config: cfg, logOutput: os.Stdout}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	logger := NewLogger(cfg, app.logOutput)
	slog.SetDefault(logger)
	app.Logger = logger

	shutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
		SampleRatio:  cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		return nil, err
	}
	app.TracingShutdown = shutdown

	if app.Validator == nil && cfg.Auth.Provider != "" {
		raw, err := json.Marshal(cfg.Auth.Config)
		if err != nil {
			return nil, fmt.Errorf("auth config: %w", err)
		}
		validator, err := auth.NewValidator(auth.ProviderConfig{Type: cfg.Auth.Provider, Config: raw})
		if err != nil {
			return nil, err
		}
		app.Validator = validator
	}

	if app.History == nil {
		sink, err := newHistorySink(cfg)
		if err != nil {
			return nil, err
		}
		app.History = sink
	}
	if p, ok := app.History.(*historyredis.Plugin); ok {
		app.rdb = p.Client()
		metrics.RegisterHistoryCollector(app.rdb, cfg.History.KeyPrefix, logger)
	}

	app.RateLimiter = ratelimit.Unlimited{}
	if cfg.RateLimit.SubmitPerMinute > 0 {
		if app.rdb == nil {
			app.rdb = providers.NewRedisProvider(cfg.History.RedisAddr, cfg.History.RedisPassword, cfg.History.RedisDB)
			app.ownsRedis = true
		}
		app.RateLimiter = ratelimit.NewRedisLimiter(app.rdb, cfg.History.KeyPrefix)
	}

	app.AgentAPI = agentapi.New(agentapi.Options{
		BaseURL:            cfg.AgentAPI.BaseURL,
		APIKey:             cfg.AgentAPI.APIKey,
		Timeout:            time.Duration(cfg.AgentAPI.TimeoutSeconds) * time.Second,
		InsecureSkipVerify: cfg.AgentAPI.InsecureSkipVerify,
		Logger:             logger,
		HTTPClient:         app.httpClient,
	})
	policy := backoff.New(cfg.Polling.Policy,
		time.Duration(cfg.Polling.IntervalSeconds)*time.Second,
		time.Duration(cfg.Polling.MaxIntervalSeconds)*time.Second,
		nil)
	app.Poller = poller.New(app.AgentAPI,
		normalizer.New(normalizer.Options{Synthesize: cfg.Extraction.Synthesize()}, logger),
		poller.Config{MaxAttempts: cfg.Polling.MaxAttempts, Policy: policy},
		logger, app.pollerOpts...)
	app.Recorder = services.NewHistoryRecorder(app.History, cfg.History.Provider, logger, cfg.History.MaxAttempts)
	app.Reports = providers.NewLocalReportWriter(cfg.ReportsDir)

	root, cancel := context.WithCancel(context.Background())
	app.stopLoops = cancel
	sessions, err := services.NewSessionRegistry(cfg.Sessions.MaxSessions, func(userID string) *services.Facade {
		return services.NewFacade(root, app.AgentAPI, app.Poller, app.Recorder, services.FacadeOptions{
			UserID:       userID,
			SingleFlight: cfg.SingleFlight,
			Logger:       logger,
			Store:        app.History,
		})
	}, logger)
	if err != nil {
		cancel()
		return nil, err
	}
	app.Sessions = sessions

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestIDMiddleware(), middleware.TracingMiddleware(cfg.Tracing.ServiceName), middleware.LoggerMiddleware(logger))
	app.Engine = engine

	logger.Info("application ready",
		"agent_api", cfg.AgentAPI.BaseURL,
		"history", cfg.History.Provider,
		"auth", cfg.Auth.Provider,
		"poll_policy", policy.Name(),
		"rate_limit", cfg.RateLimit.SubmitPerMinute > 0)
	return app, nil
}

// Close stops poll loops, drains pending history writes and flushes traces.
func (app *Application) Close(ctx context.Context) error {
	if app.stopLoops != nil {
		app.stopLoops()
	}
	if app.Recorder != nil {
		app.Recorder.Wait()
	}
	var errs []string
	if app.History != nil {
		if err := app.History.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if app.ownsRedis && app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if app.TracingShutdown != nil {
		if err := app.TracingShutdown(ctx); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close: %s", strings.Join(errs, "; "))
	}
	return nil
}

// NewLogger builds the process logger from logLevel and logFormat.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := new(slog.LevelVar)
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler).With("service", cfg.Tracing.ServiceName, "env", cfg.Env)
}

func newHistorySink(cfg *config.Config) (history.Sink, error) {
	var raw json.RawMessage
	if cfg.History.Provider == "redis" {
		b, err := json.Marshal(historyredis.Config{
			Addr:     cfg.History.RedisAddr,
			Password: cfg.History.RedisPassword,
			DB:       cfg.History.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return history.New(history.ProviderConfig{Type: cfg.History.Provider, Config: raw},
		history.PluginConfig{KeyPrefix: cfg.History.KeyPrefix})
}
