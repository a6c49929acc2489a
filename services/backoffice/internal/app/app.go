package app

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
	aqmevents "github.com/aquamarinepk/aqm/events"
	"github.com/aquamarinepk/aqm/fileserver"
	"github.com/aquamarinepk/aqm/middleware"
	aqmtemplate "github.com/aquamarinepk/aqm/template"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/appetiteclub/backoffice/pkg"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/backoffice"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/query"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/remote"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/roster"
)

const (
	AppName    = "backoffice"
	AppVersion = "0.1.0"
)

// App wires the back-office service.
type App struct {
	config *aqm.Config
	logger aqm.Logger
	assets embed.FS
	micro  *aqm.Micro
}

func New(config *aqm.Config, logger aqm.Logger, assets embed.FS) (*App, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &App{config: config, logger: logger, assets: assets}, nil
}

// Initialize builds every component and the micro service around them.
func (a *App) Initialize(ctx context.Context) error {
	client, err := remote.NewClient(a.config, a.logger)
	if err != nil {
		return err
	}

	ttl, err := durationOrDefault(a.config, "query.ttl", query.DefaultTTL)
	if err != nil {
		return err
	}
	cache := query.NewCache(ttl, a.logger)

	loc, err := loadLocation(a.config.GetStringOrDef("roster.timezone", ""))
	if err != nil {
		return err
	}
	reconciler := roster.NewReconciler(loc)

	source := fmt.Sprintf("%s-%s", AppName, uuid.NewString()[:8])

	var publisher aqmevents.Publisher
	var commandLog aqmevents.Publisher
	var lifecycles []interface{}

	natsURL, _ := a.config.GetString("nats.url")
	if natsURL != "" {
		natsPublisher, err := pkg.NewNATSPublisher(natsURL)
		if err != nil {
			return err
		}
		natsSubscriber, err := pkg.NewNATSSubscriber(natsURL)
		if err != nil {
			natsPublisher.Close()
			return err
		}
		natsSubscriber.OnError = func(topic string, err error) {
			a.logger.Error("event handler failed", "topic", topic, "error", err)
		}
		publisher = natsPublisher
		invalidations := query.NewInvalidationSubscriber(natsSubscriber, cache, source, a.logger)
		orderItems := query.NewOrderItemSubscriber(natsSubscriber, cache, a.logger)

		lifecycles = append(lifecycles, invalidations, orderItems,
			aqm.LifecycleHooks{
				OnStop: func(context.Context) error { return natsSubscriber.Close() },
			},
			aqm.LifecycleHooks{
				OnStop: func(context.Context) error { return natsPublisher.Close() },
			},
		)
		a.logger.Info("NATS enabled", "url", natsURL, "source", source)

		if isEnabled(a.config.GetStringOrDef("nats.stream.enabled", "false")) {
			cmdLog, err := newCommandLog(a.config, natsURL)
			if err != nil {
				natsSubscriber.Close()
				natsPublisher.Close()
				return err
			}
			commandLog = cmdLog
			lifecycles = append(lifecycles, aqm.LifecycleHooks{
				OnStop: func(context.Context) error { return cmdLog.Close() },
			})
			a.logger.Info("command outcomes retained in JetStream")
		}
	} else {
		a.logger.Info("nats.url not configured, cache invalidation stays local")
	}

	tmplMgr := aqmtemplate.NewManager(a.assets, aqmtemplate.WithLogger(a.logger))
	fileServer := fileserver.New(a.assets, fileserver.WithLogger(a.logger))

	handler := backoffice.NewHandler(backoffice.HandlerDeps{
		Client:      client,
		Cache:       cache,
		Invalidator: query.NewBroadcaster(cache, publisher, source, a.logger),
		Publisher:   publisher,
		CommandLog:  commandLog,
		Templates:   tmplMgr,
		Reconciler:  reconciler,
		Source:      source,
	}, a.config, a.logger)

	lifecycles = append([]interface{}{tmplMgr}, lifecycles...)
	lifecycles = append(lifecycles, aqm.LifecycleHooks{
		OnStop: handler.Shutdown,
	})

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: a.logger,
	})
	stack = append(stack, chimw.NoCache)

	options := []aqm.Option{
		aqm.WithConfig(a.config),
		aqm.WithLogger(a.logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", fileServer, handler),
		aqm.WithLifecycle(lifecycles...),
		aqm.WithHealthChecks(AppName),
	}

	a.micro = aqm.NewMicro(options...)
	return nil
}

func (a *App) Run(ctx context.Context) error {
	if a.micro == nil {
		return fmt.Errorf("app not initialized")
	}
	a.logger.Infof("Starting %s(%s)", AppName, AppVersion)
	if err := a.micro.Run(ctx); err != nil {
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}

func durationOrDefault(config *aqm.Config, key string, def time.Duration) (time.Duration, error) {
	raw, _ := config.GetString(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func newCommandLog(config *aqm.Config, natsURL string) (*pkg.NATSCommandLog, error) {
	maxAge, err := durationOrDefault(config, "nats.stream.max_age", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	return pkg.NewNATSCommandLog(pkg.CommandLogConfig{
		URL:        natsURL,
		StreamName: config.GetStringOrDef("nats.stream.name", "BACKOFFICE_COMMANDS"),
		MaxAge:     maxAge,
	})
}

func isEnabled(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// loadLocation resolves roster.timezone. Empty means the host location.
func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid roster.timezone %q: %w", name, err)
	}
	return loc, nil
}
