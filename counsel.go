package counsel

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"

	"github.com/bufetemejia/counsel/internal/config"
	"github.com/bufetemejia/counsel/internal/logging"
	"github.com/bufetemejia/counsel/pkg/adapters/meili"
	"github.com/bufetemejia/counsel/pkg/adapters/memory"
	"github.com/bufetemejia/counsel/pkg/adapters/openai"
	redisadapter "github.com/bufetemejia/counsel/pkg/adapters/redis"
	"github.com/bufetemejia/counsel/pkg/observability"
	"github.com/bufetemejia/counsel/pkg/orchestrator"
	"github.com/bufetemejia/counsel/pkg/ports"
	"github.com/bufetemejia/counsel/pkg/session"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// App is the assembled service: the orchestrator plus the adapters behind
// it, exposed so commands can reach the pieces they serve.
type App struct {
	Orchestrator *orchestrator.Orchestrator
	Runtime      ports.AgentRuntime
	Provisioner  ports.AssistantProvisioner
	Retriever    ports.Retriever
	Store        ports.ConversationStore
	Watcher      ports.WatchableStore
	Registry     *prometheus.Registry
	Logger       *slog.Logger

	redisClient *backend.Client
}

// Option configures the App.
type Option func(*app)

type app struct {
	logger    *slog.Logger
	runtime   ports.AgentRuntime
	retriever ports.Retriever
}

// WithLogger sets the application logger. Defaults to one built from the
// logging section of the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(a *app) {
		a.logger = logger
	}
}

// WithRuntime substitutes the reasoning runtime, bypassing the OpenAI
// client. Intended for tests.
func WithRuntime(rt ports.AgentRuntime) Option {
	return func(a *app) {
		a.runtime = rt
	}
}

// WithRetriever substitutes the retrieval backend, bypassing Meilisearch.
// Intended for tests.
func WithRetriever(r ports.Retriever) Option {
	return func(a *app) {
		a.retriever = r
	}
}

// New assembles the service from configuration.
func New(cfg config.Config, opts ...Option) *App {
	var overrides app
	for _, opt := range opts {
		opt(&overrides)
	}

	logger := overrides.logger
	if logger == nil {
		level := logging.ParseLevel(cfg.Logging.Level)
		if cfg.Logging.Format == "json" {
			logger = logging.NewJSON(level)
		} else {
			logger = logging.New(level)
		}
	}

	application := &App{
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	if overrides.runtime != nil {
		application.Runtime = overrides.runtime
		application.Provisioner, _ = overrides.runtime.(ports.AssistantProvisioner)
	} else {
		rt := openai.NewRuntime(cfg.Runtime.APIKey, cfg.Runtime.AssistantID,
			openai.WithModel(cfg.Runtime.Model),
		)
		application.Runtime = rt
		application.Provisioner = rt
	}

	if overrides.retriever != nil {
		application.Retriever = overrides.retriever
	} else {
		application.Retriever = meili.NewClient(cfg.Retrieval.Host, cfg.Retrieval.APIKey, cfg.Retrieval.Scopes,
			meili.WithEmbedder(cfg.Retrieval.Embedder),
			meili.WithLogger(logger),
		)
	}

	guardOpts := []session.Option{session.WithLogger(logger)}

	switch cfg.Store.Backend {
	case "redis":
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		store := redisadapter.NewStore(client)
		application.redisClient = client
		application.Store = store
		application.Watcher = store
		guardOpts = append(guardOpts, session.WithLocker(redisadapter.NewLocker(client, "")))
	default:
		store := memory.NewStore()
		application.Store = store
		application.Watcher = store
	}

	metrics := observability.NewMetrics(application.Registry)

	application.Orchestrator = orchestrator.New(application.Runtime, application.Store, application.Retriever,
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(metrics),
		orchestrator.WithGuard(session.NewGuard(guardOpts...)),
		orchestrator.WithController(orchestrator.NewController(application.Runtime,
			orchestrator.WithPollInterval(cfg.Runtime.PollInterval.Std()),
			orchestrator.WithPollTimeout(cfg.Runtime.PollTimeout.Std()),
			orchestrator.WithControllerLogger(logger),
			orchestrator.WithControllerMetrics(metrics),
		)),
	)

	return application
}

// Close releases backend connections.
func (a *App) Close() error {
	if a.redisClient != nil {
		return a.redisClient.Close()
	}
	return nil
}
