package cli

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/flux/internal/config"
	"github.com/aretw0/flux/pkg/adapters/file"
	"github.com/aretw0/flux/pkg/adapters/memory"
	"github.com/aretw0/flux/pkg/adapters/redis"
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/middleware"
	persistence "github.com/aretw0/flux/pkg/persistence/middleware"
	"github.com/aretw0/flux/pkg/ports"
	"github.com/aretw0/flux/pkg/reducer"
	"github.com/aretw0/flux/pkg/registry"
	"github.com/aretw0/flux/pkg/session"
	"github.com/aretw0/flux/pkg/slices/auth"
	"github.com/aretw0/flux/pkg/slices/blog"
	"github.com/aretw0/flux/pkg/slices/burger"
	"github.com/aretw0/flux/pkg/slices/counter"
	"github.com/aretw0/flux/pkg/slices/persons"
	"github.com/aretw0/flux/pkg/slices/results"
)

// RootReducer combines every feature slice shipped with flux.
func RootReducer() *reducer.Root {
	return reducer.Combine(
		counter.Slice(),
		results.Slice(),
		burger.Slice(),
		persons.Slice(),
		blog.Slice(),
		auth.Slice(),
	)
}

// ActionTypes lists the action types handled by RootReducer.
func ActionTypes() []string {
	types := []domain.ActionType{
		domain.ActionIncrement, domain.ActionDecrement, domain.ActionAdd, domain.ActionSubtract,
		domain.ActionStoreResult, domain.ActionDeleteResult,
		burger.ActionAddIngredient, burger.ActionRemoveIngredient,
		burger.ActionPurchaseStart, burger.ActionPurchaseCancel, burger.ActionPurchaseContinue,
		persons.ActionToggle, persons.ActionDelete, persons.ActionChangeName,
		blog.ActionFetchSuccess, blog.ActionFetchFail, blog.ActionSelectPost, blog.ActionPostLoaded,
		auth.ActionLogin, auth.ActionLogout,
	}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// SamplePosts backs the blog effects in the CLI.
func SamplePosts() *blog.StaticSource {
	return blog.NewStaticSource(
		blog.Post{ID: 1, UserID: 1, Title: "Unidirectional data flow", Body: "Actions go in, state comes out."},
		blog.Post{ID: 2, UserID: 1, Title: "Reducers are pure", Body: "Same state and action, same result."},
		blog.Post{ID: 3, UserID: 2, Title: "Middleware", Body: "Wrap dispatch to log, persist or run thunks."},
		blog.Post{ID: 4, UserID: 2, Title: "Subscribers", Body: "Notified after every completed dispatch."},
		blog.Post{ID: 5, UserID: 3, Title: "Code splitting", Body: "ReplaceReducer adds slices at runtime."},
	)
}

// Stack is the wiring shared by every command: snapshot store, locker,
// effect registry, metrics and the session manager on top.
type Stack struct {
	Config   config.Config
	Logger   *slog.Logger
	Store    ports.SnapshotStore
	Locker   ports.DistributedLocker
	Registry *registry.Registry
	Metrics  *prometheus.Registry
	Manager  *session.Manager

	closeFn func() error
}

// StackOptions tweak NewStack per command.
type StackOptions struct {
	Debug bool
	// LogDispatches adds the logging middleware to every session.
	LogDispatches bool
	// Logger overrides the logger built from the config.
	Logger *slog.Logger
}

// NewStack wires everything from cfg.
func NewStack(cfg config.Config, opts StackOptions) (*Stack, error) {
	logger := opts.Logger
	if logger == nil {
		logger = cfg.Logger(opts.Debug)
	}

	store, locker, closeFn, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector())

	reg := registry.NewDefault(registry.Config{
		EffectDelay: cfg.EffectDelay,
		Posts:       SamplePosts(),
		Logger:      logger,
	})

	known := append(ActionTypes(), reg.Names()...)
	mws := []domain.Middleware{middleware.NewMetrics(metrics, middleware.WithKnownTypes(known...)).Middleware()}
	if opts.LogDispatches {
		mws = append([]domain.Middleware{middleware.Logger(logger)}, mws...)
	}

	sessOpts := []session.Option{
		session.WithLogger(logger),
		session.WithRegistry(reg),
		session.WithMiddleware(mws...),
		session.WithHistoryLimit(cfg.HistoryLimit),
		session.WithLockTTL(cfg.LockTTL),
	}
	if locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(locker))
	}

	return &Stack{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Locker:   locker,
		Registry: reg,
		Metrics:  metrics,
		Manager:  session.NewManager(store, RootReducer(), sessOpts...),
		closeFn:  closeFn,
	}, nil
}

// Close releases backend connections.
func (s *Stack) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// OpenStore builds the snapshot store selected by cfg, decorated with PII
// masking and encryption when configured. The locker is nil unless the backend
// is redis.
func OpenStore(cfg config.Config) (ports.SnapshotStore, ports.DistributedLocker, func() error, error) {
	var (
		store   ports.SnapshotStore
		locker  ports.DistributedLocker
		closeFn func() error
	)

	switch cfg.Backend {
	case config.BackendMemory:
		store = memory.NewStore()
	case config.BackendFile, "":
		format, err := file.ParseFormat(cfg.SessionFormat)
		if err != nil {
			return nil, nil, nil, err
		}
		store = file.New(cfg.SessionDir, file.WithFormat(format))
	case config.BackendRedis:
		var redisOpts []redis.Option
		if cfg.SessionTTL > 0 {
			redisOpts = append(redisOpts, redis.WithTTL(cfg.SessionTTL))
		}
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redisOpts...)
		store = rs
		locker = redis.NewLocker(rs.Client(), "flux:")
		closeFn = rs.Close
	default:
		return nil, nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, nil, nil, err
	}

	var mws []persistence.Middleware
	if len(cfg.MaskFields) > 0 {
		mws = append(mws, persistence.NewPIIMiddleware(cfg.MaskFields))
	}
	if active != nil {
		mws = append(mws, persistence.NewEncryptionMiddleware(persistence.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}

	return persistence.Chain(store, mws...), locker, closeFn, nil
}
