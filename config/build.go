package config

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shrinex/bastion/authc"
	"github.com/shrinex/bastion/authz"
	"github.com/shrinex/bastion/codec"
	"github.com/shrinex/bastion/internal/logger"
	"github.com/shrinex/bastion/metrics"
	"github.com/shrinex/bastion/realm"
	"github.com/shrinex/bastion/security"
	"github.com/shrinex/bastion/session"
)

// Stack is everything a Config describes, wired together
type Stack struct {
	Realms        []authc.Realm
	Authenticator authc.Authenticator
	Authorizer    authz.Authorizer
	Repository    session.Repository
	Registry      session.Registry
	Subject       security.Subject
	Metrics       *metrics.AuthMetrics
}

// Close releases the session repository
func (s *Stack) Close() error {
	return s.Repository.Close()
}

// ConfigureLogging applies cfg to the shared logger
func ConfigureLogging(cfg LoggingConfig) error {
	return logger.Init(logger.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: cfg.Output,
	})
}

// Build assembles a Stack from cfg. Collectors are registered with reg when
// metrics are enabled, a nil reg falls back to prometheus.DefaultRegisterer.
func Build(cfg *Config, reg prometheus.Registerer) (*Stack, error) {
	if err := ConfigureLogging(cfg.Logging); err != nil {
		return nil, err
	}

	strategy, err := authc.StrategyByName(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	realms, azRealms, err := buildRealms(cfg.Realms)
	if err != nil {
		return nil, err
	}

	stack := &Stack{Realms: realms}

	opts := []authc.Option{authc.WithStrategy(strategy)}
	if cfg.Metrics.Enabled {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		stack.Metrics = metrics.NewAuthMetrics(reg)
		opts = append(opts, authc.WithMetrics(stack.Metrics))
	}

	stack.Authenticator = authc.NewAuthenticator(realms, opts...)
	stack.Authorizer = authz.NewAuthorizer(azRealms...)

	stack.Repository, err = buildRepository(cfg.Session)
	if err != nil {
		return nil, err
	}
	stack.Registry = session.NewRegistry(stack.Repository)

	stack.Subject, err = security.NewBuilder().
		Authenticator(stack.Authenticator).
		Authorizer(stack.Authorizer).
		Repository(stack.Repository).
		Registry(stack.Registry).
		Options(security.Options{Concurrency: cfg.Session.Concurrency}).
		Build()
	if err != nil {
		_ = stack.Repository.Close()
		return nil, err
	}

	logger.Info("bastion configured",
		logger.KeyStrategy, cfg.Strategy,
		logger.KeyRealms, len(realms),
		"session_backend", cfg.Session.Backend)

	return stack, nil
}

func buildRealms(cfgs []RealmConfig) ([]authc.Realm, []authz.Realm, error) {
	realms := make([]authc.Realm, 0, len(cfgs))
	azRealms := make([]authz.Realm, 0, len(cfgs))
	seen := make(map[string]struct{}, len(cfgs))

	for _, rc := range cfgs {
		if _, ok := seen[rc.Name]; ok {
			return nil, nil, fmt.Errorf("duplicate realm name %q", rc.Name)
		}
		seen[rc.Name] = struct{}{}

		switch rc.Type {
		case RealmMemory:
			r := realm.NewMemoryRealm(rc.Name, rc.Accounts...)
			realms = append(realms, r)
			azRealms = append(azRealms, r)
		case RealmBearer:
			r := realm.NewBearerRealm(rc.Name, realm.BearerConfig{
				Key:      []byte(rc.Key),
				Issuer:   rc.Issuer,
				Audience: rc.Audience,
				Leeway:   rc.Leeway,
			})
			realms = append(realms, r)
			azRealms = append(azRealms, r)
		default:
			return nil, nil, fmt.Errorf("unknown realm type %q for realm %q", rc.Type, rc.Name)
		}
	}

	return realms, azRealms, nil
}

func buildRepository(cfg SessionConfig) (session.Repository, error) {
	c := codec.ByName(cfg.Codec)
	timeout, idle := sessionTimeout(cfg.Timeout), sessionTimeout(cfg.IdleTimeout)

	switch cfg.Backend {
	case BackendMemory:
		return session.NewMapSessionRepository(c, timeout, idle, cfg.CleanupInterval), nil
	case BackendBadger:
		repo, err := session.OpenBadgerSessionRepository(cfg.Dir, c, timeout, idle)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// sessionTimeout maps the negative "disabled" sentinel onto the zero
// duration sessions treat as unbounded
func sessionTimeout(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
