package authc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shrinex/bastion/internal/logger"
)

const tracerName = "github.com/shrinex/bastion/authc"

type (
	// authenticator delegates to a pluggable collection of realms.
	// With a single realm the realm alone decides; with several realms
	// the Strategy interprets the outcome of each of them.
	authenticator struct {
		realms   []Realm
		strategy Strategy
		factory  InfoFactory
		merger   Merger
		metrics  Metrics
		tracer   trace.Tracer
	}
)

var (
	_ Authenticator = (*authenticator)(nil)
	_ LogoutAware   = (*authenticator)(nil)
)

// NewAuthenticator creates an Authenticator consulting realms in order.
// realms is copied and must not be empty by the time Authenticate is called.
func NewAuthenticator(realms []Realm, opts ...Option) Authenticator {
	c := &authenticator{
		realms:   append([]Realm(nil), realms...),
		strategy: AllSuccessful(),
		factory:  NewSimpleAuthenticationInfo,
		merger:   MergeSimple,
		tracer:   otel.Tracer(tracerName),
	}

	for _, f := range opts {
		f(c)
	}

	return c
}

// NewSingleRealmAuthenticator is a convenience for the common one realm setup
func NewSingleRealmAuthenticator(realm Realm, opts ...Option) Authenticator {
	return NewAuthenticator([]Realm{realm}, opts...)
}

func (c *authenticator) Authenticate(ctx context.Context, token Token) (info AuthenticationInfo, err error) {
	mode := ModeMulti
	if len(c.realms) == 1 {
		mode = ModeSingle
	}

	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "authc.authenticate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("authc.mode", mode),
			attribute.String("authc.token_kind", KindOf(token)),
			attribute.Int("authc.realms", len(c.realms)),
		),
	)
	defer func() {
		endSpan(span, err)
		if c.metrics != nil {
			c.metrics.ObserveAuthentication(mode, time.Since(start), err)
		}
	}()

	if err = c.assertRealmsConfigured(); err != nil {
		logger.Error("authentication attempted without realms", logger.KeyError, err)
		return nil, err
	}

	if token == nil {
		return nil, ErrInvalidToken
	}

	if mode == ModeSingle {
		return c.doSingleRealmAuthentication(ctx, c.realms[0], token)
	}

	return c.doMultiRealmAuthentication(ctx, c.realms, token)
}

func (c *authenticator) Logout(ctx context.Context, info AuthenticationInfo) {
	for _, r := range c.realms {
		if la, ok := r.(LogoutAware); ok {
			la.Logout(ctx, info)
		}
	}
}

// Realms returns a copy of the configured realms
func (c *authenticator) Realms() []Realm {
	return append([]Realm(nil), c.realms...)
}

//=====================================
//		    Private
//=====================================

func (c *authenticator) assertRealmsConfigured() error {
	if len(c.realms) == 0 {
		return fmt.Errorf("%w: configuration error", ErrNoRealms)
	}

	return nil
}

// doSingleRealmAuthentication lets the only realm decide. Faults (panics
// included) reach the caller unchanged, there is nothing to continue to.
func (c *authenticator) doSingleRealmAuthentication(ctx context.Context, realm Realm, token Token) (AuthenticationInfo, error) {
	if !realm.Supports(token) {
		return nil, fmt.Errorf("%w: single configured realm %q does not support tokens of type %s",
			ErrUnsupportedToken, realm.Name(), KindOf(token))
	}

	info, err := realm.LoadAuthenticationInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	if isNil(info) {
		return nil, fmt.Errorf("%w: single configured realm %q has no account for %s",
			ErrUnknownAccount, realm.Name(), KindOf(token))
	}

	return info, nil
}

func (c *authenticator) doMultiRealmAuthentication(ctx context.Context, realms []Realm, token Token) (AuthenticationInfo, error) {
	aggregate := c.factory(token)
	attempts := make([]Attempt, 0, len(realms))

	logger.DebugCtx(ctx, "iterating through realms for PAM authentication", logger.KeyRealms, len(realms))

	for _, r := range realms {
		if !r.Supports(token) {
			logger.DebugCtx(ctx, "realm does not support token, skipping",
				logger.KeyRealm, r.Name(), logger.KeyTokenKind, KindOf(token))
			continue
		}

		if err := c.strategy.BeforeAttempt(ctx, r, token); err != nil {
			return nil, err
		}

		a := c.consult(ctx, r, token)
		attempts = append(attempts, a)

		err := c.strategy.AfterAttempt(ctx, r, token, a)
		if err != nil && !errors.Is(err, ErrStopAttempts) {
			return nil, err
		}

		if a.Info != nil {
			logger.DebugCtx(ctx, "account authenticated by realm", logger.KeyRealm, r.Name())
			c.merger(aggregate, a.Info)
		}

		if err != nil {
			break
		}
	}

	if err := c.strategy.AfterAllAttempts(ctx, token, aggregate, attempts); err != nil {
		return nil, err
	}

	return aggregate, nil
}

func (c *authenticator) consult(ctx context.Context, realm Realm, token Token) Attempt {
	ctx, span := c.tracer.Start(ctx, "authc.realm",
		trace.WithAttributes(attribute.String("authc.realm", realm.Name())))

	a := attempt(ctx, realm, token)
	if a.Err != nil {
		logger.DebugCtx(ctx, "realm failed during multi-realm authentication",
			logger.KeyRealm, a.Realm, logger.KeyError, a.Err)
	}

	span.SetAttributes(attribute.Bool("authc.found", a.Info != nil))
	endSpan(span, a.Err)

	if c.metrics != nil {
		c.metrics.ObserveRealmAttempt(a.Realm, a)
	}

	return a
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
