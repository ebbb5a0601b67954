// Package ratelimit provides the throttling capability injected into the
// engine's processors.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/venueops-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

// Action names a throttled engine operation.
type Action string

const (
	ActionCheckout Action = "checkout"
	ActionVoid     Action = "void"
	ActionPunch    Action = "punch"
	ActionRestock  Action = "restock"
)

// Limiter decides whether subject may perform action now. A denial is
// reported as a RATE_LIMIT_EXCEEDED error.
type Limiter interface {
	Allow(ctx context.Context, action Action, subject string) error
}

// Noop admits everything.
type Noop struct{}

func (Noop) Allow(context.Context, Action, string) error { return nil }

type counterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Policy is the per-action limit inside one window.
type Policy struct {
	Window time.Duration
	Limits map[Action]int
}

// PolicyFromConfig maps env configuration onto a Policy.
func PolicyFromConfig(cfg config.RateLimitConfig) Policy {
	return Policy{
		Window: cfg.Window,
		Limits: map[Action]int{
			ActionCheckout: cfg.CheckoutLimit,
			ActionVoid:     cfg.VoidLimit,
			ActionPunch:    cfg.PunchLimit,
			ActionRestock:  cfg.RestockLimit,
		},
	}
}

// FixedWindow counts hits per action and subject in Redis.
type FixedWindow struct {
	store  counterStore
	policy Policy
	logg   *logger.Logger
}

func NewFixedWindow(store counterStore, policy Policy, logg *logger.Logger) (*FixedWindow, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limit store required")
	}
	if policy.Window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive")
	}
	return &FixedWindow{store: store, policy: policy, logg: logg}, nil
}

func (l *FixedWindow) Allow(ctx context.Context, action Action, subject string) error {
	limit := l.policy.Limits[action]
	if limit <= 0 {
		return nil
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "anonymous"
	}

	scope := string(action) + ":" + subject
	allowed, count, err := l.store.FixedWindowAllow(ctx, scope, int64(limit), l.policy.Window)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting")
	}
	if allowed {
		return nil
	}

	if l.logg != nil {
		logCtx := l.logg.WithFields(ctx, map[string]any{
			"action":         action,
			"subject":        subject,
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(l.policy.Window.Seconds()),
		})
		l.logg.Warn(logCtx, "rate_limit.blocked")
	}
	return pkgerrors.New(pkgerrors.CodeRateLimit, fmt.Sprintf("too many %s requests, try again shortly", action))
}
