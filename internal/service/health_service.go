package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/univ-archive/internal/models"
)

// Pinger is a dependency whose reachability is reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health states.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthDown     = "down"
)

// HealthService checks the database and optional cache.
type HealthService struct {
	checks   map[string]Pinger
	required map[string]bool
	provider string
	started  time.Time
	timeout  time.Duration
	logger   *zap.Logger
}

// NewHealthService builds a health checker. db is required, cache may be nil.
func NewHealthService(db Pinger, cache Pinger, provider string, logger *zap.Logger) *HealthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &HealthService{
		checks:   map[string]Pinger{"database": db},
		required: map[string]bool{"database": true},
		provider: provider,
		started:  time.Now(),
		timeout:  2 * time.Second,
		logger:   logger,
	}
	if cache != nil {
		s.checks["cache"] = cache
	}
	return s
}

// Check pings every dependency concurrently. A failing database makes the service down,
// a failing cache only degrades it.
func (s *HealthService) Check(ctx context.Context) models.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var mu sync.Mutex
	results := make(map[string]string, len(s.checks))
	var g errgroup.Group
	for name, pinger := range s.checks {
		name, pinger := name, pinger
		g.Go(func() error {
			state := HealthOK
			if err := pinger.Ping(ctx); err != nil {
				s.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
				state = err.Error()
			}
			mu.Lock()
			results[name] = state
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := HealthOK
	for name, state := range results {
		if state == HealthOK {
			continue
		}
		if s.required[name] {
			status = HealthDown
			break
		}
		status = HealthDegraded
	}
	return models.HealthStatus{
		Status:   status,
		Checks:   results,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Provider: s.provider,
	}
}
