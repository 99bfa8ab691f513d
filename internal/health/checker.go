// Package health checks the bot's backing components.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Pinger is the slice of the refill store the checker needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Component is one checked dependency with its latest result.
type Component struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"latency_ms"`
	Timestamp time.Time     `json:"timestamp"`
	Error     string        `json:"error,omitempty"`
}

// Report is the aggregate of one Check run.
type Report struct {
	Status     Status      `json:"status"`
	Components []Component `json:"components"`
	CheckedAt  time.Time   `json:"checked_at"`
}

// Checker pings the refill store with bounded timeouts.
type Checker struct {
	store Pinger

	pingTimeout time.Duration
	maxLatency  time.Duration

	mu   sync.RWMutex
	last Report
}

// Config holds checker settings. Zero values select the defaults.
type Config struct {
	Store       Pinger
	PingTimeout time.Duration
	MaxLatency  time.Duration
}

// New creates a checker.
func New(cfg Config) *Checker {
	if cfg.PingTimeout == 0 {
		cfg.PingTimeout = 2 * time.Second
	}
	if cfg.MaxLatency == 0 {
		cfg.MaxLatency = 100 * time.Millisecond
	}
	return &Checker{
		store:       cfg.Store,
		pingTimeout: cfg.PingTimeout,
		maxLatency:  cfg.MaxLatency,
	}
}

// Check runs all component checks and returns the aggregate report.
func (c *Checker) Check(ctx context.Context) Report {
	report := Report{Status: StatusHealthy, CheckedAt: time.Now().UTC()}
	if c.store != nil {
		comp := c.checkStore(ctx)
		report.Components = append(report.Components, comp)
		report.Status = worst(report.Status, comp.Status)
	}

	c.mu.Lock()
	c.last = report
	c.mu.Unlock()
	return report
}

// Last returns the most recent report without re-running checks.
func (c *Checker) Last() Report {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

func (c *Checker) checkStore(ctx context.Context) Component {
	comp := Component{Name: "refill_store", Timestamp: time.Now().UTC()}

	pingCtx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()

	start := time.Now()
	err := c.store.Ping(pingCtx)
	comp.Latency = time.Since(start)

	if err != nil {
		comp.Status = StatusUnhealthy
		comp.Error = err.Error()
		comp.Message = "store unreachable"
		return comp
	}
	if comp.Latency > c.maxLatency {
		comp.Status = StatusDegraded
		comp.Message = fmt.Sprintf("high latency: %v", comp.Latency)
		return comp
	}
	comp.Status = StatusHealthy
	comp.Message = "connected"
	return comp
}

func worst(a, b Status) Status {
	rank := map[Status]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
