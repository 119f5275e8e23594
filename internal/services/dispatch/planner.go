package dispatch

import "time"

type PlannerConfig struct {
	Backoff1 time.Duration // default: 1 minute
	Backoff2 time.Duration // default: 5 minutes
	Backoff3 time.Duration // default: 15 minutes
	Backoff4 time.Duration // default: 60 minutes

	MaxAttempts int32 // default: 5
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		Backoff1:    1 * time.Minute,
		Backoff2:    5 * time.Minute,
		Backoff3:    15 * time.Minute,
		Backoff4:    60 * time.Minute,
		MaxAttempts: 5,
	}
}

// Planner decides when a failed send is retried and when to give up.
type Planner struct {
	cfg PlannerConfig
}

func NewPlanner(cfg PlannerConfig) *Planner {
	def := DefaultPlannerConfig()
	if cfg.Backoff1 <= 0 {
		cfg.Backoff1 = def.Backoff1
	}
	if cfg.Backoff2 <= 0 {
		cfg.Backoff2 = def.Backoff2
	}
	if cfg.Backoff3 <= 0 {
		cfg.Backoff3 = def.Backoff3
	}
	if cfg.Backoff4 <= 0 {
		cfg.Backoff4 = def.Backoff4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	return &Planner{cfg: cfg}
}

// BackoffDelay is the pause after the attempt with number attempt (1-based) failed.
func (p *Planner) BackoffDelay(attempt int32) time.Duration {
	switch {
	case attempt <= 1:
		return p.cfg.Backoff1
	case attempt == 2:
		return p.cfg.Backoff2
	case attempt == 3:
		return p.cfg.Backoff3
	default:
		return p.cfg.Backoff4
	}
}

// GiveUp reports whether no attempt should follow attempt number attempt.
func (p *Planner) GiveUp(attempt int32) bool {
	return attempt >= p.cfg.MaxAttempts
}

func (p *Planner) Config() PlannerConfig {
	return p.cfg
}
