// Package cost implements the CostGovernor: per-debate and per-call budget
// presets, research-tier selection by remaining budget, and cumulative
// spend tracking. Tier thresholds and preset numbers are taken from the
// cost model this kernel was distilled from.
package cost

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/metric"

	"github.com/Plswearpants/AI-debate/internal/kernelerr"
)

// Tier is the research depth a Debator's deep-research step should run at.
type Tier string

const (
	TierDeep     Tier = "deep"
	TierStandard Tier = "standard"
	TierQuick    Tier = "quick"
	TierNone     Tier = "none"
)

// Preset is a named budget profile.
type Preset string

const (
	Conservative Preset = "conservative"
	Balanced     Preset = "balanced"
	Premium      Preset = "premium"
)

// Budget is the set of caps a preset resolves to.
type Budget struct {
	MaxCostPerDebate     float64
	MaxCostPerResearch   float64
	MaxDeepResearchCalls int
	QuickSearchThreshold float64
	StandardThreshold    float64
}

// Presets mirrors the three named budget profiles.
var Presets = map[Preset]Budget{
	Conservative: {
		MaxCostPerDebate:     2.0,
		MaxCostPerResearch:   0.50,
		MaxDeepResearchCalls: 2,
		QuickSearchThreshold: 0.25,
		StandardThreshold:    0.50,
	},
	Balanced: {
		MaxCostPerDebate:     5.0,
		MaxCostPerResearch:   2.0,
		MaxDeepResearchCalls: 4,
		QuickSearchThreshold: 0.50,
		StandardThreshold:    1.50,
	},
	Premium: {
		MaxCostPerDebate:     15.0,
		MaxCostPerResearch:   5.0,
		MaxDeepResearchCalls: 6,
		QuickSearchThreshold: 1.00,
		StandardThreshold:    3.00,
	},
}

// Governor tracks spend against a Budget and hands out research tiers.
type Governor struct {
	mu               sync.Mutex
	budget           Budget
	totalCost        float64
	deepResearchUsed int
	costsByPhase     map[string]float64
	log              *logrus.Logger
	gauge            metric.Float64ObservableGauge
}

// New builds a Governor for preset, optionally instrumented with an OTel
// meter for a cumulative-cost gauge (meter may be nil in tests).
func New(preset Preset, log *logrus.Logger, meter metric.Meter) (*Governor, error) {
	budget, ok := Presets[preset]
	if !ok {
		return nil, fmt.Errorf("unknown cost preset %q", preset)
	}
	if log == nil {
		log = logrus.New()
	}
	g := &Governor{budget: budget, costsByPhase: map[string]float64{}, log: log}
	if meter != nil {
		gauge, err := meter.Float64ObservableGauge(
			"debate.cost.cumulative",
			metric.WithDescription("cumulative cost spent on the current debate, in USD"),
		)
		if err != nil {
			return nil, fmt.Errorf("registering cost gauge: %w", err)
		}
		g.gauge = gauge
		if _, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			g.mu.Lock()
			defer g.mu.Unlock()
			o.ObserveFloat64(gauge, g.totalCost)
			return nil
		}, gauge); err != nil {
			return nil, fmt.Errorf("registering cost callback: %w", err)
		}
	}
	return g, nil
}

// RemainingBudget returns the unspent portion of the per-debate cap.
func (g *Governor) RemainingBudget() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remainingLocked()
}

func (g *Governor) remainingLocked() float64 {
	r := g.budget.MaxCostPerDebate - g.totalCost
	if r < 0 {
		return 0
	}
	return r
}

// TierForBudget resolves a Tier from the remaining budget, honoring the
// preset's own thresholds and the hard cap on deep-research call count.
func (g *Governor) TierForBudget() Tier {
	g.mu.Lock()
	defer g.mu.Unlock()

	remaining := g.remainingLocked()
	if remaining <= 0 {
		return TierNone
	}
	if g.deepResearchUsed >= g.budget.MaxDeepResearchCalls {
		if remaining < g.budget.QuickSearchThreshold {
			return TierNone
		}
		return TierQuick
	}
	if remaining >= g.budget.MaxCostPerResearch {
		return TierDeep
	}
	switch {
	case remaining < g.budget.QuickSearchThreshold:
		return TierNone
	case remaining < g.budget.StandardThreshold:
		return TierQuick
	default:
		return TierStandard
	}
}

// RecordSpend books an actual cost against phase, enforcing the per-debate
// cap. A spend that would exceed the remaining per-debate budget is still
// recorded (the call already happened) but returns BudgetExhausted so the
// caller can stop requesting further deep research this debate.
func (g *Governor) RecordSpend(phase string, amount float64, wasDeepResearch bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.totalCost += amount
	g.costsByPhase[phase] += amount
	if wasDeepResearch {
		g.deepResearchUsed++
	}
	g.log.WithFields(logrus.Fields{
		"phase": phase, "amount": amount, "total_cost": g.totalCost,
	}).Debug("recorded cost governor spend")

	if g.totalCost > g.budget.MaxCostPerDebate {
		return kernelerr.New(kernelerr.BudgetExhausted, "debate spend %.2f exceeds cap %.2f", g.totalCost, g.budget.MaxCostPerDebate)
	}
	return nil
}

// TotalCost returns cumulative spend so far.
func (g *Governor) TotalCost() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.totalCost
}

// Report summarizes spend for inclusion in checkpoints and outputs.
type Report struct {
	TotalCost         float64            `json:"total_cost"`
	RemainingBudget   float64            `json:"remaining_budget"`
	DeepResearchCalls int                `json:"deep_research_calls"`
	CostsByPhase      map[string]float64 `json:"costs_by_phase"`
	BudgetUtilization float64            `json:"budget_utilization_pct"`
}

func (g *Governor) Report() Report {
	g.mu.Lock()
	defer g.mu.Unlock()
	byPhase := make(map[string]float64, len(g.costsByPhase))
	for k, v := range g.costsByPhase {
		byPhase[k] = v
	}
	util := 0.0
	if g.budget.MaxCostPerDebate > 0 {
		util = g.totalCost / g.budget.MaxCostPerDebate * 100
	}
	return Report{
		TotalCost:         g.totalCost,
		RemainingBudget:   g.remainingLocked(),
		DeepResearchCalls: g.deepResearchUsed,
		CostsByPhase:      byPhase,
		BudgetUtilization: util,
	}
}

// Restore sets accumulated spend directly, used when resuming from a
// checkpoint so the governor does not start back at zero.
func (g *Governor) Restore(totalCost float64, deepResearchCalls int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.totalCost = totalCost
	g.deepResearchUsed = deepResearchCalls
}

// WithTimeout wraps fn with a per-call deadline and jittered slack so a
// slow provider call cannot stall the single-threaded turn loop
// indefinitely. The jitter primitive is adapted from the exponential
// backoff helper this kernel's AgentRunner retry used to hand-roll.
func WithTimeout(ctx context.Context, base time.Duration, fn func(ctx context.Context) error) error {
	jitter := time.Duration(rand.Int63n(int64(base / 10)))
	ctx, cancel := context.WithTimeout(ctx, base+jitter)
	defer cancel()
	return fn(ctx)
}
