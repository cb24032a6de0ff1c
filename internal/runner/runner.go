// Package runner implements AgentRunner: the per-turn execution wrapper
// that reads permission-filtered state, invokes an agent with retry,
// applies its resulting intents to the StateStore, and books its cost.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/metric"

	"github.com/Plswearpants/AI-debate/internal/agents"
	"github.com/Plswearpants/AI-debate/internal/cost"
	"github.com/Plswearpants/AI-debate/internal/kernelerr"
	"github.com/Plswearpants/AI-debate/internal/state"
)

// Runner executes one agent turn at a time against a Store.
type Runner struct {
	Store    *state.Store
	Governor *cost.Governor
	Log      *logrus.Logger
	Duration metric.Float64Histogram
}

// New builds a Runner. meter may be nil (no duration histogram recorded).
func New(store *state.Store, governor *cost.Governor, log *logrus.Logger, meter metric.Meter) (*Runner, error) {
	if log == nil {
		log = logrus.New()
	}
	r := &Runner{Store: store, Governor: governor, Log: log}
	if meter != nil {
		hist, err := meter.Float64Histogram(
			"debate.turn.duration",
			metric.WithDescription("wall-clock duration of one agent turn, in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			return nil, fmt.Errorf("registering turn duration histogram: %w", err)
		}
		r.Duration = hist
	}
	return r, nil
}

// TurnOutcome summarizes one executed turn for the checkpoint log.
type TurnOutcome struct {
	Agent       string
	Cost        float64
	DurationSec float64
}

// ExecuteTurn reads state for agent, invokes it
// with a bounded retry policy, applies every returned intent to the store,
// and returns the turn's accounting.
func (r *Runner) ExecuteTurn(ctx context.Context, agent agents.Agent, tc agents.TurnContext) (TurnOutcome, error) {
	start := time.Now()

	view, err := r.Store.ReadForAgent(agent.Name())
	if err != nil {
		return TurnOutcome{}, fmt.Errorf("reading state for %s: %w", agent.Name(), err)
	}
	tc.View = view

	result, err := r.invokeWithRetry(ctx, agent, tc)
	duration := time.Since(start)
	if r.Duration != nil {
		r.Duration.Record(ctx, duration.Seconds())
	}
	if err != nil {
		return TurnOutcome{}, fmt.Errorf("agent %s turn failed: %w", agent.Name(), err)
	}

	for i := range result.Intents {
		result.Intents[i].Phase = tc.Phase
	}
	if err := ValidateIntents(result.Intents); err != nil {
		return TurnOutcome{}, fmt.Errorf("agent %s turn rejected: %w", agent.Name(), err)
	}
	if err := ApplyAll(r.Store, result.Intents); err != nil {
		return TurnOutcome{}, fmt.Errorf("applying intents from %s: %w", agent.Name(), err)
	}

	if r.Governor != nil && result.Cost > 0 {
		if err := r.Governor.RecordSpend(tc.Phase, result.Cost, false); err != nil {
			r.Log.WithError(err).Warn("cost governor budget exhausted")
		}
	}

	r.Log.WithFields(logrus.Fields{
		"agent": agent.Name(), "round": tc.RoundNumber, "phase": tc.Phase,
		"cost": result.Cost, "duration_sec": duration.Seconds(),
	}).Info("turn complete")

	return TurnOutcome{Agent: agent.Name(), Cost: result.Cost, DurationSec: duration.Seconds()}, nil
}

// invokeWithRetry runs agent.Execute at most three times (one attempt plus
// two retries) under an exponential backoff that starts at 1s and doubles,
// with the library's default randomization, so the waits are roughly 1s
// and 2s. It retries only on errors marked as transient provider failures;
// any other error fails the turn immediately.
func (r *Runner) invokeWithRetry(ctx context.Context, agent agents.Agent, tc agents.TurnContext) (agents.Result, error) {
	var result agents.Result
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 1 * time.Second
	policy.Multiplier = 2
	policy.MaxElapsedTime = 0
	bo := backoff.WithMaxRetries(policy, 2) // 3 attempts total: 1 initial + 2 retries

	attempt := 0
	operation := func() error {
		attempt++
		res, err := agent.Execute(ctx, tc)
		if err != nil {
			if kernelerr.IsRetryable(err) {
				r.Log.WithFields(logrus.Fields{"agent": agent.Name(), "attempt": attempt}).Warn("retrying transient provider error")
				return err
			}
			return backoff.Permanent(err)
		}
		result = res
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return agents.Result{}, err
	}
	return result, nil
}
