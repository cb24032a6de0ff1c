// Package kernel composes the StateStore, PhaseMachine, CostGovernor,
// CheckpointStore, AgentRunner and the five agent contracts into the
// Moderator: the orchestration loop that runs a debate from INIT through
// DONE, and the resume path that picks a checkpointed debate back up
// without ever re-initializing its documents.
package kernel

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/metric"

	"github.com/Plswearpants/AI-debate/internal/agents"
	"github.com/Plswearpants/AI-debate/internal/artifacts"
	"github.com/Plswearpants/AI-debate/internal/checkpoint"
	"github.com/Plswearpants/AI-debate/internal/cost"
	"github.com/Plswearpants/AI-debate/internal/crowd"
	"github.com/Plswearpants/AI-debate/internal/phase"
	"github.com/Plswearpants/AI-debate/internal/provider"
	"github.com/Plswearpants/AI-debate/internal/runner"
	"github.com/Plswearpants/AI-debate/internal/state"
)

// Config configures a new debate run.
type Config struct {
	Topic                 string
	TotalRounds           int
	CrowdSize             int
	Preset                cost.Preset
	DebatesRoot           string
	UnderdogBiasThreshold float64
}

// Kernel owns every component and runs the debate loop.
type Kernel struct {
	debateID string
	cfg      Config
	dir      string

	store       *state.Store
	machine     *phase.Machine
	governor    *cost.Governor
	checkpoints *checkpoint.Store
	run         *runner.Runner
	client      provider.Client
	log         *logrus.Logger

	registry       map[string]agents.Agent
	completedTurns []checkpoint.CompletedTurn
}

// New creates a fresh debate: allocates a debate ID, initializes the
// StateStore's documents, and builds every component.
func New(ctx context.Context, cfg Config, client provider.Client, log *logrus.Logger, meter metric.Meter) (*Kernel, error) {
	if log == nil {
		log = logrus.New()
	}
	debateID := uuid.New().String()
	dir := filepath.Join(cfg.DebatesRoot, debateID)

	k, err := newKernel(cfg, debateID, dir, client, log, meter)
	if err != nil {
		return nil, err
	}
	if err := k.store.Initialize(debateID); err != nil {
		return nil, fmt.Errorf("initializing debate documents: %w", err)
	}
	k.machine = phase.New(cfg.TotalRounds)
	k.buildRegistry()
	return k, nil
}

// Resume reconstructs a Kernel for an already-checkpointed debate. It never
// calls Store.Initialize: the documents already hold real data and must be
// loaded, not recreated.
func Resume(ctx context.Context, debateID string, cfg Config, client provider.Client, log *logrus.Logger, meter metric.Meter) (*Kernel, error) {
	if log == nil {
		log = logrus.New()
	}
	dir := filepath.Join(cfg.DebatesRoot, debateID)

	k, err := newKernel(cfg, debateID, dir, client, log, meter)
	if err != nil {
		return nil, err
	}
	if !k.checkpoints.Exists() {
		return nil, fmt.Errorf("no checkpoint found for debate %s", debateID)
	}
	if err := k.store.Load(); err != nil {
		return nil, fmt.Errorf("loading debate documents: %w", err)
	}
	cp, err := k.checkpoints.Load()
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}
	m := cp.Machine
	k.machine = &m
	k.governor.Restore(cp.TotalCost, cp.DeepResearchCalls)
	k.completedTurns = cp.CompletedTurns
	k.buildRegistry()
	return k, nil
}

func newKernel(cfg Config, debateID, dir string, client provider.Client, log *logrus.Logger, meter metric.Meter) (*Kernel, error) {
	governor, err := cost.New(cfg.Preset, log, meter)
	if err != nil {
		return nil, fmt.Errorf("building cost governor: %w", err)
	}
	store := state.New(dir, log)

	logged := provider.NewLoggingClient(client, filepath.Join(dir, "raw_calls.jsonl"))

	run, err := runner.New(store, governor, log, meter)
	if err != nil {
		return nil, fmt.Errorf("building agent runner: %w", err)
	}

	return &Kernel{
		debateID:    debateID,
		cfg:         cfg,
		dir:         dir,
		store:       store,
		governor:    governor,
		checkpoints: checkpoint.New(dir),
		run:         run,
		client:      logged,
		log:         log,
	}, nil
}

func (k *Kernel) buildRegistry() {
	catalog := crowd.LoadCatalog(k.log)
	k.registry = map[string]agents.Agent{
		"debator_a":     agents.NewDebator("a"),
		"debator_b":     agents.NewDebator("b"),
		"factchecker_a": agents.NewFactChecker("a"),
		"factchecker_b": agents.NewFactChecker("b"),
		"judge":         agents.NewJudge(),
		"crowd":         agents.NewCrowd(catalog, k.cfg.CrowdSize),
	}
}

// DebateID returns the debate's unique identifier.
func (k *Kernel) DebateID() string { return k.debateID }

// Dir returns the debate's on-disk directory.
func (k *Kernel) Dir() string { return k.dir }

// Run executes the whole debate to completion: initialization (vote 0 and
// team assignment), opening, rebuttal rounds, closing, then output
// rendering. It is resumable: calling it again on a Kernel built via Resume
// continues from the checkpointed phase/turn rather than starting over.
func (k *Kernel) Run(ctx context.Context) error {
	if k.machine.Phase == phase.Init {
		if err := k.runInitialization(ctx); err != nil {
			return fmt.Errorf("initialization: %w", err)
		}
	}
	for k.machine.Phase != phase.Done {
		if err := k.runPhase(ctx); err != nil {
			return fmt.Errorf("phase %s: %w", k.machine.Phase, err)
		}
	}

	h, pool, latent, crowdOpinion := k.store.Snapshot()
	if err := artifacts.WriteAll(k.dir, k.cfg.Topic, h, pool, latent, crowdOpinion); err != nil {
		return fmt.Errorf("rendering outputs: %w", err)
	}
	return nil
}

// runInitialization runs the vote-0 initializer (a round-0 crowd vote),
// assigns team sides from the split, computes the resource multiplier,
// transitions INIT -> OPENING, and then checkpoints.
func (k *Kernel) runInitialization(ctx context.Context) error {
	crowdAgent := k.registry["crowd"]
	tc := agents.TurnContext{
		DebateID: k.debateID, Topic: k.cfg.Topic, Phase: "vote0", RoundNumber: 0,
		Governor: k.governor, Client: k.client,
	}
	outcome, err := k.run.ExecuteTurn(ctx, crowdAgent, tc)
	if err != nil {
		return err
	}
	k.recordTurn(outcome, "vote0", 0)

	view, err := k.store.ReadForAgent("crowd")
	if err != nil {
		return err
	}
	forCount, againstCount := 0, 0
	if view.CrowdOpinion != nil && len(view.CrowdOpinion.VoteRounds) > 0 {
		for _, v := range view.CrowdOpinion.Voters {
			for _, entry := range v.VotingHistory {
				if entry.Round != 0 {
					continue
				}
				if entry.Score > 50 {
					forCount++
				} else {
					againstCount++
				}
			}
		}
	}

	k.machine.AssignTeams(k.debateID, forCount, againstCount)
	k.machine.CalculateResourceMultiplier(forCount, againstCount, k.cfg.UnderdogBiasThreshold)

	if err := k.machine.Advance(); err != nil {
		return err
	}
	_ = outcome
	return k.checkpointNow("vote0", true)
}

// runPhase executes every turn of the current phase's turn order, then
// advances to the next phase (or, within ROUNDS, to the next round).
func (k *Kernel) runPhase(ctx context.Context) error {
	for {
		speaker := k.machine.CurrentSpeaker()
		if speaker == "" {
			break
		}
		agent, ok := k.registry[speaker]
		if !ok {
			return fmt.Errorf("no agent registered for speaker %q", speaker)
		}

		tc := agents.TurnContext{
			DebateID: k.debateID, Topic: k.cfg.Topic,
			Phase: k.machine.RoundLabel(), RoundNumber: k.machine.RoundNumber,
			Governor: k.governor, Client: k.client,
		}
		outcome, err := k.run.ExecuteTurn(ctx, agent, tc)
		if err != nil {
			return err
		}
		k.recordTurn(outcome, string(k.machine.Phase), k.machine.RoundNumber)
		k.machine.NextTurn()
		if err := k.checkpointNow(outcome.Agent, false); err != nil {
			return err
		}
	}

	if k.machine.Phase == phase.Rounds && !k.machine.RoundsComplete() {
		k.machine.NextRound()
		return k.checkpointNow("", false)
	}

	if err := k.machine.Advance(); err != nil {
		return err
	}
	return k.checkpointNow("", true)
}

func (k *Kernel) recordTurn(outcome runner.TurnOutcome, phaseLabel string, round int) {
	k.completedTurns = append(k.completedTurns, checkpoint.CompletedTurn{
		TurnIndex:   len(k.completedTurns),
		Agent:       outcome.Agent,
		Phase:       phaseLabel,
		Round:       round,
		Cost:        outcome.Cost,
		DurationSec: outcome.DurationSec,
		Timestamp:   time.Now(),
	})
}

func (k *Kernel) checkpointNow(agent string, phaseTransitioned bool) error {
	if !checkpoint.ShouldCheckpoint(agent, phaseTransitioned) {
		return nil
	}
	report := k.governor.Report()
	cp := checkpoint.Checkpoint{
		DebateID:          k.debateID,
		Machine:           *k.machine,
		TotalCost:         report.TotalCost,
		DeepResearchCalls: report.DeepResearchCalls,
		CompletedTurns:    k.completedTurns,
		CreatedAt:         time.Now(),
	}
	return k.checkpoints.Write(cp)
}
