// Package pipeline implements the Pipeline and Trace: the iterative
// state machine that resolves targets, packs context, and evaluates the
// result, widening search on failure up to a bounded iteration cap.
// Stages are named, each timed and logged, and any stage error
// short-circuits the run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/codectx/codectx/internal/embed"
	"github.com/codectx/codectx/internal/evaluator"
	"github.com/codectx/codectx/internal/graph"
	"github.com/codectx/codectx/internal/manager"
	"github.com/codectx/codectx/internal/rerank"
	"github.com/codectx/codectx/internal/resolver"
	"github.com/codectx/codectx/internal/retriever"
)

const (
	startTokenBudget = 6000
	maxTokenBudget   = 12000
	tokenBudgetStep  = 2000

	startWalkDepth = 2
	maxWalkDepth   = 5

	startRelatedLimit = 5
	relatedLimitStep  = 2

	startBreadthLimit = 3
	maxBreadthLimit   = 6

	defaultMaxIterations = 2
)

// State is the mutable per-run search configuration that widens
// monotonically as the Evaluation Agent proposes actions.
type State struct {
	TokenBudget     int
	WalkDepth       int
	RelatedLimit    int
	BreadthLimit    int
	UseCrossEncoder bool
}

func initialState() State {
	return State{
		TokenBudget: startTokenBudget, WalkDepth: startWalkDepth,
		RelatedLimit: startRelatedLimit, BreadthLimit: startBreadthLimit,
	}
}

func (s State) apply(actions []evaluator.Action) State {
	for _, a := range actions {
		switch a {
		case evaluator.ActionIncreaseTokenBudget:
			s.TokenBudget = minInt(s.TokenBudget+tokenBudgetStep, maxTokenBudget)
		case evaluator.ActionIncreaseWalkDepth:
			s.WalkDepth = minInt(s.WalkDepth+1, maxWalkDepth)
		case evaluator.ActionExpandRelated:
			s.RelatedLimit += relatedLimitStep
			s.BreadthLimit = minInt(s.BreadthLimit+1, maxBreadthLimit)
		case evaluator.ActionEnableCrossEncoder:
			s.UseCrossEncoder = true
		}
	}
	return s
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Options configures a Run call.
type Options struct {
	TargetFile     string
	GroundTruth    []string
	EvalConfig     evaluator.Config
	MaxIterations  int
	RecentPaths    []string
	CandidatePaths []string
}

// Result is the final outcome of a pipeline run.
type Result struct {
	Context       *retriever.Context
	Resolution    *resolver.Resolution
	Evaluation    evaluator.Evaluation
	Iterations    int
	Trace         Trace
	ActionHistory []evaluator.Action
}

// Pipeline wires the Graph Manager to the Resolver, Retriever, and
// Evaluation Agent for one coordinated run.
type Pipeline struct {
	manager      *manager.Manager
	embedder     embed.Embedder
	crossEncoder rerank.CrossEncoder
}

// New constructs a Pipeline. embedder and crossEncoder may be nil.
func New(m *manager.Manager, embedder embed.Embedder, crossEncoder rerank.CrossEncoder) *Pipeline {
	return &Pipeline{manager: m, embedder: embedder, crossEncoder: crossEncoder}
}

// Run executes the state machine:
// idle -> load_graph -> [build_components -> init_retriever -> resolve ->
// build_context -> evaluate]{<=maxIterations} -> done.
func (p *Pipeline) Run(ctx context.Context, query string, opts Options) (*Result, error) {
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	var trace Trace
	var g *graph.Graph
	if err := trace.record("graph.load", func() (map[string]any, error) {
		g = p.manager.GetGraph()
		return map[string]any{"nodeCount": g.NodeCount(), "edgeCount": g.EdgeCount()}, nil
	}); err != nil {
		return nil, fmt.Errorf("pipeline: %s: %w", "graph.load", err)
	}

	state := initialState()
	recentPaths := append([]string{}, opts.RecentPaths...)
	seeds := append([]string{}, opts.CandidatePaths...)

	var (
		res        *resolver.Resolution
		ctxResult  *retriever.Context
		eval       evaluator.Evaluation
		actionHist []evaluator.Action
		iterations int
	)

	for iterations < maxIterations {
		iterations++
		var res1 *resolver.Resolver

		if err := trace.record("components.build", func() (map[string]any, error) {
			var ce rerank.CrossEncoder
			if state.UseCrossEncoder {
				ce = p.crossEncoder
			}
			res1 = resolver.New(ctx, g, p.embedder, ce)
			return nil, nil
		}); err != nil {
			return nil, fmt.Errorf("pipeline: components.build: %w", err)
		}

		if err := trace.record("retriever.initialize", func() (map[string]any, error) {
			return nil, nil
		}); err != nil {
			return nil, fmt.Errorf("pipeline: retriever.initialize: %w", err)
		}
		retr := retriever.New(g, res1, p.embedder)

		if err := trace.record("target.resolve", func() (map[string]any, error) {
			var err error
			res, err = res1.Resolve(ctx, query, resolver.Options{RecentPaths: recentPaths})
			if err != nil {
				return nil, err
			}
			return map[string]any{"candidateCount": len(res.Candidates)}, nil
		}); err != nil {
			return nil, fmt.Errorf("pipeline: target.resolve: %w", err)
		}

		if err := trace.record("context.build", func() (map[string]any, error) {
			var err error
			ctxResult, err = retr.Build(ctx, query, opts.TargetFile, state.TokenBudget, retriever.Options{
				CandidatePaths: seeds,
				WalkDepth:      state.WalkDepth,
				RelatedLimit:   state.RelatedLimit,
				BreadthLimit:   state.BreadthLimit,
			}, res)
			if err != nil {
				return nil, err
			}
			return map[string]any{"tokensUsed": ctxResult.Telemetry.TokensUsed}, nil
		}); err != nil {
			return nil, fmt.Errorf("pipeline: context.build: %w", err)
		}

		if err := trace.record("agent.evaluate", func() (map[string]any, error) {
			eval = evaluator.Evaluate(res, ctxResult, opts.GroundTruth, opts.EvalConfig)
			return map[string]any{"precision": eval.Precision, "recall": eval.Recall, "pass": eval.Pass}, nil
		}); err != nil {
			return nil, fmt.Errorf("pipeline: agent.evaluate: %w", err)
		}

		if eval.Pass || len(eval.Actions) == 0 {
			break
		}

		actionHist = append(actionHist, eval.Actions...)
		state = state.apply(eval.Actions)
		for _, c := range res.Candidates {
			seeds = append(seeds, c.Path)
			recentPaths = append(recentPaths, c.Path)
		}
	}

	return &Result{
		Context: ctxResult, Resolution: res, Evaluation: eval,
		Iterations: iterations, Trace: trace, ActionHistory: actionHist,
	}, nil
}
