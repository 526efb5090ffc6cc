// Package evaluator implements the Evaluation Agent: scores a
// resolution/context pair against a ground-truth path set and proposes a
// deduplicated set of widening actions when precision, recall, or
// coverage miss their thresholds. Evaluation is pure computation, so it
// is plain structs with no framework underneath.
package evaluator

import (
	"github.com/codectx/codectx/internal/resolver"
	"github.com/codectx/codectx/internal/retriever"
)

// Action is one widening directive the Pipeline can apply for the next
// iteration.
type Action string

const (
	ActionEnableCrossEncoder Action = "enable_cross_encoder"
	ActionIncreaseWalkDepth  Action = "increase_walk_depth"
	ActionExpandRelated      Action = "expand_related"
	ActionIncreaseTokenBudget Action = "increase_token_budget"
)

// Config sets the evaluator's pass/fail thresholds.
type Config struct {
	PrecisionThreshold float64
	RecallThreshold    float64
	MaxK               int // 0 uses the candidate count
	CoverageThreshold  float64
}

func (c Config) withDefaults() Config {
	if c.CoverageThreshold == 0 {
		c.CoverageThreshold = 0.85
	}
	return c
}

// Evaluation is the result of a single Evaluate call.
type Evaluation struct {
	K         int
	Hits      int
	Precision float64
	Recall    float64
	F1        float64
	Coverage  float64
	Pass      bool
	Actions   []Action
}

// Evaluate scores resolution's top-K candidates against groundTruth and
// proposes actions when any threshold is missed.
func Evaluate(resolution *resolver.Resolution, ctxResult *retriever.Context, groundTruth []string, cfg Config) Evaluation {
	cfg = cfg.withDefaults()

	candidateCount := 0
	if resolution != nil {
		candidateCount = len(resolution.Candidates)
	}
	k := cfg.MaxK
	if k <= 0 {
		k = candidateCount
	}
	k = clamp(k, 1, max(candidateCount, 1))
	if candidateCount == 0 {
		k = 0
	}

	truthSet := make(map[string]bool, len(groundTruth))
	for _, p := range groundTruth {
		truthSet[p] = true
	}

	hits := 0
	if resolution != nil {
		for i := 0; i < k && i < len(resolution.Candidates); i++ {
			if truthSet[resolution.Candidates[i].Path] {
				hits++
			}
		}
	}

	var precision float64
	if k > 0 {
		precision = float64(hits) / float64(k)
	}
	var recall float64
	if len(groundTruth) == 0 {
		recall = 1
	} else {
		recall = float64(hits) / float64(len(groundTruth))
	}
	f1 := harmonicMean(precision, recall)

	var coverage float64
	if ctxResult != nil && ctxResult.Telemetry.TokenBudget > 0 {
		coverage = float64(ctxResult.Telemetry.TokensUsed) / float64(ctxResult.Telemetry.TokenBudget)
	}

	actions := proposeActions(precision, recall, coverage, cfg)
	pass := precision >= cfg.PrecisionThreshold && recall >= cfg.RecallThreshold

	return Evaluation{
		K: k, Hits: hits, Precision: precision, Recall: recall, F1: f1,
		Coverage: coverage, Pass: pass, Actions: actions,
	}
}

func proposeActions(precision, recall, coverage float64, cfg Config) []Action {
	seen := make(map[Action]bool)
	var out []Action
	add := func(a Action) {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}

	if precision < cfg.PrecisionThreshold {
		add(ActionEnableCrossEncoder)
		add(ActionIncreaseWalkDepth)
		add(ActionExpandRelated)
		if precision < min(0.4, cfg.PrecisionThreshold) {
			add(ActionIncreaseTokenBudget)
		}
	}
	if recall < cfg.RecallThreshold {
		add(ActionIncreaseWalkDepth)
		add(ActionExpandRelated)
	}
	if coverage > cfg.CoverageThreshold {
		add(ActionIncreaseTokenBudget)
	}
	return out
}

func harmonicMean(a, b float64) float64 {
	if a+b == 0 {
		return 0
	}
	return 2 * a * b / (a + b)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
