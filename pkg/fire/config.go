// Package fire implements the Fractional Implicit Repetition (FIRe) memory
// model: per-item retention state, interval scheduling, continuous memory
// decay, and learning-speed calibration.
//
// FIRe extends classic spaced repetition with fractional repetition levels,
// so items can accrue partial credit from related reviews without ever being
// shown explicitly.
package fire

// Config contains the tunables for the FIRe engine.
//
// All engine functions accept a *Config; passing nil selects DefaultConfig().
// The zero value is not usable directly.
//
// Example:
//
//	cfg := fire.DefaultConfig()
//	cfg.MemoryDueThreshold = 0.4
//	state = fire.UpdateState(state, true, 0.9, cfg, time.Now())
type Config struct {
	// MemoryDueThreshold is the decayed-memory floor below which an item
	// becomes due regardless of its calendar interval. Default: 0.35
	MemoryDueThreshold float64 `json:"memory_due_threshold"`

	// MinCreditThreshold is the minimum fractional credit or penalty that
	// still produces an implicit update. Smaller amounts are dropped, which
	// bounds graph propagation. Default: 0.05
	MinCreditThreshold float64 `json:"min_credit_threshold"`

	// MaxPropagationDepth is the maximum number of hops credit or penalty
	// may travel through the dependency graph. Default: 3
	MaxPropagationDepth int `json:"max_propagation_depth"`

	// KnockoutWeightThreshold is the minimum edge weight for a dependency
	// edge to count as a knockout (reviewing the source makes the target
	// redundant). Default: 0.65
	KnockoutWeightThreshold float64 `json:"knockout_weight_threshold"`

	// CreditDiscountFactor scales how strongly an item's current memory
	// discounts incoming implicit credit. An item at full memory receives
	// only (1 - CreditDiscountFactor) of the flowed credit. Default: 0.8
	CreditDiscountFactor float64 `json:"credit_discount_factor"`

	// PenaltyPropagationFactor is the extra per-hop damping applied to
	// upward penalty flow, on top of edge weights. Upward penalty fades
	// faster than downward credit. Default: 0.5
	PenaltyPropagationFactor float64 `json:"penalty_propagation_factor"`

	// PassBase is the raw repetition-level gain for a passing review before
	// quality and learning-speed scaling. Default: 0.8
	PassBase float64 `json:"pass_base"`

	// PassQualityMultiplier scales the answer quality (0..1) contribution
	// to the repetition-level gain. Default: 0.4
	PassQualityMultiplier float64 `json:"pass_quality_multiplier"`

	// FailPenalty is the raw repetition-level loss for a failed review.
	// Must be negative. Default: -0.8
	FailPenalty float64 `json:"fail_penalty"`

	// MemoryPassBoost is the amount memory moves up after a pass, applied
	// after decay and clamped to [0,1]. Default: 0.5
	MemoryPassBoost float64 `json:"memory_pass_boost"`

	// MemoryFailReduction is the amount memory moves down after a fail,
	// applied after decay and clamped to [0,1]. Default: 0.3
	MemoryFailReduction float64 `json:"memory_fail_reduction"`

	// MinLearningSpeed is the lower bound for the per-item learning-speed
	// multiplier. Default: 0.5
	MinLearningSpeed float64 `json:"min_learning_speed"`

	// MaxLearningSpeed is the upper bound for the per-item learning-speed
	// multiplier. Default: 2.0
	MaxLearningSpeed float64 `json:"max_learning_speed"`

	// SpeedStep is the fixed adjustment applied by the learning-speed
	// calibrator when it moves the multiplier. Default: 0.1
	SpeedStep float64 `json:"speed_step"`

	// SlowLearnerImplicitCredit controls whether items with a learning
	// speed below 1.0 receive implicit credit from graph propagation.
	// Default: true
	SlowLearnerImplicitCredit bool `json:"slow_learner_implicit_credit"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		MemoryDueThreshold:        0.35,
		MinCreditThreshold:        0.05,
		MaxPropagationDepth:       3,
		KnockoutWeightThreshold:   0.65,
		CreditDiscountFactor:      0.8,
		PenaltyPropagationFactor:  0.5,
		PassBase:                  0.8,
		PassQualityMultiplier:     0.4,
		FailPenalty:               -0.8,
		MemoryPassBoost:           0.5,
		MemoryFailReduction:       0.3,
		MinLearningSpeed:          0.5,
		MaxLearningSpeed:          2.0,
		SpeedStep:                 0.1,
		SlowLearnerImplicitCredit: true,
	}
}

// OrDefault returns c, or DefaultConfig() when c is nil.
func (c *Config) OrDefault() *Config {
	if c == nil {
		return DefaultConfig()
	}
	return c
}
