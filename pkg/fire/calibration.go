package fire

import "time"

// Calibration window and trip points. The calibrator is a coarse hysteresis
// controller, not a continuous estimator; small samples must not make it
// oscillate.
const (
	// calibrationMinResults is the minimum number of recorded results
	// before the calibrator adjusts anything.
	calibrationMinResults = 3

	// calibrationWindow is how many of the most recent results are
	// examined.
	calibrationWindow = 10

	// unexpectedFailureLimit is the count of unexpected failures in the
	// window above which the learning speed is decreased.
	unexpectedFailureLimit = 2

	// unexpectedSuccessLimit is the count of unexpected successes in the
	// window above which the learning speed is increased.
	unexpectedSuccessLimit = 3
)

// RepetitionResult records one review outcome together with the engine's
// expectation at review time. It exists only to feed calibration.
type RepetitionResult struct {
	// Passed reports whether the learner answered correctly.
	Passed bool `json:"passed"`

	// ExpectedToPass reports whether the decayed memory at review time
	// predicted a pass.
	ExpectedToPass bool `json:"expected_to_pass"`

	// Timestamp is when the review happened.
	Timestamp time.Time `json:"timestamp"`
}

// Unexpected reports whether the outcome contradicted the expectation.
func (r RepetitionResult) Unexpected() bool {
	return r.Passed != r.ExpectedToPass
}

// CalibrateLearningSpeed returns the adjusted learning speed for an item
// given its recent review results.
//
// With fewer than 3 results the speed is unchanged. Otherwise the last 10
// results are examined: more than 2 unexpected failures decrease the speed
// by SpeedStep (floored at MinLearningSpeed); more than 3 unexpected
// successes increase it by SpeedStep (capped at MaxLearningSpeed). Anything
// in between leaves the speed alone.
func CalibrateLearningSpeed(state ItemMemoryState, recent []RepetitionResult, cfg *Config) float64 {
	cfg = cfg.OrDefault()
	speed := Clamp(state, cfg).LearningSpeed

	if len(recent) < calibrationMinResults {
		return speed
	}

	window := recent
	if len(window) > calibrationWindow {
		window = window[len(window)-calibrationWindow:]
	}

	var unexpectedFailures, unexpectedSuccesses int
	for _, r := range window {
		if !r.Unexpected() {
			continue
		}
		if r.Passed {
			unexpectedSuccesses++
		} else {
			unexpectedFailures++
		}
	}

	switch {
	case unexpectedFailures > unexpectedFailureLimit:
		speed -= cfg.SpeedStep
		if speed < cfg.MinLearningSpeed {
			speed = cfg.MinLearningSpeed
		}
	case unexpectedSuccesses > unexpectedSuccessLimit:
		speed += cfg.SpeedStep
		if speed > cfg.MaxLearningSpeed {
			speed = cfg.MaxLearningSpeed
		}
	}
	return speed
}
