package pipeline

import "fmt"

// Settings are the recognition parameters adjustable while running.
type Settings struct {
	Strategy      string  `json:"strategy"`
	Tolerance     float64 `json:"tolerance"`
	MinConfidence float64 `json:"min_confidence"`
	ProcessEveryN int     `json:"process_every_n"`
}

// Settings returns the current recognition parameters.
func (p *Processor) Settings() Settings {
	return Settings{
		Strategy:      p.matcher.Strategy.Name,
		Tolerance:     p.matcher.Strategy.Tolerance,
		MinConfidence: p.opts.MinConfidence,
		ProcessEveryN: p.opts.ProcessEveryN,
	}
}

// SetTolerance changes the match threshold of the active strategy.
func (p *Processor) SetTolerance(tolerance float64) error {
	if tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %v", tolerance)
	}
	p.matcher.Strategy.Tolerance = tolerance
	return nil
}

// SetMinConfidence changes the detection score threshold.
func (p *Processor) SetMinConfidence(confidence float64) error {
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("min confidence must be within [0, 1], got %v", confidence)
	}
	p.opts.MinConfidence = confidence
	return nil
}
