// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the break-even search for one scenario lever.
type Summary struct {
	TargetName      string   `json:"targetName"`
	Field           string   `json:"field"`
	Original        float64  `json:"original"`
	Value           float64  `json:"value"`
	Floor           float64  `json:"floor"`
	MinimumSurplus  float64  `json:"minimumSurplus"`
	Headroom        float64  `json:"headroom"`
	Iterations      int      `json:"iterations"`
	Converged       bool     `json:"converged"`
	Notes           []string `json:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty"`
}
