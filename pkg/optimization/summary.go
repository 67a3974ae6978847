// Package optimization provides shared data structures for allocation search results.
package optimization

// Summary captures the result of a single search directive.
type Summary struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Strategy    string   `json:"strategy"`
	X1A         float64  `json:"x1A"`
	X2A         float64  `json:"x2A"`
	X1B         float64  `json:"x1B"`
	X2B         float64  `json:"x2B"`
	UtilityA    float64  `json:"utilityA"`
	UtilityB    float64  `json:"utilityB"`
	Welfare     float64  `json:"welfare"`
	Price       *float64 `json:"price,omitempty"`
	Improved    bool     `json:"improved"`
	Resolution  int      `json:"resolution,omitempty"`
	Evaluations int      `json:"evaluations"`
	Rejected    int      `json:"rejected"`
	Iterations  int      `json:"iterations"`
	Converged   bool     `json:"converged"`
	// MaxViolation is the constraint slack an optimizer search used.
	MaxViolation float64 `json:"maxViolation,omitempty"`
	// SetSize is the number of allocations found by a Pareto set enumeration.
	SetSize int      `json:"setSize,omitempty"`
	Error   string   `json:"error,omitempty"`
	Notes   []string `json:"notes,omitempty"`
}

// Objective returns the value the search maximized: the planner maximizes
// welfare, every other kind consumer A's utility.
func (s Summary) Objective() float64 {
	if s.Kind == "planner" {
		return s.Welfare
	}
	return s.UtilityA
}

// Failed reports whether the search ended in an error.
func (s Summary) Failed() bool {
	return s.Error != ""
}
