package equilibrium

import (
	"go.uber.org/zap"
)

// Iteration is one step of the tatonnement loop as seen by an Observer.
type Iteration struct {
	Step         int     `json:"step"`
	Price        float64 `json:"price"`
	ExcessDemand float64 `json:"excessDemand"`
	Final        bool    `json:"final"`
}

// Observer receives progress from the solver loop. It must not retain
// mutable state shared with the solver.
type Observer interface {
	Observe(it Iteration)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(it Iteration)

// Observe calls f(it).
func (f ObserverFunc) Observe(it Iteration) {
	f(it)
}

type nopObserver struct{}

func (nopObserver) Observe(Iteration) {}

// Trace collects every iteration in memory.
type Trace struct {
	Iterations []Iteration
}

// Observe appends it to the trace.
func (t *Trace) Observe(it Iteration) {
	t.Iterations = append(t.Iterations, it)
}

// Last returns the final recorded iteration.
func (t *Trace) Last() (Iteration, bool) {
	if len(t.Iterations) == 0 {
		return Iteration{}, false
	}
	return t.Iterations[len(t.Iterations)-1], true
}

// LogObserver logs the first few iterations, every interval-th iteration
// after that, and the final one. An interval of zero or less logs everything.
func LogObserver(logger *zap.Logger, interval int) Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	const head = 5
	return ObserverFunc(func(it Iteration) {
		if !it.Final && interval > 0 && it.Step >= head && it.Step%interval != 0 {
			return
		}
		logger.Debug("tatonnement step",
			zap.String("op", "equilibrium.Solve"),
			zap.Int("step", it.Step),
			zap.Float64("p1", it.Price),
			zap.Float64("excessDemand", it.ExcessDemand),
			zap.Bool("final", it.Final),
		)
	})
}

// MultiObserver fans an iteration out to several observers in order.
func MultiObserver(observers ...Observer) Observer {
	return ObserverFunc(func(it Iteration) {
		for _, o := range observers {
			if o != nil {
				o.Observe(it)
			}
		}
	})
}
