package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/kerf/pkg/job"
	"github.com/pkg/errors"
)

// DefaultTimeout bounds a single evaluation unless WithTimeout says
// otherwise.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine's timeout.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned when a newer Evaluate call started while
	// this one was running.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// WithTimeout bounds each evaluation to d. A script still running after d
// is abandoned and Evaluate returns ErrTimeout. Zero or less waits for the
// script to finish.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// evalResult passes one evaluation's outcome back from its goroutine.
type evalResult struct {
	job    *job.Job
	errors []EvalError
	err    error
}

// waitWithTimeout waits up to timeout for a result from ch. A result whose
// generation is no longer current is dropped. An abandoned goroutine keeps
// running; its late result goes to the buffered channel and is discarded.
func waitWithTimeout(
	ch <-chan evalResult,
	timeout time.Duration,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*job.Job, []EvalError, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.job, res.errors, res.err

	case <-expired:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}
