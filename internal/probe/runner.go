package probe

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"

	"github.com/tangentlab/nabla/pkg/logger"
)

// Config controls a probe run.
type Config struct {
	BaseURL   string
	SuitePath string // empty means the built-in suite
	Workers   int
	Timeout   time.Duration
	Verbose   bool
}

// Stats accumulates run statistics.
type Stats struct {
	Total     int
	Passed    int
	Failed    int
	StartTime time.Time
	Duration  time.Duration
}

// outcome is the verdict for one case.
type outcome struct {
	caseName string
	err      error
}

// Run executes a suite against a running service. It returns
// ErrCasesFailed when any case fails, so callers can map the verdict to
// a process exit code.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	log := logger.Get().Named("probe")

	suite := DefaultSuite()
	if cfg.SuitePath != "" {
		var err error
		suite, err = LoadSuite(cfg.SuitePath)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	stats := &Stats{Total: len(suite.Cases), StartTime: time.Now()}

	log.Info(ctx, "starting probe run",
		logger.String("suite", suite.Name),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("cases", len(suite.Cases)),
		logger.Int("workers", cfg.Workers),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.health(ctx); err != nil {
		return stats, err
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	// Fan the cases out over a bounded worker set.
	caseCh := make(chan Case)
	outcomes := make(chan outcome, len(suite.Cases))
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tc := range caseCh {
				outcomes <- outcome{caseName: tc.Name, err: runCase(runCtx, c, tc)}
			}
		}()
	}
	for _, tc := range suite.Cases {
		caseCh <- tc
	}
	close(caseCh)
	wg.Wait()
	close(outcomes)

	for o := range outcomes {
		if o.err != nil {
			stats.Failed++
			log.Error(ctx, "case failed",
				logger.String("case", o.caseName),
				logger.Error(o.err),
			)
			continue
		}
		stats.Passed++
		if cfg.Verbose {
			log.Info(ctx, "case passed", logger.String("case", o.caseName))
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "probe run finished",
		logger.Int("total", stats.Total),
		logger.Int("passed", stats.Passed),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
	)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrCasesFailed, stats.Failed, stats.Total)
	}
	return stats, nil
}

// runCase submits one case, waits for its result, and verifies it.
func runCase(ctx context.Context, c *client, tc Case) error {
	taskID := uuid.NewString()

	if err := c.submit(ctx, taskID, tc); err != nil {
		return err
	}
	doc, err := c.poll(ctx, taskID)
	if err != nil {
		return err
	}

	if doc.Error != "" {
		return fmt.Errorf("evaluation failed: %s", doc.Error)
	}
	if err := compareVector(tc.Primal, doc.Primal, tc.tolerance()); err != nil {
		return fmt.Errorf("primal mismatch: %w", err)
	}
	if err := compareMatrix(tc.Jacobian, doc.Jacobian, tc.tolerance()); err != nil {
		return fmt.Errorf("jacobian mismatch: %w", err)
	}
	return runChecks(tc.Checks, doc.raw)
}

// runChecks evaluates JSONPath assertions against the result document.
func runChecks(checks []Check, doc any) error {
	for _, chk := range checks {
		got, err := jsonpath.Get(chk.Path, doc)
		if err != nil {
			return fmt.Errorf("check %s: %w", chk.Path, err)
		}
		if !looseEqual(got, chk.Equals) {
			return fmt.Errorf("check %s: got %v, want %v", chk.Path, got, chk.Equals)
		}
	}
	return nil
}

// looseEqual compares a JSONPath result with a YAML-decoded expectation,
// tolerating the int/float64 mismatch between the two decoders.
func looseEqual(got, want any) bool {
	if gf, ok := toFloat(got); ok {
		if wf, ok := toFloat(want); ok {
			return gf == wf
		}
	}
	return reflect.DeepEqual(got, want)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func compareVector(want, got []float64, tol float64) error {
	if want == nil {
		return nil
	}
	if len(want) != len(got) {
		return fmt.Errorf("length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > tol {
			return fmt.Errorf("index %d: %v, want %v (tolerance %v)", i, got[i], want[i], tol)
		}
	}
	return nil
}

func compareMatrix(want, got [][]float64, tol float64) error {
	if want == nil {
		return nil
	}
	if len(want) != len(got) {
		return fmt.Errorf("rows %d, want %d", len(got), len(want))
	}
	for i := range want {
		if err := compareVector(want[i], got[i], tol); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}
