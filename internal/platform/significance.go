package platform

import (
	"context"
	"fmt"
	"sync"

	"ternion/internal/control"
	"ternion/internal/model"
	"ternion/internal/sigtest"
	"ternion/internal/stat"
	"ternion/internal/storage"
)

type CampaignConfig struct {
	RunID      string
	MatrixName string

	// Statistic names a registered statistic; Family selects the control
	// family; Direction declares the extremeness tail up front.
	Statistic string
	Family    model.ControlFamily
	Direction model.Direction

	// NumTests is the declared size of the simultaneous hypothesis
	// family. It must be stated here, before any statistic is computed.
	Trials   int
	Alpha    float64
	NumTests int

	Seed    int64
	Workers int
}

// RunSignificance computes the observed statistic on the real matrix,
// generates Trials control matrices, computes the same statistic on each,
// and evaluates the empirical p-value against the Bonferroni-corrected
// threshold. Trial i always uses the RNG seeded with Seed+i, so the set
// of control statistics is reproducible no matter how many workers run
// or in what order trials finish.
func (l *Lab) RunSignificance(ctx context.Context, cfg CampaignConfig) (model.TestResult, error) {
	if cfg.MatrixName == "" {
		return model.TestResult{}, fmt.Errorf("matrix name is required")
	}
	if cfg.Trials <= 0 {
		return model.TestResult{}, fmt.Errorf("%w: %d", sigtest.ErrInvalidTrialCount, cfg.Trials)
	}
	statistic, err := stat.Get(cfg.Statistic)
	if err != nil {
		return model.TestResult{}, err
	}
	store, ok, err := l.GetMatrix(ctx, cfg.MatrixName)
	if err != nil {
		return model.TestResult{}, err
	}
	if !ok {
		return model.TestResult{}, fmt.Errorf("matrix not registered: %s", cfg.MatrixName)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	source := store.Matrix()
	observed, err := statistic(source)
	if err != nil {
		return model.TestResult{}, fmt.Errorf("observed statistic %s: %w", cfg.Statistic, err)
	}

	type job struct {
		idx int
	}
	type trialResult struct {
		idx   int
		value float64
		err   error
	}

	workerCount := cfg.Workers
	if workerCount > cfg.Trials {
		workerCount = cfg.Trials
	}

	jobs := make(chan job)
	results := make(chan trialResult, cfg.Trials)

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- trialResult{idx: j.idx, err: err}
					continue
				}
				generator := control.NewGenerator(cfg.Seed + int64(j.idx))
				ctrl, err := generator.Generate(cfg.Family, source)
				if err != nil {
					results <- trialResult{idx: j.idx, err: err}
					continue
				}
				value, err := statistic(ctrl.Matrix)
				if err != nil {
					results <- trialResult{idx: j.idx, err: fmt.Errorf("control statistic %s: %w", cfg.Statistic, err)}
					continue
				}
				results <- trialResult{idx: j.idx, value: value}
			}
		}()
	}

	for i := 0; i < cfg.Trials; i++ {
		jobs <- job{idx: i}
	}
	close(jobs)
	wg.Wait()
	close(results)

	controls := make([]float64, cfg.Trials)
	for res := range results {
		if res.err != nil {
			return model.TestResult{}, res.err
		}
		controls[res.idx] = res.value
	}

	result, err := sigtest.Evaluate(observed, controls, sigtest.Params{
		Name:      cfg.Statistic,
		Family:    cfg.Family,
		Direction: cfg.Direction,
		Alpha:     cfg.Alpha,
		NumTests:  cfg.NumTests,
	})
	if err != nil {
		return model.TestResult{}, err
	}
	result.VersionedRecord = storage.Stamp()

	runID := cfg.RunID
	if runID == "" {
		runID = fmt.Sprintf("test:%s:%d", cfg.MatrixName, cfg.Seed)
	}
	if err := l.store.AppendTestResult(ctx, runID, result); err != nil {
		return model.TestResult{}, err
	}
	return result, nil
}
