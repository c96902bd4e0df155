package platform

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"ternion/internal/attractor"
	"ternion/internal/model"
	"ternion/internal/sim"
	"ternion/internal/storage"
)

type SurveyConfig struct {
	RunID      string
	MatrixName string

	// Inputs are explicit start vectors. When empty, InputCount random
	// ternary vectors are drawn from Seed before any worker starts, so
	// the probe set is independent of scheduling.
	Inputs     []model.State
	InputCount int
	Seed       int64

	MaxSteps      int
	HistoryWindow int
	Workers       int
}

// RunSurvey simulates every input against the named matrix, aggregates
// the detected cycles into per-worker catalogs merged afterwards, and
// persists the summary. The outcome is independent of how trials are
// scheduled across workers: catalog entries are keyed by canonical cycle
// and ordered by trial index.
func (l *Lab) RunSurvey(ctx context.Context, cfg SurveyConfig) (model.SurveyRecord, error) {
	if cfg.MatrixName == "" {
		return model.SurveyRecord{}, fmt.Errorf("matrix name is required")
	}
	store, ok, err := l.GetMatrix(ctx, cfg.MatrixName)
	if err != nil {
		return model.SurveyRecord{}, err
	}
	if !ok {
		return model.SurveyRecord{}, fmt.Errorf("matrix not registered: %s", cfg.MatrixName)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	inputs := cfg.Inputs
	if len(inputs) == 0 {
		if cfg.InputCount <= 0 {
			return model.SurveyRecord{}, fmt.Errorf("survey needs inputs or a positive input count")
		}
		inputs = randomTernaryInputs(rand.New(rand.NewSource(cfg.Seed)), cfg.InputCount, store.N())
	}

	runID := cfg.RunID
	if runID == "" {
		runID = fmt.Sprintf("survey:%s:%d", cfg.MatrixName, cfg.Seed)
	}

	weights := store.Matrix()
	opts := sim.Options{MaxSteps: cfg.MaxSteps, HistoryWindow: cfg.HistoryWindow}

	type job struct {
		idx   int
		start model.State
	}
	type workerState struct {
		catalog   *attractor.Catalog
		converged int
		exhausted int
		err       error
	}

	workerCount := cfg.Workers
	if workerCount > len(inputs) {
		workerCount = len(inputs)
	}

	jobs := make(chan job)
	workers := make([]workerState, workerCount)

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func(state *workerState) {
			defer wg.Done()
			state.catalog = attractor.NewCatalog()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					state.err = err
					continue
				}
				result, err := sim.Run(weights, j.start, opts)
				if err != nil {
					state.err = err
					continue
				}
				if !result.Converged() {
					state.exhausted++
					continue
				}
				state.converged++
				if err := state.catalog.RecordAt(result.Cycle, j.idx); err != nil {
					state.err = err
				}
			}
		}(&workers[w])
	}

	for i := range inputs {
		jobs <- job{idx: i, start: inputs[i]}
	}
	close(jobs)
	wg.Wait()

	merged := attractor.NewCatalog()
	converged, exhausted := 0, 0
	for i := range workers {
		if workers[i].err != nil {
			return model.SurveyRecord{}, workers[i].err
		}
		merged.Merge(workers[i].catalog)
		converged += workers[i].converged
		exhausted += workers[i].exhausted
	}

	record := model.SurveyRecord{
		VersionedRecord: storage.Stamp(),
		RunID:           runID,
		MatrixName:      cfg.MatrixName,
		Inputs:          len(inputs),
		Converged:       converged,
		Exhausted:       exhausted,
		Seed:            cfg.Seed,
		Summary:         merged.Summary(),
	}
	if err := l.store.SaveSurvey(ctx, record); err != nil {
		return model.SurveyRecord{}, err
	}
	return record, nil
}

func randomTernaryInputs(rng *rand.Rand, count, n int) []model.State {
	inputs := make([]model.State, count)
	for i := range inputs {
		state := make(model.State, n)
		for j := range state {
			state[j] = int8(rng.Intn(3) - 1)
		}
		inputs[i] = state
	}
	return inputs
}
