// Package ternion is the public façade over the matrix lab: loading
// matrices, surveying their attractor structure, and running
// significance campaigns against generated control matrices.
package ternion

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"ternion/internal/attractor"
	"ternion/internal/matrix"
	"ternion/internal/model"
	"ternion/internal/platform"
	"ternion/internal/sim"
	"ternion/internal/stat"
	"ternion/internal/storage"
)

const defaultDBPath = "ternion.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
	lab   *platform.Lab
}

type LoadRequest struct {
	Name string
	Path string

	// Reader takes precedence over Path when set.
	Reader io.Reader
}

type LoadSummary struct {
	Name          string
	N             int
	Substitutions int
}

type SurveyRequest struct {
	RunID      string
	Matrix     string
	Inputs     []model.State
	InputCount int
	Seed       int64

	MaxSteps      int
	HistoryWindow int
	Workers       int
}

type TestRequest struct {
	RunID     string
	Matrix    string
	Statistic string
	Family    string
	Direction string

	Trials   int
	Alpha    float64
	NumTests int

	Seed    int64
	Workers int
}

type AttractorsRequest struct {
	Matrix string
	Start  model.State

	MaxSteps      int
	HistoryWindow int
}

type AttractorReport struct {
	Matrix string
	Steps  int
	Reason string
	Cycle  []model.State
}

type RunsRequest struct {
	Limit int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensureLab(ctx)
	return err
}

func (c *Client) Reset(ctx context.Context) error {
	lab, err := c.ensureLab(ctx)
	if err != nil {
		return err
	}
	return lab.Reset(ctx)
}

// Load parses a matrix from a file or reader, registers it under the
// given name, and persists it.
func (c *Client) Load(ctx context.Context, req LoadRequest) (LoadSummary, error) {
	if req.Name == "" {
		return LoadSummary{}, fmt.Errorf("matrix name is required")
	}

	reader := req.Reader
	if reader == nil {
		if req.Path == "" {
			return LoadSummary{}, fmt.Errorf("either a path or a reader is required")
		}
		file, err := os.Open(req.Path)
		if err != nil {
			return LoadSummary{}, err
		}
		defer file.Close()
		reader = file
	}

	m, err := matrix.Parse(reader)
	if err != nil {
		return LoadSummary{}, err
	}
	m.Name = req.Name

	lab, err := c.ensureLab(ctx)
	if err != nil {
		return LoadSummary{}, err
	}
	if err := lab.RegisterMatrix(ctx, m); err != nil {
		return LoadSummary{}, err
	}
	return LoadSummary{Name: m.Name, N: m.N, Substitutions: m.Substitutions}, nil
}

func (c *Client) Survey(ctx context.Context, req SurveyRequest) (model.SurveyRecord, error) {
	if req.InputCount <= 0 && len(req.Inputs) == 0 {
		req.InputCount = 100
	}
	lab, err := c.ensureLab(ctx)
	if err != nil {
		return model.SurveyRecord{}, err
	}
	return lab.RunSurvey(ctx, platform.SurveyConfig{
		RunID:         req.RunID,
		MatrixName:    req.Matrix,
		Inputs:        req.Inputs,
		InputCount:    req.InputCount,
		Seed:          req.Seed,
		MaxSteps:      req.MaxSteps,
		HistoryWindow: req.HistoryWindow,
		Workers:       req.Workers,
	})
}

func (c *Client) Test(ctx context.Context, req TestRequest) (model.TestResult, error) {
	if req.Statistic == "" {
		req.Statistic = "total_sum"
	}
	if req.Family == "" {
		req.Family = string(model.FamilyUniform)
	}
	if req.Direction == "" {
		req.Direction = string(model.DirectionAbs)
	}
	if req.Trials <= 0 {
		req.Trials = 1000
	}
	if req.Alpha <= 0 {
		req.Alpha = 0.05
	}
	if req.NumTests <= 0 {
		req.NumTests = 1
	}
	lab, err := c.ensureLab(ctx)
	if err != nil {
		return model.TestResult{}, err
	}
	return lab.RunSignificance(ctx, platform.CampaignConfig{
		RunID:      req.RunID,
		MatrixName: req.Matrix,
		Statistic:  req.Statistic,
		Family:     model.ControlFamily(req.Family),
		Direction:  model.Direction(req.Direction),
		Trials:     req.Trials,
		Alpha:      req.Alpha,
		NumTests:   req.NumTests,
		Seed:       req.Seed,
		Workers:    req.Workers,
	})
}

// Attractors runs a single trajectory from the given start vector and
// reports the detected cycle in canonical rotation.
func (c *Client) Attractors(ctx context.Context, req AttractorsRequest) (AttractorReport, error) {
	lab, err := c.ensureLab(ctx)
	if err != nil {
		return AttractorReport{}, err
	}
	store, ok, err := lab.GetMatrix(ctx, req.Matrix)
	if err != nil {
		return AttractorReport{}, err
	}
	if !ok {
		return AttractorReport{}, fmt.Errorf("matrix not registered: %s", req.Matrix)
	}

	result, err := sim.Run(store.Matrix(), req.Start, sim.Options{
		MaxSteps:      req.MaxSteps,
		HistoryWindow: req.HistoryWindow,
	})
	if err != nil {
		return AttractorReport{}, err
	}

	report := AttractorReport{
		Matrix: req.Matrix,
		Steps:  result.Steps,
		Reason: string(result.Reason),
	}
	if result.Converged() {
		canonical, err := attractor.Canonicalize(result.Cycle)
		if err != nil {
			return AttractorReport{}, err
		}
		report.Cycle = canonical.States
	}
	return report, nil
}

func (c *Client) Results(ctx context.Context, runID string) ([]model.TestResult, error) {
	lab, err := c.ensureLab(ctx)
	if err != nil {
		return nil, err
	}
	results, ok, err := lab.Store().GetTestResults(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no results for run: %s", runID)
	}
	return results, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]string, error) {
	lab, err := c.ensureLab(ctx)
	if err != nil {
		return nil, err
	}
	runs, err := lab.Store().ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(runs)
	if req.Limit > 0 && len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}
	return runs, nil
}

func (c *Client) Matrices(ctx context.Context) ([]string, error) {
	lab, err := c.ensureLab(ctx)
	if err != nil {
		return nil, err
	}
	return lab.Store().ListMatrices(ctx)
}

// Statistics lists the registered statistic names.
func (c *Client) Statistics() []string {
	return stat.List()
}

func (c *Client) ensureLab(ctx context.Context) (*platform.Lab, error) {
	if c.lab != nil {
		return c.lab, nil
	}
	lab := platform.NewLab(platform.Config{Store: c.store})
	if err := lab.Init(ctx); err != nil {
		return nil, err
	}
	c.lab = lab
	return c.lab, nil
}
