package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ternion/internal/model"
	"ternion/internal/storage"
	ternapi "ternion/pkg/ternion"
)

const defaultDBPath = "ternion.db"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "load":
		return runLoad(ctx, args[1:])
	case "survey":
		return runSurvey(ctx, args[1:])
	case "test":
		return runTest(ctx, args[1:])
	case "attractors":
		return runAttractors(ctx, args[1:])
	case "results":
		return runResults(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "matrices":
		return runMatrices(ctx, args[1:])
	case "stats":
		return runStats(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func storeFlags(fs *flag.FlagSet) (storeKind, dbPath *string) {
	storeKind = fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath = fs.String("db-path", defaultDBPath, "sqlite database path")
	return storeKind, dbPath
}

func newClient(storeKind, dbPath string) (*ternapi.Client, error) {
	return ternapi.New(ternapi.Options{StoreKind: storeKind, DBPath: dbPath})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx); err != nil {
		return err
	}
	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runLoad(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	name := fs.String("name", "", "name to register the matrix under")
	file := fs.String("file", "", "matrix file (rows of integers, or JSON)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *file == "" {
		return usageError("load requires -name and -file")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Load(ctx, ternapi.LoadRequest{Name: *name, Path: *file})
	if err != nil {
		return err
	}
	fmt.Printf("loaded %s n=%d substitutions=%d\n", summary.Name, summary.N, summary.Substitutions)
	return nil
}

// loadIfRequested registers the matrix from -file before a command that
// consumes it, so memory-backed invocations are self-contained.
func loadIfRequested(ctx context.Context, client *ternapi.Client, name, file string) error {
	if file == "" {
		return nil
	}
	_, err := client.Load(ctx, ternapi.LoadRequest{Name: name, Path: file})
	return err
}

func runSurvey(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("survey", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	configPath := fs.String("config", "", "JSON survey config file")
	runID := fs.String("run-id", "", "run identifier")
	matrixName := fs.String("matrix", "", "registered matrix name")
	file := fs.String("file", "", "load the matrix from this file first")
	inputs := fs.Int("inputs", 0, "number of random start vectors")
	seed := fs.Int64("seed", 0, "master seed")
	maxSteps := fs.Int("max-steps", 0, "step budget per trajectory")
	window := fs.Int("history-window", 0, "cycle detection window")
	workers := fs.Int("workers", 0, "worker goroutines")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := loadOrDefaultSurveyRequest(*configPath)
	if err != nil {
		return err
	}
	overrideSurveyFromFlags(&req, fs, map[string]any{
		"run-id":         *runID,
		"matrix":         *matrixName,
		"inputs":         *inputs,
		"seed":           *seed,
		"max-steps":      *maxSteps,
		"history-window": *window,
		"workers":        *workers,
	})
	if req.Matrix == "" {
		return usageError("survey requires -matrix")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := loadIfRequested(ctx, client, req.Matrix, *file); err != nil {
		return err
	}

	record, err := client.Survey(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("survey %s matrix=%s inputs=%d converged=%d exhausted=%d attractors=%d\n",
		record.RunID, record.MatrixName, record.Inputs, record.Converged, record.Exhausted, len(record.Summary))
	for _, entry := range record.Summary {
		fmt.Printf("  length=%d count=%d first_seen=%d %s\n",
			entry.Length, entry.Count, entry.FirstSeen, entry.Key)
	}
	return nil
}

func runTest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	configPath := fs.String("config", "", "JSON campaign config file")
	runID := fs.String("run-id", "", "run identifier")
	matrixName := fs.String("matrix", "", "registered matrix name")
	file := fs.String("file", "", "load the matrix from this file first")
	statistic := fs.String("statistic", "", "registered statistic name")
	family := fs.String("family", "", "control family: uniform|matched|symmetric")
	direction := fs.String("direction", "", "extremeness tail: ge|le|abs")
	trials := fs.Int("trials", 0, "number of control matrices")
	alpha := fs.Float64("alpha", 0, "family-wise significance level")
	numTests := fs.Int("num-tests", 0, "declared number of simultaneous tests")
	seed := fs.Int64("seed", 0, "master seed")
	workers := fs.Int("workers", 0, "worker goroutines")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := loadOrDefaultTestRequest(*configPath)
	if err != nil {
		return err
	}
	overrideTestFromFlags(&req, fs, map[string]any{
		"run-id":    *runID,
		"matrix":    *matrixName,
		"statistic": *statistic,
		"family":    *family,
		"direction": *direction,
		"trials":    *trials,
		"alpha":     *alpha,
		"num-tests": *numTests,
		"seed":      *seed,
		"workers":   *workers,
	})
	if req.Matrix == "" {
		return usageError("test requires -matrix")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := loadIfRequested(ctx, client, req.Matrix, *file); err != nil {
		return err
	}

	result, err := client.Test(ctx, req)
	if err != nil {
		return err
	}
	printTestResult(result)
	return nil
}

func runAttractors(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("attractors", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	matrixName := fs.String("matrix", "", "registered matrix name")
	file := fs.String("file", "", "load the matrix from this file first")
	startSpec := fs.String("start", "", "comma separated start vector, e.g. 1,-1,0,1")
	maxSteps := fs.Int("max-steps", 0, "step budget")
	window := fs.Int("history-window", 0, "cycle detection window")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *matrixName == "" {
		return usageError("attractors requires -matrix")
	}

	start, err := parseStartVector(*startSpec)
	if err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := loadIfRequested(ctx, client, *matrixName, *file); err != nil {
		return err
	}

	report, err := client.Attractors(ctx, ternapi.AttractorsRequest{
		Matrix:        *matrixName,
		Start:         start,
		MaxSteps:      *maxSteps,
		HistoryWindow: *window,
	})
	if err != nil {
		return err
	}
	fmt.Printf("matrix=%s steps=%d reason=%s\n", report.Matrix, report.Steps, report.Reason)
	for _, state := range report.Cycle {
		fmt.Printf("  %s\n", formatState(state))
	}
	return nil
}

func runResults(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("results", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	runID := fs.String("run-id", "", "run identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("results requires -run-id")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	results, err := client.Results(ctx, *runID)
	if err != nil {
		return err
	}
	for _, result := range results {
		printTestResult(result)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	limit := fs.Int("limit", 0, "maximum number of runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, ternapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	for _, id := range runs {
		fmt.Println(id)
	}
	return nil
}

func runMatrices(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("matrices", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	names, err := client.Matrices(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	for _, name := range client.Statistics() {
		fmt.Println(name)
	}
	return nil
}

func printTestResult(result model.TestResult) {
	verdict := "not significant"
	if result.Significant {
		verdict = "significant"
	}
	fmt.Printf("%s family=%s direction=%s observed=%g trials=%d extreme=%d p=%g threshold=%g %s\n",
		result.Name, result.Family, result.Direction, result.Observed,
		result.Trials, result.ExtremeCount, result.PValue, result.Threshold, verdict)
}

func parseStartVector(spec string) (model.State, error) {
	if spec == "" {
		return nil, nil
	}
	tokens := strings.Split(spec, ",")
	state := make(model.State, len(tokens))
	for i, token := range tokens {
		v, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			return nil, fmt.Errorf("start vector component %d: %w", i, err)
		}
		if v < -1 || v > 1 {
			return nil, fmt.Errorf("start vector component %d out of range: %d", i, v)
		}
		state[i] = int8(v)
	}
	return state, nil
}

func formatState(state model.State) string {
	parts := make([]string, len(state))
	for i, v := range state {
		parts[i] = strconv.Itoa(int(v))
	}
	return strings.Join(parts, " ")
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: ternionctl <init|reset|load|survey|test|attractors|results|runs|matrices|stats> [flags]", msg)
}
