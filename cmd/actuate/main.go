package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/actuate/internal/config"
	"github.com/san-kum/actuate/internal/metrics"
	"github.com/san-kum/actuate/internal/operator"
	"github.com/san-kum/actuate/internal/optim"
	"github.com/san-kum/actuate/internal/robot"
	"github.com/san-kum/actuate/internal/scenario"
	"github.com/san-kum/actuate/internal/storage"
	"github.com/san-kum/actuate/internal/viz"
)

var (
	dataDir string
	verbose bool

	preset       string
	configFile   string
	scenarioName string
	duration     time.Duration
	decimate     int
	noSave       bool
	dropouts     int
	seed         int64

	plotColumns  []string
	statsColumns []string
	plotWidth    int

	frameRate int

	tuneScenario string
	tuneParams   []string
	tuneMetric   string

	batchScenario string
	batchRuns     int
	batchDropouts int
	batchSeed     int64
)

// main registers the actuate commands and executes the root command.
// It exits with status 1 if command execution returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:          "actuate",
		Short:        "simulated robot actuator bench",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", ".actuate", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scripted simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&scenarioName, "scenario", "", "builtin scenario name or scenario yaml path")
	runCmd.Flags().DurationVar(&duration, "time", 0, "duration (defaults to scenario, then config)")
	runCmd.Flags().IntVar(&decimate, "decimate", 5, "keep every Nth sample")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")
	runCmd.Flags().IntVar(&dropouts, "dropouts", 0, "number of random motor link dropouts to add")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "dropout random seed (0 uses the wall clock)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run columns",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVarP(&plotColumns, "column", "c", []string{"LF_setpoint", "LF_measured"}, "columns to plot")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")

	statsCmd := &cobra.Command{
		Use:   "stats [run_id]",
		Short: "summary statistics and dominant frequency of run columns",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats,
	}
	statsCmd.Flags().StringSliceVarP(&statsColumns, "column", "c", nil, "columns to summarize (default all)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "drive the robot from the keyboard",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", viz.DefaultFrameRate, "frame rate")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list robot presets and builtin scenarios",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %-16s %s\n", p, config.GetPreset(p).Drive)
			}
			fmt.Println("scenarios:")
			for _, n := range scenario.BuiltinNames() {
				sc, _ := scenario.Builtin(n)
				fmt.Printf("  %-16s %s\n", n, sc.Description)
			}
		},
	}

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "run a scenario many times with random link dropouts",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}
	addConfigFlags(batchCmd)
	batchCmd.Flags().StringVar(&batchScenario, "scenario", "square", "builtin scenario name or scenario yaml path")
	batchCmd.Flags().DurationVar(&duration, "time", 0, "duration (defaults to scenario, then config)")
	batchCmd.Flags().IntVarP(&batchRuns, "runs", "n", 8, "number of runs")
	batchCmd.Flags().IntVar(&batchDropouts, "dropouts", 2, "random motor link dropouts per run")
	batchCmd.Flags().Int64Var(&batchSeed, "seed", 1, "seed of the first run")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search wheel PID gains",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneScenario, "scenario", "square", "builtin scenario name or scenario yaml path")
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", []string{"kp=2:20:5"}, "parameter range name=lo:hi:n (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "tracking_error_rpm", "metric to minimize")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the resolved configuration as yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
	addConfigFlags(configCmd)

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, statsCmd, exportJSONCmd, exportCSVCmd, liveCmd, presetsCmd, batchCmd, tuneCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "robot preset")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml, overrides preset)")
}

func newLogger() (*zap.SugaredLogger, error) {
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return l.Sugar(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// resolveConfig loads --config, else --preset, else the default robot.
func resolveConfig() (*config.Config, error) {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load config")
		}
		return cfg, nil
	}
	if preset != "" {
		cfg := config.GetPreset(preset)
		if cfg == nil {
			return nil, errors.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

// resolveScenario returns nil for an empty name.
func resolveScenario(name string) (*scenario.Scenario, error) {
	if name == "" {
		return nil, nil
	}
	if sc, ok := scenario.Builtin(name); ok {
		return sc, nil
	}
	if _, err := os.Stat(name); err != nil {
		return nil, errors.Errorf("unknown scenario: %s (builtin: %v)", name, scenario.BuiltinNames())
	}
	return scenario.Load(name)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	sc, err := resolveScenario(scenarioName)
	if err != nil {
		return err
	}

	if dropouts > 0 {
		if sc == nil {
			sc = &scenario.Scenario{Name: "dropouts"}
		}
		if duration > 0 {
			sc.Truncate(duration)
		} else if sc.Duration <= 0 {
			sc.Duration = cfg.Duration
		}
		r, err := robot.New(cfg, nil, nil)
		if err != nil {
			return err
		}
		if err := sc.Dropouts(seed, dropouts, r.MotorNames(), 50*time.Millisecond, sc.Duration/4); err != nil {
			return err
		}
	}

	runner, err := robot.NewRunner(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	res, err := runner.Run(ctx, robot.RunConfig{Duration: duration, Decimate: decimate}, sc)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("robot: %s (%s)\n", cfg.Name, cfg.Drive)
	if sc != nil {
		fmt.Printf("scenario: %s\n", sc.Name)
	}
	fmt.Printf("steps: %d in %s\n", res.StepsTaken, elapsed.Round(time.Millisecond))
	for _, e := range res.Errors {
		fmt.Printf("tick error: %v\n", e)
	}
	printMetrics(res.Metrics)

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	run := &storage.Run{Config: cfg, Samples: res.Samples, Metrics: res.Metrics}
	if sc != nil {
		run.Scenario = sc.Name
	}
	runID, err := st.Save(run)
	if err != nil {
		return err
	}
	fmt.Printf("saved: %s\n", runID)
	return nil
}

func printMetrics(ms map[string]float64) {
	names := make([]string, 0, len(ms))
	for n := range ms {
		names = append(names, n)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	for _, n := range names {
		fmt.Fprintf(w, "%s\t%.4f\n", n, ms[n])
	}
	w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDRIVE\tSCENARIO\tTIME\tDURATION\tTICK\tTRACKING")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2fs\t%s\t%.1f\n",
			run.ID,
			run.Name,
			run.Drive,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.TickPeriod,
			run.Metrics["tracking_error_rpm"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return errors.New("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("robot: %s (%s)\n", meta.Name, meta.Drive)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := make([][]float64, 0, len(plotColumns))
	for _, col := range plotColumns {
		data, err := metrics.Series(samples, col)
		if err != nil {
			return err
		}
		series = append(series, data)
	}

	graph := asciigraph.PlotMany(series,
		asciigraph.Height(12),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(strings.Join(plotColumns, ", ")+" vs time"),
	)
	fmt.Println(graph)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	cols := statsColumns
	if len(cols) == 0 {
		cols = metrics.Columns()[1:]
	}

	rate := metrics.SampleRate(samples)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tN\tMEAN\tSTDDEV\tMIN\tMAX\tP95\tPEAK_HZ\tPEAK_AMP")
	for _, col := range cols {
		data, err := metrics.Series(samples, col)
		if err != nil {
			return err
		}
		s := metrics.Summarize(data)
		p := metrics.DominantFrequency(data, rate)
		fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.2f\t%.3f\n",
			col, s.N, s.Mean, s.StdDev, s.Min, s.Max, s.P95, p.Frequency, p.Amplitude)
	}
	return w.Flush()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).Export(os.Stdout, args[0])
}

func exportCSV(cmd *cobra.Command, args []string) error {
	samples, err := storage.New(dataDir).LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return errors.New("no data to export")
	}
	return storage.ExportCSV(os.Stdout, samples)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	// the terminal belongs to the view, so logs are dropped
	kb := operator.NewKeyboard(clock.New(), operator.DefaultHoldWindow)
	frame := time.Second / time.Duration(max(frameRate, 1))
	m, err := viz.NewModel(cfg, kb, frame, zap.NewNop().Sugar())
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	sc, err := resolveScenario(batchScenario)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := robot.NewEnsemble(cfg, sc, batchRuns, batchSeed, logger)
	e.Dropouts = batchDropouts
	results, err := e.Run(ctx, robot.RunConfig{Duration: duration, Decimate: 1 << 30})
	if err != nil {
		return err
	}

	byMetric := make(map[string][]float64)
	for _, res := range results {
		for name, v := range res.Metrics {
			byMetric[name] = append(byMetric[name], v)
		}
	}
	names := make([]string, 0, len(byMetric))
	for n := range byMetric {
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Printf("robot: %s  scenario: %s  runs: %d  dropouts/run: %d\n\n", cfg.Name, batchScenario, batchRuns, batchDropouts)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tMIN\tMAX\tP95")
	for _, n := range names {
		s := metrics.Summarize(byMetric[n])
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n", n, s.Mean, s.StdDev, s.Min, s.Max, s.P95)
	}
	return w.Flush()
}

func runTune(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	sc, err := resolveScenario(tuneScenario)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(tuneParams))
	ranges := make([][]float64, 0, len(tuneParams))
	for _, raw := range tuneParams {
		name, values, err := parseRange(raw)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	gs, err := optim.NewGridSearch(names, ranges, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("searching %d combinations of %v on %s\n", gs.Size(), names, tuneScenario)
	best, score, trials, err := gs.Search(ctx, optim.WheelObjective(cfg, sc, tuneMetric))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(tuneMetric))
	for _, t := range trials {
		row := make([]string, 0, len(names)+1)
		for _, n := range names {
			row = append(row, strconv.FormatFloat(t.Params[n], 'g', 4, 64))
		}
		row = append(row, strconv.FormatFloat(t.Score, 'f', 4, 64))
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()

	fmt.Printf("\nbest %s = %.4f with %v\n", tuneMetric, score, best)
	return nil
}

// parseRange reads name=lo:hi:n into n evenly spaced values.
func parseRange(raw string) (string, []float64, error) {
	name, rng, ok := strings.Cut(raw, "=")
	if !ok {
		return "", nil, errors.Errorf("bad parameter range %q, want name=lo:hi:n", raw)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return "", nil, errors.Errorf("bad parameter range %q, want name=lo:hi:n", raw)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, errors.Wrapf(err, "parameter %s", name)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, errors.Wrapf(err, "parameter %s", name)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, errors.Errorf("parameter %s: bad count %q", name, parts[2])
	}
	return name, optim.Linspace(lo, hi, n), nil
}
