package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/takosim/internal/analysis"
	"github.com/san-kum/takosim/internal/config"
	"github.com/san-kum/takosim/internal/experiment"
	"github.com/san-kum/takosim/internal/export"
	"github.com/san-kum/takosim/internal/feedback"
	"github.com/san-kum/takosim/internal/input"
	"github.com/san-kum/takosim/internal/lifecycle"
	"github.com/san-kum/takosim/internal/logger"
	"github.com/san-kum/takosim/internal/mesh"
	"github.com/san-kum/takosim/internal/optim"
	"github.com/san-kum/takosim/internal/sim"
	"github.com/san-kum/takosim/internal/storage"
	"github.com/san-kum/takosim/internal/viz"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	logFile    string

	dt         float64
	duration   float64
	seed       uint64
	shaper     string
	source     string
	scriptFile string
	resolution int
	panTemp    float64
	smooth     bool
	sets       []string

	// bench
	numRuns  int
	parallel int
	// tune
	grid      []string
	objective string
	// export
	outFile string
	// phase plot axes
	xField string
	yField string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "takosim",
		Short: "takoyaki pan simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.InitWithWriters(logLevel, fileConfig(), consoleFor(cmd))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".takosim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "rotating log file")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a headless session and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSession,
	}
	addSessionFlags(runCmd)

	resumeCmd := &cobra.Command{
		Use:   "resume [run_id]",
		Short: "continue a stored run from its closing snapshot",
		Long:  "Restores the ball, solver, heat, shaper and lifecycle from the run's snapshot. Input is not snapshotted: the provider and any smoothing filter start fresh, so the input replays from t=0.",
		Args:  cobra.ExactArgs(1),
		RunE:  resumeRun,
	}
	addSessionFlags(resumeCmd)

	playCmd := &cobra.Command{
		Use:   "play [preset]",
		Short: "live session driven from the keyboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := buildConfig(cmd, args)
			if err != nil {
				return err
			}
			return viz.RunPlay(cfg)
		},
	}
	addSessionFlags(playCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and score",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot cook, shaping progress and mastery",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "plot one recorded field against another",
		Args:  cobra.MaximumNArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&xField, "x", "spin", "x field")
	phaseCmd.Flags().StringVar(&yField, "y", "progress", "y field")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "rotation cadence spectrum",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			runID, err := resolveRun(st, args)
			if err != nil {
				return err
			}
			return st.ExportRun(runID, outFile)
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the cook trajectory as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}

	exportOBJCmd := &cobra.Command{
		Use:   "export-obj [run_id]",
		Short: "export the final deformed ball as Wavefront OBJ",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportOBJ,
	}
	for _, c := range []*cobra.Command{exportJSONCmd, exportCSVCmd, exportSVGCmd, exportOBJCmd} {
		c.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	}

	compareCmd := &cobra.Command{
		Use:   "compare [preset]",
		Short: "compare every shaper on the same input",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareShapers,
	}
	addSessionFlags(compareCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "run many seeds in parallel and summarize",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchSeeds,
	}
	addSessionFlags(benchCmd)
	benchCmd.Flags().IntVar(&numRuns, "runs", 16, "number of seeds")
	benchCmd.Flags().IntVar(&parallel, "parallel", 0, "max concurrent runs (0 = unlimited)")

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search over config parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneParams,
	}
	addSessionFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "param=lo:hi:n, repeatable")
	tuneCmd.Flags().StringVar(&objective, "objective", "score", "score or a metric name to minimize")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, p := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", p, config.DescribePreset(p))
			}
			return w.Flush()
		},
	}

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "list metrics, shapers, input sources and tunable params",
		Run: func(cmd *cobra.Command, args []string) {
			reg := experiment.NewRegistry()
			fmt.Printf("metrics: %s\n", strings.Join(reg.ListMetrics(), ", "))
			fmt.Printf("shapers: %s\n", strings.Join(reg.ListShapers(), ", "))
			fmt.Printf("sources: %s\n", strings.Join(reg.ListSources(), ", "))
			fmt.Printf("params:  %s\n", strings.Join(config.Params, ", "))
		},
	}

	rootCmd.AddCommand(runCmd, resumeCmd, playCmd, listCmd, showCmd, plotCmd, phaseCmd, analyzeCmd,
		exportJSONCmd, exportCSVCmd, exportSVGCmd, exportOBJCmd, compareCmd, benchCmd, tuneCmd,
		presetsCmd, metricsCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func fileConfig() logger.FileConfig {
	if logFile == "" {
		return logger.FileConfig{}
	}
	return logger.DefaultFileConfig(logFile)
}

func consoleFor(cmd *cobra.Command) io.Writer {
	// the live views own the terminal, so they only log to a file
	if cmd.Name() == "play" || cmd == cmd.Root() {
		return nil
	}
	return os.Stderr
}

// applyLogging re-initializes the logger from a config file's logging
// section unless the matching flags were given.
func applyLogging(cmd *cobra.Command, cfg *config.Config) error {
	pf := cmd.Root().PersistentFlags()
	level, file := logLevel, fileConfig()
	if !pf.Changed("log-level") && cfg.Logging.Level != "" {
		level = cfg.Logging.Level
	}
	if !pf.Changed("log-file") && cfg.Logging.File.Path != "" {
		file = cfg.Logging.File
	}
	return logger.InitWithWriters(level, file, consoleFor(cmd))
}

func addSessionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.Float64Var(&dt, "dt", 1.0/60, "timestep")
	f.Float64Var(&duration, "time", 120, "duration in seconds (0 = until input ends)")
	f.Uint64Var(&seed, "seed", config.DefaultSeed, "random seed")
	f.StringVar(&shaper, "shaper", config.DefaultShaper, "shaper (reference, fast)")
	f.StringVar(&source, "source", config.SourceSynthetic, "input source ("+strings.Join(config.Sources, ", ")+")")
	f.StringVar(&scriptFile, "script", "", "input script (yaml), implies --source script")
	f.IntVar(&resolution, "resolution", config.DefaultResolution, "sphere resolution")
	f.Float64Var(&panTemp, "temp", input.DefaultPanTemperature, "pan temperature")
	f.BoolVar(&smooth, "smooth", false, "kalman-smooth the gyro")
	f.StringArrayVar(&sets, "set", nil, "param=value override, repeatable")
}

// buildConfig layers preset, config file and explicitly set flags, in that
// order. It also returns a name for the run.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	name := "default"
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		p := config.GetPreset(args[0])
		if p == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		cfg, name = p, args[0]
	}
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		if err := applyLogging(cmd, cfg); err != nil {
			return nil, "", err
		}
	}

	f := cmd.Flags()
	if f.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if f.Changed("time") {
		cfg.Run.Duration = duration
		cfg.Input.Synthetic.Duration = duration
	}
	if f.Changed("seed") {
		cfg.Session.Seed = seed
		cfg.Input.Synthetic.Seed = seed
	}
	if f.Changed("shaper") {
		cfg.Session.Shaper = shaper
	}
	if f.Changed("source") {
		cfg.Input.Source = source
	}
	if f.Changed("script") {
		cfg.Input.Source = config.SourceScript
		cfg.Input.Script = scriptFile
	}
	if f.Changed("resolution") {
		cfg.Session.Resolution = resolution
	}
	if f.Changed("temp") {
		if err := cfg.SetParam("pan_temperature", panTemp); err != nil {
			return nil, "", err
		}
	}
	if f.Changed("smooth") {
		cfg.Input.Smooth = smooth
	}
	for _, kv := range sets {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, "", fmt.Errorf("bad --set %q, want param=value", kv)
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, "", fmt.Errorf("bad --set %q: %w", kv, err)
		}
		if err := cfg.SetParam(key, v); err != nil {
			return nil, "", err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, name, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	log := logger.Named("run")
	reg := experiment.NewRegistry()
	exp := experiment.New(cfg)
	if err := exp.Setup(reg, feedback.NewLogSink(log), log); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)
	if runErr != nil {
		log.Warn("run interrupted, saving partial result", zap.Error(runErr))
	}
	return saveAndReport(st, exp.Session(), name, cfg, result, elapsed)
}

func saveAndReport(st *storage.Store, s *sim.Session, name string, cfg *config.Config, result *sim.Result, elapsed time.Duration) error {
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	info := storage.RunInfo{
		Name:   name,
		Shaper: cfg.Session.Shaper,
		Seed:   cfg.Session.Seed,
		Dt:     cfg.Run.Dt,
		Source: cfg.Input.Source,
	}
	runID, err := st.Save(info, result, snap)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (%.1fs simulated)\n", result.StepsTaken, result.Duration)
	fmt.Printf("state: %s\n", result.Final)
	printScore(result.Score, result.Comment)
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}
	printMetrics(result.Metrics)
	return nil
}

func printScore(score *lifecycle.Score, comment string) {
	if score == nil {
		fmt.Println("score: not served")
		return
	}
	fmt.Printf("score: %d (cook %.0f, shape %.0f)\n", score.Final, score.Cook, score.Shape)
	if score.Undercooked {
		fmt.Println("undercooked")
	}
	fmt.Printf("\"%s\"\n", comment)
}

func printMetrics(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	slices.Sort(names)
	fmt.Println("\nmetrics:")
	for _, k := range names {
		fmt.Printf("  %-18s %.4f\n", k, m[k])
	}
}

func resumeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	snap, err := st.LoadSnapshot(args[0])
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	cfg, _, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}
	cfg.Session.Shaper = snap.Shaper
	cfg.Session.Resolution = snap.Resolution

	log := logger.Named("resume")
	opts := cfg.SessionOptions()
	opts.Logger = log
	opts.Sink = feedback.NewLogSink(log)
	s, err := sim.NewSession(opts)
	if err != nil {
		return err
	}
	if err := s.Restore(snap); err != nil {
		return err
	}
	p, err := cfg.Provider(0)
	if err != nil {
		return err
	}
	r := sim.NewRunner(s)
	for _, m := range experiment.NewRegistry().DefaultMetrics(cfg) {
		r.AddMetric(m)
	}
	log.Info("resuming", zap.String("run", meta.ID), zap.Float64("t", snap.Time), zap.Stringer("state", s.State()))

	ctx, cancel := signalContext()
	defer cancel()
	start := time.Now()
	result, runErr := r.Run(ctx, p, cfg.Run)
	if result == nil {
		return runErr
	}
	return saveAndReport(st, s, meta.Name+"-resumed", cfg, result, time.Since(start))
}

// resolveRun returns args[0] or the latest run.
func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
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
	fmt.Fprintln(w, "ID\tSHAPER\tSOURCE\tTIME\tDURATION\tSTATE\tSCORE")
	for _, run := range runs {
		score := "-"
		if run.Score != nil {
			score = strconv.Itoa(run.Score.Final)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1fs\t%s\t%s\n",
			run.ID,
			run.Shaper,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Final,
			score,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	events, err := st.LoadEvents(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run:      %s\n", meta.ID)
	fmt.Printf("shaper:   %s\n", meta.Shaper)
	fmt.Printf("source:   %s (seed %d)\n", meta.Source, meta.Seed)
	fmt.Printf("dt:       %.4fs\n", meta.Dt)
	fmt.Printf("duration: %.1fs over %d steps\n", meta.Duration, meta.Steps)
	fmt.Printf("state:    %s\n", meta.Final)
	if meta.Score != nil {
		s := meta.Score
		fmt.Printf("score:    %d (cook %.0f, shape %.0f", s.Final, s.Cook, s.Shape)
		if s.Undercooked {
			fmt.Print(", undercooked")
		}
		fmt.Println(")")
		fmt.Printf("comment:  %s\n", meta.Comment)
	}

	counts := make(map[feedback.Kind]int)
	for _, e := range events {
		counts[e.Kind]++
	}
	fmt.Println("\nevents:")
	for k := feedback.Tick; k <= feedback.Jiggle; k++ {
		fmt.Printf("  %-15s %d\n", k, counts[k])
	}
	printMetrics(meta.Metrics)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}
	fmt.Printf("run: %s\n", runID)
	fmt.Printf("samples: %d\n\n", len(samples))

	res := &sim.Result{Samples: samples}
	plots := []struct {
		caption string
		field   func(sim.Sample) float64
	}{
		{"cook level", func(s sim.Sample) float64 { return s.Cook }},
		{"shaping progress", func(s sim.Sample) float64 { return s.Progress }},
		{"mastery", func(s sim.Sample) float64 { return s.Mastery }},
		{"spin (rad/s)", func(s sim.Sample) float64 { return s.Spin }},
	}
	for _, p := range plots {
		graph := asciigraph.Plot(res.Series(p.field),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

var sampleFields = map[string]func(sim.Sample) float64{
	"spin":        func(s sim.Sample) float64 { return s.Spin },
	"cook":        func(s sim.Sample) float64 { return s.Cook },
	"progress":    func(s sim.Sample) float64 { return s.Progress },
	"mastery":     func(s sim.Sample) float64 { return s.Mastery },
	"pulse":       func(s sim.Sample) float64 { return s.Pulse },
	"harmony":     func(s sim.Sample) float64 { return s.Harmony },
	"pressure":    func(s sim.Sample) float64 { return s.Pressure },
	"deformation": func(s sim.Sample) float64 { return s.Deformation },
}

func phasePlot(cmd *cobra.Command, args []string) error {
	fx, okx := sampleFields[xField]
	fy, oky := sampleFields[yField]
	if !okx || !oky {
		names := make([]string, 0, len(sampleFields))
		for k := range sampleFields {
			names = append(names, k)
		}
		slices.Sort(names)
		return fmt.Errorf("unknown field, want one of %v", names)
	}
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}
	fmt.Printf("run: %s\n", runID)
	fmt.Printf("x: %s, y: %s\n\n", xField, yField)
	fmt.Println(analysis.PortraitToASCII(analysis.NewPortrait(samples, xField, fx, yField, fy), 70, 24))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) < 4 {
		return fmt.Errorf("not enough samples")
	}
	res := &sim.Result{Samples: samples}
	times := res.Times()
	spin := res.Series(func(s sim.Sample) float64 { return s.Spin })
	step := (times[len(times)-1] - times[0]) / float64(len(times)-1)

	spectrum := analysis.CadenceSpectrum(spin, step)
	fmt.Printf("cadence analysis: %s\n", runID)
	fmt.Printf("mean spin: %.3f rad/s\n\n", spectrum.Mean)

	plotData := spectrum.Power[:max(2, len(spectrum.Power)/4)]
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("spin power spectrum"),
	)
	fmt.Println(graph)
	fmt.Println()

	if hz, share, ok := spectrum.Dominant(); ok && hz > 0 {
		fmt.Printf("dominant frequency: %.3f hz (%.0f%% of power)\n", hz, share*100)
		fmt.Printf("period: %.3f s\n", 1.0/hz)
	} else {
		fmt.Println("no dominant frequency")
	}

	pulse := res.Series(func(s sim.Sample) float64 { return s.Pulse })
	beats := analysis.Crossings(times, pulse, 0.5)
	if iv := analysis.MeanInterval(beats); iv > 0 {
		fmt.Printf("rhythm: %d beats, every %.3f s\n", len(beats), iv)
	}
	return nil
}

// output opens outFile, or stdout when unset.
func output() (io.Writer, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.WriteSamplesCSV(w, samples); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	svg := export.SeriesToSVG(export.RunSeries(samples), 800, 400)
	if svg == "" {
		return fmt.Errorf("not enough samples for a chart")
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, svg+"\n"); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportOBJ(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	snap, err := st.LoadSnapshot(runID)
	if err != nil {
		return err
	}
	m, err := mesh.Sphere(snap.Resolution, config.DefaultRadius)
	if err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := m.WriteOBJ(w, snap.Ball.DeformedVertices); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func compareShapers(cmd *cobra.Command, args []string) error {
	cfg, _, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("comparing shapers on %s input (seed %d)\n\n", cfg.Input.Source, cfg.Session.Seed)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SHAPER\tSTEPS\tTIME\tSTATE\tSCORE\tMAX COMBO\tPERFECT\tFINAL COOK\tWALL")

	var progress [][]float64
	for _, name := range reg.ListShapers() {
		c := cfg.Clone()
		c.Session.Shaper = name
		exp := experiment.New(c)
		if err := exp.Setup(reg, nil, nil); err != nil {
			return err
		}
		start := time.Now()
		res, err := exp.Run(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		elapsed := time.Since(start)

		score := "-"
		if res.Score != nil {
			score = strconv.Itoa(res.Score.Final)
		}
		last := res.Samples[len(res.Samples)-1]
		fmt.Fprintf(w, "%s\t%d\t%.1fs\t%s\t%s\t%.0f\t%.1fs\t%.3f\t%v\n",
			name, res.StepsTaken, res.Duration, res.Final, score,
			res.Metrics["max_combo"], res.Metrics["perfect_time"], last.Cook,
			elapsed.Round(time.Millisecond))
		progress = append(progress, res.Series(func(s sim.Sample) float64 { return s.Progress }))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(progress) == 2 {
		n := min(len(progress[0]), len(progress[1]))
		worst := 0.0
		for i := range n {
			worst = max(worst, math.Abs(progress[0][i]-progress[1][i]))
		}
		fmt.Printf("\nmax progress divergence: %.4f over %d samples\n", worst, n)
	}
	return nil
}

func benchSeeds(cmd *cobra.Command, args []string) error {
	cfg, name, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if _, err := cfg.Provider(0); err != nil {
		return err
	}
	reg := experiment.NewRegistry()
	log := logger.Named("bench")

	opts := cfg.SessionOptions()
	opts.Logger = log
	ens := sim.NewEnsemble(opts, numRuns, cfg.Session.Seed, func(seed uint64) input.Provider {
		p, err := cfg.Provider(seed)
		if err != nil {
			log.Warn("provider", zap.Uint64("seed", seed), zap.Error(err))
			return input.Constant(input.Frame{}, 0)
		}
		return p
	}).
		WithMetrics(func() []sim.Metric { return reg.DefaultMetrics(cfg) }).
		WithLimit(parallel)

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("benchmarking %s: %d seeds from %d\n\n", name, numRuns, cfg.Session.Seed)
	start := time.Now()
	results, err := ens.Run(ctx, cfg.Run)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tTIME\tSTATE\tSCORE\tCOMMENT")
	var steps, served int
	var total, lo, hi float64
	for i, res := range results {
		steps += res.StepsTaken
		score, comment := "-", ""
		if res.Score != nil {
			f := float64(res.Score.Final)
			if served == 0 {
				lo, hi = f, f
			}
			lo, hi = min(lo, f), max(hi, f)
			total += f
			served++
			score, comment = strconv.Itoa(res.Score.Final), res.Comment
		}
		fmt.Fprintf(w, "%d\t%d\t%.1fs\t%s\t%s\t%s\n",
			cfg.Session.Seed+uint64(i), res.StepsTaken, res.Duration, res.Final, score, comment)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nserved %d/%d", served, len(results))
	if served > 0 {
		fmt.Printf(", score mean %.1f min %.0f max %.0f", total/float64(served), lo, hi)
	}
	fmt.Printf("\n%d steps in %v (%.0f steps/s)\n", steps, elapsed.Round(time.Millisecond), float64(steps)/elapsed.Seconds())
	return nil
}

// parseGrid reads param=lo:hi:n.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	params := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, entry := range entries {
		name, rest, ok := strings.Cut(entry, "=")
		parts := strings.Split(rest, ":")
		if !ok || len(parts) != 3 {
			return nil, nil, fmt.Errorf("bad --grid %q, want param=lo:hi:n", entry)
		}
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return nil, nil, fmt.Errorf("bad --grid %q, want param=lo:hi:n", entry)
		}
		if !slices.Contains(config.Params, name) {
			return nil, nil, fmt.Errorf("%w: %s", config.ErrUnknownParam, name)
		}
		params = append(params, name)
		ranges = append(ranges, optim.Linspace(lo, hi, n))
	}
	return params, ranges, nil
}

func tuneParams(cmd *cobra.Command, args []string) error {
	cfg, _, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(grid) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}
	params, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	obj := optim.ScoreObjective
	if objective != "score" {
		obj = optim.MetricObjective(objective)
	}

	reg := experiment.NewRegistry()
	build := func(p map[string]float64) (*experiment.Experiment, error) {
		c := cfg.Clone()
		for k, v := range p {
			if err := c.SetParam(k, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(c)
		if err := exp.Setup(reg, nil, nil); err != nil {
			return nil, err
		}
		return exp, nil
	}

	ctx, cancel := signalContext()
	defer cancel()
	best, value, trials, err := optim.NewGridSearch(params, ranges).Search(ctx, build, obj)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(params, "\t"))+"\t"+strings.ToUpper(objective))
	for _, t := range trials {
		row := make([]string, 0, len(params)+1)
		for _, p := range params {
			row = append(row, fmt.Sprintf("%.4g", t.Params[p]))
		}
		if t.Err != nil {
			row = append(row, "error: "+t.Err.Error())
		} else {
			row = append(row, fmt.Sprintf("%.4f", t.Value))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nbest:")
	for _, p := range params {
		fmt.Printf("  %s = %.4g\n", p, best[p])
	}
	fmt.Printf("  %s = %.4f\n", objective, value)
	return nil
}
