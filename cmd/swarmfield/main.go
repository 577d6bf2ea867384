package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/swarmfield/internal/analysis"
	"github.com/san-kum/swarmfield/internal/automation"
	"github.com/san-kum/swarmfield/internal/config"
	"github.com/san-kum/swarmfield/internal/export"
	"github.com/san-kum/swarmfield/internal/logging"
	"github.com/san-kum/swarmfield/internal/metrics"
	"github.com/san-kum/swarmfield/internal/sim"
	"github.com/san-kum/swarmfield/internal/telemetry"
	"github.com/san-kum/swarmfield/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	preset     string
	particles  int
	seed       int64
	fps        int
	pick       bool
	steps      int
	benchSteps int
	dt         float64
	traceFile  string
	traceEvery int
	phase      bool
	jsonFile   string
	terrainSVG string
	pathSVG    string
	runs       int
	outFile    string
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepPts   int
	logLevel   string
	logJSON    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "swarmfield",
		Short:         "particle swarm on a deformable terrain",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runLive,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().IntVar(&particles, "particles", config.DefaultParticles, "number of particles")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the swarm in the terminal",
		RunE:  runLive,
	}
	liveCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frames per second")
	liveCmd.Flags().BoolVar(&pick, "pick", false, "choose a preset from a menu")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the swarm headless and report metrics",
		RunE:  runHeadless,
	}
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of ticks")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().StringVar(&traceFile, "trace", "", "write per-tick telemetry to a csv file")
	runCmd.Flags().IntVar(&traceEvery, "trace-every", 1, "ticks between telemetry rows")
	runCmd.Flags().BoolVar(&phase, "phase", false, "print the phase portrait of the mean radius")
	runCmd.Flags().StringVar(&jsonFile, "json", "", "write a json summary (- for stdout)")
	runCmd.Flags().StringVar(&terrainSVG, "terrain-svg", "", "write the final terrain as svg")
	runCmd.Flags().StringVar(&pathSVG, "path-svg", "", "write the path of particle 0 as svg")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark an ensemble of seeds",
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&runs, "runs", 8, "number of simulations")
	benchCmd.Flags().IntVar(&benchSteps, "steps", 1000, "ticks per simulation")
	benchCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "write the effective configuration as yaml",
		RunE:  writeConfig,
	}
	configCmd.Flags().StringVar(&outFile, "out", "swarmfield.yaml", "output file")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter and compare runs",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "anchor.damping", fmt.Sprintf("parameter to sweep %v", automation.SweepParams()))
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepPts, "points", 5, "number of values")
	sweepCmd.Flags().IntVar(&benchSteps, "steps", 1000, "ticks per run")

	rootCmd.AddCommand(liveCmd, runCmd, benchCmd, presetsCmd, configCmd, scenarioCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config file or preset, then applies flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case preset != "":
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	flags := cmd.Flags()
	if flags.Changed("particles") {
		cfg.Swarm.Particles = particles
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("fps") {
		cfg.Host.FPS = fps
	}
	if flags.Changed("steps") && cmd.Name() == "run" {
		cfg.Run.Steps = steps
	}
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = logJSON
	}
	return cfg, cfg.Validate()
}

func runLive(cmd *cobra.Command, args []string) error {
	if pick {
		final, err := tea.NewProgram(viz.NewPicker()).Run()
		if err != nil {
			return err
		}
		choice := final.(viz.Picker).Choice
		if choice == "" {
			return nil
		}
		preset = choice
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	viz.SetTheme(cfg.Host.Theme)

	// Console logs would corrupt the alt screen, so the simulation keeps
	// its default no-op logger here.
	s, err := sim.New(cfg)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(viz.NewModel(s, cfg.Host.FPS, cfg.Host.MaxDt), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if err := final.(viz.Model).Err(); err != nil {
		return fmt.Errorf("simulation halted: %w", err)
	}
	return nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := sim.New(cfg, sim.WithLogger(logger))
	if err != nil {
		logger.Fatal("create simulation", zap.Error(err))
	}
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	energy, radius := metrics.NewEnergyTrace(), metrics.NewRadiusTrace()
	s.AddMetric(energy)
	s.AddMetric(radius)

	if traceFile != "" {
		w, err := telemetry.Create(traceFile, traceEvery)
		if err != nil {
			logger.Fatal("open trace", zap.Error(err))
		}
		defer func() {
			if err := w.Close(); err != nil {
				logger.Error("close trace", zap.Error(err))
			}
			logger.Info("trace written", zap.String("path", traceFile), zap.Int("rows", w.Rows()))
		}()
		s.AddObserver(w)
	}

	path := export.NewPath(0)
	if pathSVG != "" {
		s.AddObserver(path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("running",
		zap.Int64("seed", cfg.Seed),
		zap.Int("particles", cfg.Swarm.Particles),
		zap.Int("steps", cfg.Run.Steps),
		zap.Float64("dt", cfg.Run.Dt),
	)
	result, err := s.Run(ctx, cfg.Run.Steps, cfg.Run.Dt)
	if jsonFile != "" && result != nil {
		if werr := writeSummary(export.NewSummary(cfg, result, err)); werr != nil {
			logger.Error("write summary", zap.Error(werr))
		}
	}
	if err := writeSVGs(s, path); err != nil {
		logger.Error("write svg", zap.Error(err))
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		if result != nil {
			logger.Error("simulation failed", zap.Int("completed_steps", result.Steps), zap.Error(err))
		}
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "steps\t%d\n", result.Steps)
	fmt.Fprintf(w, "sim time\t%.3fs\n", result.Time)
	fmt.Fprintf(w, "wall time\t%v\n", result.Elapsed)
	fmt.Fprintf(w, "ticks/sec\t%.0f\n", result.TicksPerSecond())
	fmt.Fprintf(w, "collisions\t%d\n", result.Collisions)
	fmt.Fprintf(w, "unresolved\t%d\n", result.Unresolved)
	for _, m := range metrics.Standard() {
		fmt.Fprintf(w, "%s\t%.4f\n", m.Name(), result.Metrics[m.Name()])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if values := energy.Values(); len(values) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(values,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("kinetic energy"),
		))
	}

	if values := radius.Values(); len(values) > 2 {
		freq, amp := analysis.DominantFrequency(values, cfg.Run.Dt)
		fmt.Printf("\nmean radius: dominant frequency %.4f Hz (power %.4f)\n", freq, amp)
		if phase {
			fmt.Println(analysis.PhaseFromSeries(values, cfg.Run.Dt).ASCII(60, 20))
		}
	}
	return nil
}

func writeSummary(summary export.Summary) error {
	if jsonFile == "-" {
		return export.WriteJSON(os.Stdout, summary)
	}
	f, err := os.Create(jsonFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteJSON(f, summary)
}

func writeSVGs(s *sim.Simulation, path *export.Path) error {
	if terrainSVG != "" {
		a := s.Anchor()
		svg := export.TerrainToSVG(s, s.Particles(), a.Pos(), (a.IdleDistance()+5)*1.5, 96, 6, viz.GetTheme(s.Config().Host.Theme))
		if err := os.WriteFile(terrainSVG, []byte(svg), 0644); err != nil {
			return err
		}
	}
	if pathSVG != "" {
		svg := export.TrajectoryToSVG(path.Points(), 600, 600, string(viz.GetTheme(s.Config().Host.Theme).Particle))
		if err := os.WriteFile(pathSVG, []byte(svg), 0644); err != nil {
			return err
		}
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return err
	}
	defer logger.Sync()

	fmt.Printf("benchmarking %d runs of %d particles\n\n", runs, cfg.Swarm.Particles)
	results, err := sim.NewEnsemble(cfg, runs, metrics.Standard, logger).Run(cmd.Context(), benchSteps, cfg.Run.Dt)
	if err != nil {
		logger.Error("ensemble failed", zap.Error(err))
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tTIME\tTICKS/SEC\tCOLLISIONS\tENERGY")
	var total float64
	for _, r := range results {
		total += r.TicksPerSecond()
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%d\t%.3f\n",
			r.Seed, r.Steps, r.Elapsed, r.TicksPerSecond(), r.Collisions, r.Metrics["kinetic_energy"])
	}
	if len(results) > 0 {
		fmt.Fprintf(w, "mean\t\t\t%.0f\t\t\n", total/float64(len(results)))
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger, err := logging.New(logLevel, logJSON)
	if err != nil {
		return err
	}
	defer logger.Sync()

	results, runErr := automation.RunScenario(cmd.Context(), sc, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tACTION\tSTEPS\tCOLLISIONS\tENERGY\tSTABILITY")
	for i, r := range results {
		name := r.Stage.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.3f\t%.2f\n",
			name, r.Stage.Action, r.Result.Steps, r.Result.Collisions,
			r.Result.Metrics["kinetic_energy"], r.Result.Metrics["stability"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return err
	}
	defer logger.Sync()

	results, err := automation.RunSweep(cmd.Context(), cfg, &automation.ParameterSweep{
		Param:  sweepParam,
		Min:    sweepMin,
		Max:    sweepMax,
		Points: sweepPts,
		Steps:  benchSteps,
		Dt:     cfg.Run.Dt,
	}, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tHALTED\tENERGY\tSTABILITY\tCOLLISIONS/TICK\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%d\t%v\t%.3f\t%.2f\t%.3f\n",
			r.Value, r.Result.Steps, r.Halted,
			r.Result.Metrics["kinetic_energy"], r.Result.Metrics["stability"], r.Result.Metrics["collision_rate"])
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPARTICLES\tIDLE\tSTRENGTH\tDAMPING")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%.2f\n",
			name, p.Swarm.Particles, p.Anchor.IdleDistance, p.Anchor.Strength, p.Anchor.Damping)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(outFile, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}
