package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/procmix/tanksim/internal/analysis"
	"github.com/procmix/tanksim/internal/batch"
	"github.com/procmix/tanksim/internal/config"
	"github.com/procmix/tanksim/internal/dynamo"
	"github.com/procmix/tanksim/internal/export"
	"github.com/procmix/tanksim/internal/metrics"
	"github.com/procmix/tanksim/internal/server"
	"github.com/procmix/tanksim/internal/session"
	"github.com/procmix/tanksim/internal/store"
	"github.com/procmix/tanksim/internal/tui"
)

var (
	configFile string
	dataDir    string
	addr       string
	logLevel   string

	dt           float64
	duration     float64
	saveInterval float64
	integrator   string
	openLoop     bool
	stepSpecs    []string

	plotColumn string
	svgOut     string

	analyzeColumn string
	analyzeTarget float64
	analyzeBand   float64

	noiseEnabled bool
	noiseLevel   float64
	seed         int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tanksim",
		Short: "five-tank mixing process simulator",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP and websocket server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a batch simulation and store the trajectory",
		RunE:  runBatch,
	}
	runCmd.Flags().Float64Var(&dt, "dt", 0.5, "integration timestep (s)")
	runCmd.Flags().Float64Var(&duration, "time", 600.0, "simulated duration (s)")
	runCmd.Flags().Float64Var(&saveInterval, "save-interval", 0, "sampling interval (s), 0 saves every step")
	runCmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (rk4, euler)")
	runCmd.Flags().BoolVar(&openLoop, "open-loop", false, "hold equilibrium actuators instead of regulating")
	runCmd.Flags().StringArrayVar(&stepSpecs, "step", nil, "setpoint step as time:tank:variable:value, repeatable")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one column of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotColumn, "column", "levelC", "series column to plot")
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "write the chart to this SVG file instead of the terminal")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step-response metrics for one column of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeColumn, "column", "levelC", "series column to analyze")
	analyzeCmd.Flags().Float64Var(&analyzeTarget, "target", 0, "target value, defaults to the final sample")
	analyzeCmd.Flags().Float64Var(&analyzeBand, "band", 0.02, "settling band as a fraction of the step span")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a local session with a terminal monitor",
		RunE:  runLive,
	}
	liveCmd.Flags().BoolVar(&noiseEnabled, "noise", false, "enable measurement noise")
	liveCmd.Flags().Float64Var(&noiseLevel, "noise-level", config.DefaultNoiseLevel, "relative noise level")
	liveCmd.Flags().Int64Var(&seed, "seed", 0, "noise seed, 0 picks one")

	rootCmd.AddCommand(serveCmd, runCmd, listCmd, plotCmd, analyzeCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(logLevel); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	log := newLogger()
	registry := session.NewRegistry(log)
	srv := server.New(cfg, registry, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	steps, err := parseSteps(stepSpecs)
	if err != nil {
		return err
	}

	bcfg := batch.Config{
		Initial:      cfg.Equilibrium,
		Dt:           dt,
		Duration:     duration,
		SaveInterval: saveInterval,
		Integrator:   integrator,
		OpenLoop:     openLoop,
		Gains:        cfg.Gains,
		Steps:        steps,
	}

	result, err := batch.Run(cmd.Context(), cfg.Plant, bcfg)
	if err != nil {
		return err
	}

	st := store.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(bcfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Meta.WallTime)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(result.Times))
	fmt.Printf("control effort: %.4f\n", metrics.ControlEffort(result.Controls))
	if rate := metrics.SaturationRate(result.Controls); rate > 0 {
		fmt.Printf("saturation rate: %.1f%%\n", 100*rate)
	}
	if result.Meta.Clamps > 0 {
		fmt.Printf("bound clamps: %d\n", result.Meta.Clamps)
	}
	return nil
}

// parseSteps decodes --step flags of the form time:tank:variable:value.
func parseSteps(specs []string) ([]batch.StepChange, error) {
	steps := make([]batch.StepChange, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("bad step %q, want time:tank:variable:value", spec)
		}
		t, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("bad step time in %q: %w", spec, err)
		}
		v, err := strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return nil, fmt.Errorf("bad step value in %q: %w", spec, err)
		}
		steps = append(steps, batch.StepChange{
			Time:     t,
			Tank:     dynamo.Tank(strings.ToUpper(parts[1])),
			Variable: dynamo.Variable(strings.ToLower(parts[2])),
			Value:    v,
		})
	}
	return steps, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st := store.New(cfg.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tINTEG\tMODE\tSAMPLES\tCLAMPS")
	for _, run := range runs {
		mode := "closed-loop"
		if run.OpenLoop {
			mode = "open-loop"
		}
		fmt.Fprintf(w, "%s\t%s\t%.1fs\t%.2fs\t%s\t%s\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			mode,
			run.Steps,
			run.Clamps,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st := store.New(cfg.DataDir)
	series, err := st.Load(args[0])
	if err != nil {
		return err
	}

	data, ok := series.Column(plotColumn)
	if !ok {
		return fmt.Errorf("unknown column %q (have %s)", plotColumn, strings.Join(series.Columns, ", "))
	}
	if len(data) == 0 {
		return fmt.Errorf("no data to plot")
	}

	if svgOut != "" {
		times, _ := series.Column("time")
		opts := export.DefaultSVGOptions()
		opts.Title = args[0] + " " + plotColumn
		svg, err := export.SeriesToSVG(times, data, opts)
		if err != nil {
			return err
		}
		if err := os.WriteFile(svgOut, []byte(svg), 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
		return nil
	}

	fmt.Printf("run: %s\n", args[0])
	fmt.Printf("samples: %d\n\n", len(data))
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(plotColumn+" vs sample"),
	)
	fmt.Println(graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st := store.New(cfg.DataDir)
	series, err := st.Load(args[0])
	if err != nil {
		return err
	}

	times, ok := series.Column("time")
	if !ok {
		return fmt.Errorf("run %s has no time column", args[0])
	}
	values, ok := series.Column(analyzeColumn)
	if !ok {
		return fmt.Errorf("unknown column %q (have %s)", analyzeColumn, strings.Join(series.Columns, ", "))
	}

	target := analyzeTarget
	if !cmd.Flags().Changed("target") && len(values) > 0 {
		target = values[len(values)-1]
	}

	r, err := analysis.AnalyzeStep(times, values, target, analyzeBand)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s  column: %s\n\n", args[0], analyzeColumn)
	fmt.Printf("initial:            %10.4f\n", r.Initial)
	fmt.Printf("final:              %10.4f\n", r.Final)
	fmt.Printf("target:             %10.4f\n", r.Target)
	fmt.Printf("steady-state error: %10.4f\n", r.SteadyStateError)
	fmt.Printf("overshoot:          %10.4f\n", r.Overshoot)
	if r.RiseTime >= 0 {
		fmt.Printf("rise time:          %9.1fs\n", r.RiseTime)
	} else {
		fmt.Println("rise time:             never")
	}
	if r.SettlingTime >= 0 {
		fmt.Printf("settling time:      %9.1fs\n", r.SettlingTime)
	} else {
		fmt.Println("settling time:         never")
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger()
	// The monitor owns the terminal.
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)

	opts := cfg.SessionOptions()
	opts.NoiseEnabled = noiseEnabled
	opts.NoiseLevel = noiseLevel
	if seed != 0 {
		opts.Seed = seed
	}

	sess, err := session.New(cfg.Plant, cfg.Equilibrium, opts, log)
	if err != nil {
		return err
	}
	if err := sess.Start(); err != nil {
		return err
	}
	defer sess.Close()

	return tui.Run(sess, cfg.Plant, cfg.Equilibrium)
}
