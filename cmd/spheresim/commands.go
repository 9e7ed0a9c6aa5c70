package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/spheresim/internal/analysis"
	"github.com/san-kum/spheresim/internal/automation"
	"github.com/san-kum/spheresim/internal/config"
	"github.com/san-kum/spheresim/internal/dynamo"
	"github.com/san-kum/spheresim/internal/export"
	"github.com/san-kum/spheresim/internal/metrics"
	"github.com/san-kum/spheresim/internal/physics"
	"github.com/san-kum/spheresim/internal/sim"
	"github.com/san-kum/spheresim/internal/storage"
	"github.com/san-kum/spheresim/internal/viz"
)

var (
	plotBody int
	axis     int
	svgOut   string
	svgMode  string
	svgSize  int

	benchRuns  int
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	sweepField string
	trials     int
)

var axisNames = [3]string{"x", "y", "z"}

func runCommands() []*cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy and one body's coordinates",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotBody, "body", 0, "body index")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export recorded snapshots to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the final frame or a body's path to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().StringVar(&svgMode, "mode", "scene", "scene, dots or path")
	exportSVGCmd.Flags().IntVar(&plotBody, "body", 0, "body index for path mode")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 600, "image size in pixels")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "bounce period and divergence of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&plotBody, "body", 0, "body index")
	analyzeCmd.Flags().IntVar(&axis, "axis", 1, "axis (0=x, 1=y, 2=z)")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "position/velocity portrait of one body",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&plotBody, "body", 0, "body index")
	phaseCmd.Flags().IntVar(&axis, "axis", 1, "axis (0=x, 1=y, 2=z)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "containment statistics over many seeds",
		RunE:  runMonteCarlo,
	}
	addWorldFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of seeds")
	monteCarloCmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "ticks per trial")

	return []*cobra.Command{listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		analyzeCmd, phaseCmd, scenarioCmd, monteCarloCmd}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	contacts := metrics.NewContacts()
	containment := metrics.NewContainment()
	runner := sim.New(cfg.Bodies, cfg.Params(), cfg.Spawn)
	runner.SetLogger(logger)
	runner.AddMetric(metrics.NewEnergy())
	runner.AddMetric(metrics.NewEnergyDrift())
	runner.AddMetric(metrics.NewMomentum())
	runner.AddMetric(containment)
	runner.AddMetric(contacts)
	runner.AddSink(contacts)

	if cfg.Sound {
		cue := startCue(logger)
		defer cue.Stop()
		cue.SetEnabled(true)
		runner.AddSink(cue)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %d bodies for %d ticks...\n", cfg.Bodies, cfg.Ticks)
	start := time.Now()

	result, err := runner.Run(ctx, cfg.RunConfig())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	info := storage.RunInfo{
		Seed:        cfg.Seed,
		Params:      cfg.Params(),
		Ticks:       cfg.Ticks,
		RecordEvery: cfg.RecordEvery,
	}
	runID, err := st.Save(info, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("snapshots: %d\n", len(result.Snapshots))
	fmt.Printf("contacts: %d resolved, %d pairs, %d degenerate\n", contacts.Resolved(), contacts.Pairs(), contacts.Degenerate())
	if d := containment.Worst(); d > 0 {
		fmt.Printf("deepest wall penetration: %.4f\n", d)
	}
	for _, pc := range contacts.Top(3) {
		fmt.Printf("  bodies %d-%d: %d\n", pc.A, pc.B, pc.Count)
	}
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
	for _, e := range result.Errors {
		fmt.Printf("  error: %v\n", e)
	}

	return nil
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
	fmt.Fprintln(w, "ID\tTIME\tBODIES\tTICKS\tGRAVITY\tRESTITUTION\tCONTACTS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%.2f\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.Ticks,
			run.Gravity,
			run.Restitution,
			run.Contacts,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []dynamo.Snapshot, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	snaps, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(snaps) == 0 {
		return nil, nil, fmt.Errorf("run %s has no snapshots", runID)
	}
	return meta, snaps, nil
}

func checkBody(meta *storage.RunMetadata, body int) error {
	if body < 0 || body >= meta.Bodies {
		return fmt.Errorf("body %d out of range (run has %d)", body, meta.Bodies)
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, snaps, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if err := checkBody(meta, plotBody); err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(snaps))

	fmt.Println(asciigraph.Plot(storage.EnergySeries(snaps),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("kinetic energy"),
	))
	fmt.Println()

	for a, name := range axisNames {
		fmt.Println(asciigraph.Plot(storage.CoordinateSeries(snaps, plotBody, a),
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("body %d %s", plotBody, name)),
		))
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, snaps, err := loadRun(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"tick", "body", "x", "y", "z", "vx", "vy", "vz", "radius"}
	if err := w.Write(header); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, s := range snaps {
		for i, b := range s.Bodies {
			row := []string{
				strconv.Itoa(s.Tick), strconv.Itoa(i),
				format(b.Position[0]), format(b.Position[1]), format(b.Position[2]),
				format(b.Velocity[0]), format(b.Velocity[1]), format(b.Velocity[2]),
				format(b.Radius),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, snaps, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, snaps)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, snaps, err := loadRun(args[0])
	if err != nil {
		return err
	}
	last := snaps[len(snaps)-1]

	var svg string
	switch svgMode {
	case "scene":
		svg = export.SceneToSVG(last.Bodies, viz.NewCamera(), dynamo.Light{}, svgSize, svgSize)
	case "dots":
		cam := viz.NewCamera()
		canvas := viz.NewCanvas(svgSize/8, svgSize/16)
		viz.RenderWireframe(canvas, viz.BoxWireframe(dynamo.BoxHalfExtent), cam)
		viz.RenderSpheres(canvas, last.Bodies, cam, dynamo.Light{}.Direction())
		svg = export.CanvasToSVG(canvas, 4, "#00ffff")
	case "path":
		if err := checkBody(meta, plotBody); err != nil {
			return err
		}
		svg = export.TrajectoryToSVG(export.TopPath(snaps, plotBody), svgSize, svgSize, "#ff00ff")
		if svg == "" {
			return fmt.Errorf("run %s has too few snapshots for a path", meta.ID)
		}
	default:
		return fmt.Errorf("unknown svg mode %q (scene, dots, path)", svgMode)
	}

	if svgOut == "" {
		_, err := fmt.Println(svg)
		return err
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgOut)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, snaps, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if err := checkBody(meta, plotBody); err != nil {
		return err
	}
	if axis < 0 || axis > 2 {
		return fmt.Errorf("axis must be 0, 1 or 2")
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("body %d, axis %s\n\n", plotBody, axisNames[axis])

	series := storage.CoordinateSeries(snaps, plotBody, axis)
	spacing := float64(meta.RecordEvery)
	if spacing <= 0 {
		spacing = 1
	}
	spectrum := analysis.PowerSpectrum(series, spacing)
	if len(spectrum.Power) > 2 {
		fmt.Println(asciigraph.Plot(spectrum.Power[1:],
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum"),
		))
		fmt.Println()
	}

	freq, _ := spectrum.Dominant()
	if freq > 0 {
		fmt.Printf("dominant frequency: %.5f per tick\n", freq)
		fmt.Printf("period: %.1f ticks\n", 1/freq)
	} else {
		fmt.Println("no dominant oscillation")
	}

	portrait := analysis.GeneratePhasePortrait(snaps, plotBody, axis)
	bounces := analysis.BounceSection(portrait)
	if bounces != nil {
		fmt.Printf("velocity reversals: %d\n", len(bounces.Points))
	}

	params := dynamo.Params{Gravity: meta.Gravity, Restitution: meta.Restitution}
	world := physics.NewWorld(append([]dynamo.Body(nil), snaps[0].Bodies...))
	window := min(meta.Ticks, 2000)
	fmt.Printf("divergence (%d ticks): %.5f per tick\n", window, analysis.Divergence(world, params, 1e-8, window))

	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, snaps, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if err := checkBody(meta, plotBody); err != nil {
		return err
	}

	portrait := analysis.GeneratePhasePortrait(snaps, plotBody, axis)
	if portrait == nil {
		return fmt.Errorf("axis must be 0, 1 or 2")
	}

	fmt.Printf("phase portrait: %s\n", meta.ID)
	fmt.Printf("body %d: %s vs v%s\n\n", plotBody, axisNames[axis], axisNames[axis])
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 70, 20))
	return nil
}

func benchSteps(cmd *cobra.Command, args []string) error {
	counts := []int{5, 50, 200, config.MaxBodies}
	spawn := physics.SpawnConfig{MinRadius: 0.01, MaxRadius: 0.04, MaxSpeed: physics.DefaultMaxSpeed}

	fmt.Printf("benchmarking %d ticks x %d runs\n\n", ticks, benchRuns)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tTIME\tTICKS/SEC\tCONTACTS/RUN")

	for _, n := range counts {
		runner := sim.New(n, dynamo.DefaultParams(), spawn)
		ens := sim.NewEnsemble(runner, benchRuns, 1).WithMetrics(func() []dynamo.Metric {
			return []dynamo.Metric{metrics.NewEnergy()}
		})

		cfg := dynamo.DefaultConfig()
		cfg.Ticks = ticks
		cfg.RecordEvery = ticks

		start := time.Now()
		results, err := ens.Run(context.Background(), cfg)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		total := 0
		for _, r := range results {
			total += r.Resolved
		}
		tps := float64(ticks*benchRuns) / elapsed.Seconds()
		fmt.Fprintf(w, "%d\t%v\t%.0f\t%d\n", n, elapsed.Round(time.Millisecond), tps, total/max(benchRuns, 1))
	}

	return w.Flush()
}

func sweepParam(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	run := cfg.RunConfig()
	run.Ticks = ticks
	run.RecordEvery = ticks

	sw := analysis.Sweep{
		Param:  analysis.SweepParam(args[0]),
		Min:    sweepMin,
		Max:    sweepMax,
		Steps:  sweepSteps,
		Bodies: cfg.Bodies,
		Base:   cfg.Params(),
		Spawn:  cfg.Spawn,
		Run:    run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("sweep started", "param", sw.Param, "min", sw.Min, "max", sw.Max, "steps", sw.Steps)
	points, err := sw.Execute(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tENERGY\tCONTAINMENT\tCONTACTS/TICK\n", sw.Param)
	for _, p := range points {
		if p.Err != nil {
			fmt.Fprintf(w, "%.3f\terror: %v\t\t\n", p.Param, p.Err)
			continue
		}
		fmt.Fprintf(w, "%.3f\t%.6f\t%.3f\t%.4f\n", p.Param, p.Energy, p.Containment, p.ContactRate)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(analysis.SweepToASCII(points, sweepField, 60, 15))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	logger, closer, err := newLogger(logLevel, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario %s: %s\n", sc.Name, sc.Description)
	results, err := automation.RunScenario(ctx, sc, logger)

	st := storage.New(dataDir)
	if initErr := st.Init(); initErr != nil {
		return initErr
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tGRAVITY\tRESTITUTION\tTICKS\tCONTACTS\tENERGY\tRUN")
	for _, r := range results {
		runID := "-"
		if r.Step.SaveAs != "" {
			info := storage.RunInfo{Seed: sc.Seed, Params: r.Params, Ticks: r.Step.Ticks, RecordEvery: r.Step.RecordEvery}
			id, saveErr := st.Save(info, r.Result)
			if saveErr != nil {
				return saveErr
			}
			runID = id
			logger.Info("step saved", "step", r.Step.Name, "as", r.Step.SaveAs, "run", id)
		}
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%d\t%d\t%.6f\t%s\n",
			r.Step.Name, r.Params.Gravity, r.Params.Restitution,
			r.Result.TicksTaken, r.Result.Resolved, r.Result.Metrics["energy"], runID)
	}
	if flushErr := w.Flush(); flushErr != nil {
		return flushErr
	}

	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	mc := automation.MonteCarloConfig{
		Bodies: cfg.Bodies,
		Params: cfg.Params(),
		Spawn:  cfg.Spawn,
		Trials: trials,
		Ticks:  cfg.Ticks,
		Seed:   cfg.Seed,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunMonteCarlo(ctx, mc, logger)
	if err != nil {
		return err
	}

	worst := 1.0
	for _, r := range results {
		worst = min(worst, r.Containment)
	}
	contained, leaked := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d\n", len(results))
	fmt.Printf("always contained: %d\n", contained)
	fmt.Printf("leaked at least once: %d\n", leaked)
	fmt.Printf("lowest containment: %.4f\n", worst)
	return nil
}
