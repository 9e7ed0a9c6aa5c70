package main

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/spheresim/internal/audio"
	"github.com/san-kum/spheresim/internal/config"
	"github.com/san-kum/spheresim/internal/gui"
	"github.com/san-kum/spheresim/internal/sim"
	"github.com/san-kum/spheresim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFile    string

	numBodies   int
	seed        int64
	gravity     float64
	restitution float64
	speed       int
	ticks       int
	recordEvery int
	sound       bool
	soundAll    bool
	intervalMS  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "spheresim",
		Short:        "bouncing spheres in a box",
		SilenceUsage: true,
		RunE:         runLive,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".spheresim", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file")

	addWorldFlags(rootCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive terminal view",
		RunE:  runLive,
	}
	addWorldFlags(liveCmd)

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "interactive 3D window",
		RunE:  runGUI,
	}
	addWorldFlags(guiCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and save it",
		RunE:  runSimulation,
	}
	addWorldFlags(runCmd)
	runCmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "number of ticks")
	runCmd.Flags().IntVar(&recordEvery, "record-every", config.DefaultRecordEvery, "record a snapshot every n ticks")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the step loop over body counts",
		RunE:  benchSteps,
	}
	benchCmd.Flags().IntVar(&benchRuns, "runs", 4, "parallel runs per body count")
	benchCmd.Flags().IntVar(&ticks, "ticks", 1000, "ticks per run")

	sweepCmd := &cobra.Command{
		Use:   "sweep [gravity|restitution]",
		Short: "sweep one world parameter",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepParam,
	}
	addWorldFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 11, "number of values")
	sweepCmd.Flags().IntVar(&ticks, "ticks", 1000, "ticks per point")
	sweepCmd.Flags().StringVar(&sweepField, "field", "energy", "plotted field (energy, containment, contacts)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-10s bodies=%d gravity=%.2f restitution=%.2f speed=%dx\n",
					name, p.Bodies, p.Gravity, p.Restitution, p.Multiplier)
			}
			return nil
		},
	}

	presetSaveCmd := &cobra.Command{
		Use:   "preset-save [path]",
		Short: "write the resolved configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("saved %s\n", args[0])
			return nil
		},
	}
	addWorldFlags(presetSaveCmd)

	rootCmd.AddCommand(liveCmd, guiCmd, runCmd, benchCmd, sweepCmd, presetsCmd, presetSaveCmd)
	rootCmd.AddCommand(runCommands()...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addWorldFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&numBodies, "bodies", config.DefaultBodies, "number of spheres")
	f.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	f.Float64Var(&gravity, "gravity", 0, "gravity strength")
	f.Float64Var(&restitution, "restitution", config.DefaultRestitution, "coefficient of restitution")
	f.IntVar(&speed, "speed", config.DefaultMultiplier, "ticks per interval")
	f.IntVar(&intervalMS, "interval", config.DefaultIntervalMS, "interval length in milliseconds")
	f.BoolVar(&sound, "sound", false, "play a note on every collision")
	f.BoolVar(&soundAll, "sound-all", false, "also play overlaps that are already separating")
}

// resolveConfig layers defaults, the preset, the config file and finally
// the flags the user actually set.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("bodies") {
		cfg.Bodies = numBodies
	}
	if flags.Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if flags.Changed("gravity") {
		cfg.Gravity = gravity
	}
	if flags.Changed("restitution") {
		cfg.Restitution = restitution
	}
	if flags.Changed("speed") {
		cfg.Multiplier = speed
	}
	if flags.Changed("interval") {
		cfg.IntervalMS = intervalMS
	}
	if flags.Changed("sound") {
		cfg.Sound = sound
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("record-every") {
		cfg.RecordEvery = recordEvery
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes to --log-file when given, otherwise to fallback. The
// returned closer is never nil.
func newLogger(level string, fallback io.Writer) (*log.Logger, io.Closer, error) {
	var (
		out              = fallback
		closer io.Closer = io.NopCloser(nil)
	)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		out, closer = f, f
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "spheresim",
	})
	if level == "" {
		level = config.DefaultLogLevel
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		closer.Close()
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, closer, nil
}

func newSession(cfg *config.Config, logger *log.Logger) (*sim.Session, error) {
	controls := sim.Controls{
		Gravity:     cfg.Gravity,
		Restitution: cfg.Restitution,
		Bodies:      cfg.Bodies,
		Multiplier:  cfg.Multiplier,
		Running:     true,
		Sound:       cfg.Sound,
	}
	return sim.NewSession(controls, cfg.Spawn, cfg.Seed, logger)
}

// startCue opens the audio device. A missing device only costs the sound.
func startCue(logger *log.Logger) *audio.Cue {
	cue := audio.NewCue(logger)
	cue.SetEveryOverlap(soundAll)
	if err := cue.Start(); err != nil {
		logger.Warn("sound disabled", "err", err)
	}
	return cue
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// the terminal belongs to the view, so logs only go to --log-file
	logger, closer, err := newLogger(cfg.LogLevel, io.Discard)
	if err != nil {
		return err
	}
	defer closer.Close()

	session, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	cue := startCue(logger)
	defer cue.Stop()

	m := viz.NewModel(session, viz.Options{Interval: cfg.Interval(), Cue: cue, Logger: logger})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	played, dropped := cue.Stats()
	logger.Info("session ended", "seed", session.Seed(), "tick", session.Tick(), "notes", played, "dropped", dropped)
	return nil
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	session, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	cue := startCue(logger)
	defer cue.Stop()

	gui.Run(session, gui.Options{Interval: cfg.Interval(), Cue: cue, Logger: logger})
	return nil
}
