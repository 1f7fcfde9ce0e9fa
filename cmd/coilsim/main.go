package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/coilsim/internal/analysis"
	"github.com/san-kum/coilsim/internal/diag"
	"github.com/san-kum/coilsim/internal/export"
	"github.com/san-kum/coilsim/internal/fiducial"
	"github.com/san-kum/coilsim/internal/gui"
	"github.com/san-kum/coilsim/internal/headmodel"
	"github.com/san-kum/coilsim/internal/input"
	"github.com/san-kum/coilsim/internal/protocol"
	"github.com/san-kum/coilsim/internal/scalp"
	"github.com/san-kum/coilsim/internal/script"
	"github.com/san-kum/coilsim/internal/session"
	"github.com/san-kum/coilsim/internal/storage"
	"github.com/san-kum/coilsim/internal/tui"
)

var (
	dataDir      string
	dt           float64
	seed         int64
	presetName   string
	protocolFile string
	scenarioFile string
	maxSeconds   float64
	sound        bool
	configFile   string
	svgPath      string
	webpPath     string
	csvOut       bool
	tolHz        float64
	logLevel     string
	verbose      bool
)

// runConfig mirrors the run command's flags as a yaml file. Flags set
// on the command line win over file values.
type runConfig struct {
	Preset   string  `yaml:"preset"`
	Protocol string  `yaml:"protocol"`
	Script   string  `yaml:"script"`
	Dt       float64 `yaml:"dt"`
	Seed     int64   `yaml:"seed"`
	Time     float64 `yaml:"time"`
}

func applyRunConfig(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cfg runConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Preset != "" && !cmd.Flags().Changed("preset") {
		presetName = cfg.Preset
	}
	if cfg.Protocol != "" && !cmd.Flags().Changed("protocol") {
		protocolFile = cfg.Protocol
	}
	if cfg.Script != "" && !cmd.Flags().Changed("script") {
		scenarioFile = cfg.Script
	}
	if cfg.Dt > 0 && !cmd.Flags().Changed("dt") {
		dt = cfg.Dt
	}
	if cfg.Seed != 0 && !cmd.Flags().Changed("seed") {
		seed = cfg.Seed
	}
	if cfg.Time > 0 && !cmd.Flags().Changed("time") {
		maxSeconds = cfg.Time
	}
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "coilsim",
		Short: "tms coil placement and pulse protocol simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(seed, sound)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".coilsim", "data directory")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "head generation seed")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "trace|debug|info|warn|error|off")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging (same as --log-level debug)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a protocol headless and record it",
		RunE:  runSession,
	}
	runCmd.Flags().Float64Var(&dt, "dt", 0.01, "tick size in seconds")
	runCmd.Flags().StringVar(&presetName, "preset", "depression-10hz", "protocol preset")
	runCmd.Flags().StringVar(&protocolFile, "protocol", "", "protocol yaml file (overrides preset)")
	runCmd.Flags().StringVar(&scenarioFile, "script", "", "movement scenario yaml")
	runCmd.Flags().Float64Var(&maxSeconds, "time", 0, "cap on simulated seconds (0 = session length)")
	runCmd.Flags().StringVar(&configFile, "config", "", "run config yaml (flags override)")

	planCmd := &cobra.Command{
		Use:   "plan [preset-or-file]",
		Short: "show a protocol's train schedule",
		Args:  cobra.ExactArgs(1),
		RunE:  planProtocol,
	}

	protocolsCmd := &cobra.Command{
		Use:   "protocols",
		Short: "list protocol presets",
		RunE:  listProtocols,
	}

	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "validate a protocol yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := protocol.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: ok (%s, %d pulses, %.0fs session)\n",
				args[0], p.Type, p.TotalPulses, p.SessionDuration())
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "verify a run's pulse spectrum against its protocol",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64Var(&tolHz, "tolerance", 0.5, "allowed frequency error in hz")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run's coil track and surface map",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "write the coil track as svg")
	exportCmd.Flags().StringVar(&webpPath, "webp", "", "write the surface map as webp")
	exportCmd.Flags().BoolVar(&csvOut, "csv", false, "write the tick log as csv to stdout")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive terminal session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(seed, sound)
		},
	}
	liveCmd.Flags().BoolVar(&sound, "sound", false, "pulse clicks through the default audio device")

	guiCmd := &cobra.Command{
		Use:   "gui [preset]",
		Short: "interactive 3d session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return gui.Run(name, seed, sound)
		},
	}
	guiCmd.Flags().BoolVar(&sound, "sound", true, "pulse clicks through the default audio device")

	rootCmd.AddCommand(runCmd, planCmd, protocolsCmd, validateCmd, listCmd, analyzeCmd, exportCmd, liveCmd, guiCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func diagnostics() *diag.Diagnostics {
	level := diag.ParseLevel(logLevel)
	if verbose {
		level = zerolog.DebugLevel
	}
	return diag.New(os.Stderr, level)
}

func resolveProtocol(name, file string) (*protocol.Protocol, error) {
	if file != "" {
		return protocol.Load(file)
	}
	p := protocol.GetPreset(name)
	if p == nil {
		return nil, fmt.Errorf("unknown preset %q (run `coilsim protocols`)", name)
	}
	return p, nil
}

func runSession(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		if err := applyRunConfig(cmd, configFile); err != nil {
			return err
		}
	}

	p, err := resolveProtocol(presetName, protocolFile)
	if err != nil {
		return err
	}

	d := diagnostics()
	eng := session.New(session.DefaultOptions(), d)
	src, fids := headmodel.Generate(seed)
	if err := eng.LoadHead(src, fids); err != nil {
		return err
	}
	if err := eng.StartProtocol(*p); err != nil {
		return err
	}

	rec := &storage.Recorder{}
	eng.AddObserver(rec)

	timeCap := maxSeconds
	if timeCap <= 0 {
		timeCap = p.SessionDuration() + 5
	}

	fmt.Printf("running %s (%s, %d pulses)...\n", p.Name, p.Type, p.TotalPulses)
	start := time.Now()

	if scenarioFile != "" {
		sc, err := script.Load(scenarioFile)
		if err != nil {
			return err
		}
		if err := script.Run(context.Background(), eng, sc, dt); err != nil {
			return err
		}
	}
	for eng.Time() < timeCap {
		out := eng.Update(input.Frame{}, dt)
		if out.Done {
			break
		}
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta := storage.RunMetadata{
		Protocol:    *p,
		Timestamp:   time.Now(),
		Seed:        seed,
		Dt:          dt,
		Duration:    eng.Time(),
		Diagnostics: d.Snapshot(),
	}
	runID, err := st.Save(meta, rec)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("simulated: %.1fs, %d ticks, %d pulses\n",
		eng.Time(), len(rec.Ticks), rec.TotalPulses())
	for name, count := range d.Snapshot() {
		if count > 0 {
			fmt.Printf("  %s: %d\n", name, count)
		}
	}
	return nil
}

func planProtocol(cmd *cobra.Command, args []string) error {
	p := protocol.GetPreset(args[0])
	if p == nil {
		loaded, err := protocol.Load(args[0])
		if err != nil {
			return err
		}
		p = loaded
	}

	fmt.Printf("%s (%s)\n\n", p.Name, p.Type)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "pulses per train\t%d\n", p.TrainPulses())
	fmt.Fprintf(w, "train duration\t%.2fs\n", p.TrainDuration())
	fmt.Fprintf(w, "inter-train interval\t%.2fs\n", p.InterTrain())
	fmt.Fprintf(w, "trains\t%d\n", p.TotalTrains())
	fmt.Fprintf(w, "total pulses\t%d\n", p.TotalPulses)
	fmt.Fprintf(w, "session duration\t%.1fs\n", p.SessionDuration())
	return w.Flush()
}

func listProtocols(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tFREQ\tPULSES/TRAIN\tITI\tTOTAL")
	for _, name := range protocol.ListPresets() {
		p := protocol.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%.1fhz\t%d\t%.1fs\t%d\n",
			p.Name, p.Type, p.Frequency, p.PulsesPerTrain, p.InterTrainInterval, p.TotalPulses)
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tPROTOCOL\tTIME\tDURATION\tPULSES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fs\t%d\n",
			run.ID,
			run.Protocol.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Pulses,
		)
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	ticks, _, err := st.LoadTicks(args[0])
	if err != nil {
		return err
	}
	if len(ticks) < 2 {
		return fmt.Errorf("run %s has no tick data", args[0])
	}

	train := make([]int, len(ticks))
	for i, t := range ticks {
		train[i] = t.Pulses
	}

	s := analysis.PulseSpectrum(train, meta.Dt)
	fmt.Printf("pulse spectrum: %s\n", meta.ID)
	fmt.Printf("protocol: %s (%s)\n\n", meta.Protocol.Name, meta.Protocol.Type)

	plotBins := len(s.Power) / 4
	if plotBins > 400 {
		plotBins = 400
	}
	if plotBins > 1 {
		graph := asciigraph.Plot(s.Power[:plotBins],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("power (bin = %.3f hz)", s.BinHz)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	measured, expected, ok := analysis.VerifyProtocol(s, meta.Protocol, tolHz)
	fmt.Printf("dominant frequency: %.3f hz\n", measured)
	fmt.Printf("expected: %.3f hz (tolerance %.2f hz)\n", expected, tolHz)
	if !ok {
		return fmt.Errorf("spectrum does not match protocol")
	}
	fmt.Println("match: ok")
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	if svgPath == "" && webpPath == "" && !csvOut {
		return fmt.Errorf("nothing to export: pass --svg, --webp and/or --csv")
	}

	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	if csvOut {
		r, err := st.TicksCSV(args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		if _, err := io.Copy(os.Stdout, r); err != nil {
			return err
		}
	}
	if svgPath == "" && webpPath == "" {
		return nil
	}

	ticks, _, err := st.LoadTicks(args[0])
	if err != nil {
		return err
	}

	// Rebuild the run's surface from its recorded seed.
	d := diagnostics()
	src, fids := headmodel.Generate(meta.Seed)
	plane := fiducial.EstimatePlane(fids, src, d)

	if svgPath != "" {
		svg := export.TrackToSVG(plane, ticks, 512)
		if svg == "" {
			return fmt.Errorf("run %s has too few ticks for a track", meta.ID)
		}
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}

	if webpPath != "" {
		proxy := scalp.Build(plane, src, scalp.DefaultBuildOptions(), d)
		img := export.SurfaceMap(proxy, plane, ticks, export.DefaultSurfaceMapOptions())
		if err := export.WriteWebP(webpPath, img); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", webpPath)
	}
	return nil
}
