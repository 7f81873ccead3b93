package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/gosuri/uiprogress"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/olivierbonte/hydromodels/internal/bucket"
	"github.com/olivierbonte/hydromodels/internal/calib"
	"github.com/olivierbonte/hydromodels/internal/config"
	"github.com/olivierbonte/hydromodels/internal/forcing"
	"github.com/olivierbonte/hydromodels/internal/models"
	"github.com/olivierbonte/hydromodels/internal/params"
	"github.com/olivierbonte/hydromodels/internal/solver"
)

var (
	configFile  string
	preset      string
	solverName  string
	forcingFile string
	iterations  int
	seed        int64
	warmup      int
	metric      string
	plotRows    int
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
var valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

func main() {
	rootCmd := &cobra.Command{
		Use:   "hydromodels",
		Short: "lumped hydrological bucket modeling",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML run configuration")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "named preset (e.g. leafriver)")
	rootCmd.PersistentFlags().StringVar(&forcingFile, "forcing", "", "forcing CSV (prcp,temp,lday[,flow])")
	rootCmd.PersistentFlags().StringVar(&solverName, "solver", "", "euler or rk45")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a forward simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().IntVar(&plotRows, "plot-height", 12, "hydrograph plot height")

	calibrateCmd := &cobra.Command{
		Use:   "calibrate [model]",
		Short: "calibrate parameters against observed flow",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCalibration,
	}
	calibrateCmd.Flags().IntVar(&iterations, "iterations", 0, "search iterations")
	calibrateCmd.Flags().Int64Var(&seed, "seed", 1, "search seed")
	calibrateCmd.Flags().IntVar(&warmup, "warmup", -1, "steps excluded from the objective")
	calibrateCmd.Flags().StringVar(&metric, "metric", "", "nse, kge or rmse")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list available models",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range models.Names() {
				b, err := models.Build(name)
				if err != nil {
					continue
				}
				fmt.Printf("%s\t inputs=%v states=%v params=%v\n",
					name, b.InputNames(), b.StateNames(), b.ParamNames())
			}
		},
	}

	rootCmd.AddCommand(runCmd, calibrateCmd, modelsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfig picks the base configuration, a preset or a config file
// (the file replaces the preset entirely), then applies flag overrides.
func resolveConfig(args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) == 1 {
		cfg.Model = args[0]
	}
	if preset != "" {
		p := config.GetPreset(cfg.Model, preset)
		if p == nil {
			return nil, fmt.Errorf("no preset %q for model %q", preset, cfg.Model)
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if forcingFile != "" {
		cfg.ForcingFile = forcingFile
	}
	if solverName != "" {
		cfg.Solver = solverName
	}
	if cfg.ForcingFile == "" {
		return nil, fmt.Errorf("no forcing file given (use --forcing)")
	}
	return cfg, nil
}

func buildRun(cfg *config.Config) (*bucket.Bucket, *forcing.Series, [][]float64, *params.ParamStates, bucket.Options, error) {
	var opts bucket.Options

	b, err := models.Build(cfg.Model)
	if err != nil {
		return nil, nil, nil, nil, opts, err
	}

	series, err := loadForcing(cfg.ForcingFile)
	if err != nil {
		return nil, nil, nil, nil, opts, err
	}
	input, err := series.Matrix(b.InputNames())
	if err != nil {
		return nil, nil, nil, nil, opts, err
	}

	ps := params.New(cfg.Params, cfg.InitStates)
	if cfg.Params == nil {
		ps = models.DefaultParams()
	}

	opts.Times = series.Times
	switch cfg.Solver {
	case "rk45":
		opts.Solver = solver.NewRK45()
	default:
		opts.Solver = solver.NewEuler()
	}
	return b, series, input, ps, opts, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}
	b, series, input, ps, opts, err := buildRun(cfg)
	if err != nil {
		return err
	}

	out, err := b.Run(input, ps, opts)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%s (%s, %d steps)", b.Name(), cfg.Solver, series.Len())))

	flowRow := -1
	for i, name := range b.VarNames() {
		if name == forcing.Flow {
			flowRow = i
		}
	}
	if flowRow >= 0 {
		fmt.Println(asciigraph.Plot(out[flowRow],
			asciigraph.Height(plotRows), asciigraph.Caption("simulated flow")))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for i, name := range b.VarNames() {
		last := out[i][len(out[i])-1]
		fmt.Fprintf(w, "%s\tfinal=%s\n", name, valueStyle.Render(strconv.FormatFloat(last, 'f', 4, 64)))
	}
	w.Flush()

	if obs, err := series.Get(forcing.Flow); err == nil && flowRow >= 0 {
		fmt.Printf("NSE=%.4f  KGE=%.4f  RMSE=%.4f\n",
			calib.NSE(obs, out[flowRow]), calib.KGE(obs, out[flowRow]), calib.RMSE(obs, out[flowRow]))
	}
	return nil
}

func runCalibration(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}
	if iterations > 0 {
		cfg.Calibrate.Iterations = iterations
	}
	if warmup >= 0 {
		cfg.Calibrate.Warmup = warmup
	}
	if metric != "" {
		cfg.Calibrate.Metric = metric
	}

	b, series, input, ps, opts, err := buildRun(cfg)
	if err != nil {
		return err
	}
	obs, err := series.Get(forcing.Flow)
	if err != nil {
		return fmt.Errorf("calibration needs an observed %q channel: %w", forcing.Flow, err)
	}

	bounds := cfg.Calibrate.Tunable
	if len(bounds) == 0 {
		bounds = models.Bounds()
	}
	tunable := make([]string, 0, len(bounds))
	for _, name := range b.ParamNames() {
		if _, ok := bounds[name]; ok {
			tunable = append(tunable, name)
		}
	}
	ranges := make([][2]float64, len(tunable))
	for i, name := range tunable {
		ranges[i] = bounds[name]
	}

	prob := &calib.Problem{
		Bucket:   b,
		Input:    input,
		Observed: obs,
		Output:   forcing.Flow,
		Warmup:   cfg.Calibrate.Warmup,
		Base:     ps,
		Tunable:  tunable,
		Bounds:   ranges,
		Options:  opts,
		Metric:   cfg.Calibrate.Metric,
		Penalty:  cfg.Calibrate.Penalty,
	}

	search := calib.NewRandomSearch(cfg.Calibrate.Iterations, cfg.Calibrate.Seed)
	if search.Seed == 0 {
		search.Seed = seed
	}

	uiprogress.Start()
	bar := uiprogress.AddBar(cfg.Calibrate.Iterations).AppendCompleted()
	best := 0.0
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return fmt.Sprintf("best %s cost %.4f", cfg.Calibrate.Metric, best)
	})
	search.Progress = func(iter int, cost float64) {
		best = cost
		bar.Incr()
	}

	res, err := search.Search(context.Background(), prob)
	uiprogress.Stop()
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("calibrated parameters"))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, name := range tunable {
		fmt.Fprintf(w, "%s\t%.5f\n", name, res.Params[name])
	}
	fmt.Fprintf(w, "cost (%s)\t%.5f\n", cfg.Calibrate.Metric, res.Cost)
	fmt.Fprintf(w, "evaluations\t%d\n", res.Evals)
	return w.Flush()
}

// loadForcing reads a CSV with a header row naming the channels; a
// "time" or "date" column supplies the index, otherwise row numbers do.
func loadForcing(path string) (*forcing.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("forcing file %s: no data rows", path)
	}

	header := records[0]
	cols := make([][]float64, len(header))
	timeCol := -1
	for j, name := range header {
		if n := strings.ToLower(strings.TrimSpace(name)); n == "time" || n == "date" || n == "t" {
			timeCol = j
		}
	}
	for i, rec := range records[1:] {
		for j, field := range rec {
			if j == timeCol {
				v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
				if err != nil {
					// date strings index by row number instead
					v = float64(i)
				}
				cols[j] = append(cols[j], v)
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("forcing file %s row %d col %q: %w", path, i+2, header[j], err)
			}
			cols[j] = append(cols[j], v)
		}
	}

	times := make([]float64, len(records)-1)
	for i := range times {
		times[i] = float64(i)
	}
	if timeCol >= 0 {
		times = cols[timeCol]
	}

	series := forcing.NewSeries(times)
	for j, name := range header {
		if j == timeCol {
			continue
		}
		if err := series.Add(strings.ToLower(strings.TrimSpace(name)), cols[j]); err != nil {
			return nil, err
		}
	}
	return series, nil
}
