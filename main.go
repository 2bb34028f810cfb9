package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"health-insights/internal/analysis"
	"health-insights/internal/config"
	"health-insights/internal/logging"
	"health-insights/internal/service"
	"health-insights/internal/tui"
)

type options struct {
	period     string
	start      string
	end        string
	output     string
	format     string
	noMetadata bool
	save       bool
	view       bool
	configPath string
	envFile    string
	importPath string
	readiness  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.period, "period", "", "report period: daily, weekly or monthly (default from config, weekly)")
	flag.StringVar(&opts.start, "start", "", "start date YYYY-MM-DD (requires -end)")
	flag.StringVar(&opts.end, "end", "", "end date YYYY-MM-DD (default today)")
	flag.StringVar(&opts.output, "output", "", "write the report to this file or directory instead of stdout")
	flag.StringVar(&opts.format, "format", "", "output format: markdown or terminal (default from config, markdown)")
	flag.BoolVar(&opts.noMetadata, "no-metadata", false, "omit the YAML front matter")
	flag.BoolVar(&opts.save, "save", false, "write the report into report.output_dir from the config")
	flag.BoolVar(&opts.view, "view", false, "open the report in a scrollable pager")
	flag.StringVar(&opts.configPath, "config", "", "config file (default ~/.health-insights/config.json)")
	flag.StringVar(&opts.envFile, "env", ".env", "dotenv file with HEALTH_* overrides")
	flag.StringVar(&opts.importPath, "import", "", "import a JSON export into the database and exit")
	flag.BoolVar(&opts.readiness, "readiness", false, "print training readiness for -end (default today) and exit")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode returns 2 for invalid input and 1 for everything else
func exitCode(err error) int {
	switch {
	case errors.Is(err, analysis.ErrInvalidRange),
		errors.Is(err, service.ErrUnknownPeriod),
		errors.Is(err, service.ErrUnknownFormat),
		errors.Is(err, config.ErrInvalidConfig):
		return 2
	default:
		return 1
	}
}

func run(opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	defer logger.Sync()

	// Flags win over the config file
	if opts.period == "" {
		opts.period = cfg.Report.Period
	}
	if opts.format == "" {
		opts.format = cfg.Report.Format
	}
	includeMetadata := cfg.Report.IncludeMetadata && !opts.noMetadata

	backend, err := service.OpenBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	if opts.importPath != "" {
		return importFile(ctx, backend, opts.importPath, logger)
	}

	reports := service.NewReportService(backend.Repository(), cfg.AnalyzerConfigs(), logger, nil)

	if opts.readiness {
		return printReadiness(ctx, reports, opts.end)
	}

	req := service.Request{Period: opts.period, Start: opts.start, End: opts.end}

	// Validate the request before taking over the terminal
	report, err := reports.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generating report: %w", err)
	}

	if opts.view {
		// The pager shows the terminal rendering unless -format asks otherwise
		format := service.FormatTerminal
		if flagSet("format") {
			format = opts.format
		}
		first := true
		return tui.Run("Health Report", func() (string, error) {
			r := report
			if !first {
				var err error
				if r, err = reports.Generate(ctx, req); err != nil {
					return "", err
				}
			}
			first = false
			return service.Render(r, format, includeMetadata)
		})
	}

	content, err := service.Render(report, opts.format, includeMetadata)
	if err != nil {
		return err
	}

	if opts.output == "" && opts.save {
		opts.output = cfg.Report.OutputDir + string(filepath.Separator)
	}
	if opts.output == "" {
		fmt.Print(content)
		return nil
	}

	path := opts.output
	if isDir(path) {
		path = service.DefaultOutputPath(path, report)
	}
	if err := service.WriteReport(path, content); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Report saved to: %s\n", path)
	return nil
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func isDir(path string) bool {
	if strings.HasSuffix(path, string(filepath.Separator)) {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
		if errors.Is(err, config.ErrNoConfig) {
			if err := config.CreateExample(); err != nil {
				return nil, fmt.Errorf("creating example config: %w", err)
			}
			configDir, _ := config.GetConfigDir()
			fmt.Fprintf(os.Stderr, "No config file found. Created one with defaults at:\n  %s/config.json\n\n", configDir)
			cfg, err = config.Load()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.ApplyEnv(opts.envFile); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func importFile(ctx context.Context, backend *service.Backend, path string, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	importer := service.NewImportService(backend.DB, backend.Invalidator(), logger)
	result, err := importer.Import(ctx, f, filepath.Base(path))
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d nights, %d stress samples, %d heart rate samples, %d activities, %d daily summaries\n",
		result.SleepNights, result.StressSamples, result.HeartRateSamples, result.Activities, result.DailySummaries)
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "  skipped: %v\n", e)
	}
	return nil
}

func printReadiness(ctx context.Context, reports *service.ReportService, day string) error {
	r, err := reports.Readiness(ctx, day)
	if err != nil {
		return fmt.Errorf("computing readiness: %w", err)
	}

	fmt.Printf("Readiness for %s: %d/100 (recovery %d/100)\n",
		r.Date.Format("2006-01-02"), r.ReadinessScore, r.RecoveryScore)
	fmt.Printf("Recommended intensity: %s\n", r.RecommendedIntensity)
	return nil
}
