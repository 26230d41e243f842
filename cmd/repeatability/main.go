package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-ipd/benchmark"
	"github.com/nvr-ai/go-ipd/formats"
	"github.com/nvr-ai/go-ipd/logging"
	"github.com/nvr-ai/go-ipd/overlay"
	"github.com/nvr-ai/go-ipd/repeatability"
)

// listFlag collects repeated or comma separated values.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

type options struct {
	configFile  string
	datasets    listFlag
	regionExt   string
	outputDir   string
	thresholds  string
	maxDistance float64
	workers     int
	overlay     bool
	logLevel    string
	logFile     string
	timeout     time.Duration
	profile     bool

	homography string
	regions1   string
	regions2   string
	image1     string
	image2     string
	threshold  float64
}

func newFlagSet(name string, out io.Writer, o *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&o.configFile, "config", "", "Path to benchmark configuration file (YAML or JSON)")
	fs.Var(&o.datasets, "dataset", "Sequence directory; repeatable or comma separated")
	fs.StringVar(&o.regionExt, "ext", "", "Region file extension (default haraff)")
	fs.StringVar(&o.outputDir, "output", "", "Output directory for reports and overlays")
	fs.StringVar(&o.thresholds, "thresholds", "", "Comma separated overlap thresholds")
	fs.Float64Var(&o.maxDistance, "max-distance", 0, "Distance gate as a multiple of the region radius")
	fs.IntVar(&o.workers, "workers", 0, "Scoring goroutines (default: number of CPUs)")
	fs.BoolVar(&o.overlay, "overlay", false, "Render matched regions onto the reference image")
	fs.StringVar(&o.logLevel, "log-level", envOr("IPD_LOG_LEVEL", "info"), "Log level")
	fs.StringVar(&o.logFile, "log-file", os.Getenv("IPD_LOG_FILE"), "Optional rotating log file")
	fs.DurationVar(&o.timeout, "timeout", 30*time.Minute, "Timeout for the whole run")
	fs.BoolVar(&o.profile, "profile", false, "Log operation timings at the end of a dataset run")

	fs.StringVar(&o.homography, "homography", "", "Homography file; selects single pair mode")
	fs.StringVar(&o.regions1, "regions1", "", "Regions detected in image 1")
	fs.StringVar(&o.regions2, "regions2", "", "Regions detected in image 2")
	fs.StringVar(&o.image1, "image1", "", "Image 1, for its bounds")
	fs.StringVar(&o.image2, "image2", "", "Image 2, for its bounds")
	fs.Float64Var(&o.threshold, "threshold", repeatability.DefaultOverlapThreshold, "Overlap threshold in single pair mode")

	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: %s [options]\n\n", name)
		fmt.Fprintf(out, "Repeatability of affine region detectors under a known homography.\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  %s -homography H1to2p -regions1 img1.haraff -regions2 img2.haraff -image1 img1.ppm -image2 img2.ppm\n", name)
		fmt.Fprintf(out, "  %s -dataset data/graf,data/wall -ext hesaff -output results\n", name)
		fmt.Fprintf(out, "  %s -config bench.yaml -overlay\n", name)
	}
	return fs
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// A .env file only seeds defaults; its absence is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var o options
	fs := newFlagSet(filepath.Base(os.Args[0]), stderr, &o)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger, err := logging.New(logging.Options{Level: o.logLevel, File: o.logFile, Output: stderr})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if o.homography != "" {
		err = runPair(ctx, o, stdout, logger)
	} else {
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		err = runDatasets(ctx, o, set, stdout, logger)
	}
	if err != nil {
		logger.WithError(err).Error("repeatability evaluation failed")
		return 1
	}
	return 0
}

func runPair(ctx context.Context, o options, stdout io.Writer, log *logrus.Logger) error {
	for flagName, v := range map[string]string{
		"regions1": o.regions1, "regions2": o.regions2, "image1": o.image1, "image2": o.image2,
	} {
		if v == "" {
			return errors.Errorf("-%s is required with -homography", flagName)
		}
	}

	h, err := formats.LoadHomography(o.homography)
	if err != nil {
		return err
	}
	r1, err := formats.LoadRegions(o.regions1)
	if err != nil {
		return err
	}
	r2, err := formats.LoadRegions(o.regions2)
	if err != nil {
		return err
	}
	w1, h1, err := formats.ImageBounds(o.image1)
	if err != nil {
		return err
	}
	w2, h2, err := formats.ImageBounds(o.image2)
	if err != nil {
		return err
	}

	evaluator, err := repeatability.NewEvaluator(repeatability.Config{
		MaxDistanceFactor: o.maxDistance,
		Workers:           o.workers,
	}, log)
	if err != nil {
		return err
	}
	res, err := evaluator.Evaluate(ctx, repeatability.Pair{
		Regions1: r1, Regions2: r2,
		Width1: w1, Height1: h1,
		Width2: w2, Height2: h2,
		H: h,
	})
	if err != nil {
		return err
	}

	s := res.Summary(o.threshold)
	if s.Undefined() {
		fmt.Fprintf(stdout, "repeatability: undefined (no visible regions) at overlap %g\n", o.threshold)
	} else {
		fmt.Fprintf(stdout, "repeatability: %.4f (%d/%d) at overlap %g\n", s.Repeatability, s.Matches, s.Potential, o.threshold)
	}
	fmt.Fprintf(stdout, "regions: %d/%d valid in image 1, %d/%d valid in image 2, %d candidates\n",
		res.Valid1.Len(), len(r1), res.Valid2.Len(), len(r2), res.Candidates)

	if o.overlay {
		dir := o.outputDir
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
		path := filepath.Join(dir, "overlay.png")
		if err := overlay.Render(o.image1, path, res, o.threshold, overlay.Options{Caption: true}); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "overlay: %s\n", path)
	}
	return nil
}

func runDatasets(ctx context.Context, o options, set map[string]bool, stdout io.Writer, log *logrus.Logger) error {
	cfg := benchmark.DefaultConfig()
	if o.configFile != "" {
		var err error
		if cfg, err = benchmark.LoadConfig(o.configFile); err != nil {
			return err
		}
	}

	if set["dataset"] {
		cfg.Datasets = o.datasets
	}
	if set["ext"] {
		cfg.RegionExt = o.regionExt
	}
	if set["output"] {
		cfg.OutputDir = o.outputDir
	}
	if set["thresholds"] {
		th, err := parseThresholds(o.thresholds)
		if err != nil {
			return err
		}
		cfg.Thresholds = th
	}
	if set["max-distance"] {
		cfg.Evaluation.MaxDistanceFactor = o.maxDistance
	}
	if set["workers"] {
		cfg.Evaluation.Workers = o.workers
	}
	if set["overlay"] {
		cfg.Overlay = o.overlay
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	suite, err := benchmark.NewSuite(cfg, log)
	if err != nil {
		return err
	}
	suite.SetRenderer(func(imagePath, outPath string, res *repeatability.Result, threshold float64) error {
		return overlay.Render(imagePath, outPath, res, threshold, overlay.Options{MaxWidth: cfg.OverlayMaxWidth, Caption: true})
	})

	start := time.Now()
	runErr := suite.RunAll(ctx)
	if len(suite.Results()) > 0 {
		if _, _, err := suite.SaveResults(); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	if o.profile {
		suite.Profiler().Report(log)
	}

	fmt.Fprintf(stdout, "run %s completed in %v\n", suite.RunID(), time.Since(start).Truncate(time.Millisecond))
	for _, s := range benchmark.Aggregate(suite.Results()) {
		mean := "undefined"
		if !repeatability.IsUndefined(s.Mean) {
			mean = strconv.FormatFloat(s.Mean, 'f', 4, 64)
		}
		fmt.Fprintf(stdout, "  %-12s overlap %.2f  mean repeatability %s over %d pairs\n", s.Sequence, s.Threshold, mean, s.Pairs)
	}
	return nil
}

func parseThresholds(v string) ([]float64, error) {
	var out []float64
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		th, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "threshold %q", s)
		}
		out = append(out, th)
	}
	return out, nil
}
