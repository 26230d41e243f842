package benchmark

import (
	"context"
	"encoding/json"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-ipd/dataset"
	"github.com/nvr-ai/go-ipd/formats"
	"github.com/nvr-ai/go-ipd/geometry"
	"github.com/nvr-ai/go-ipd/logging"
	"github.com/nvr-ai/go-ipd/profiler"
	"github.com/nvr-ai/go-ipd/repeatability"
)

// Renderer draws the matches of one pair into outPath.
type Renderer func(imagePath, outPath string, res *repeatability.Result, threshold float64) error

// Suite evaluates sequences and collects their results.
type Suite struct {
	cfg       Config
	evaluator *repeatability.Evaluator
	log       logrus.FieldLogger
	profiler  *profiler.Profiler
	renderer  Renderer
	runID     string

	mu      sync.RWMutex
	results []PairResult
}

// NewSuite creates a benchmark suite.
//
// Arguments:
//   - cfg: The run configuration; Datasets may be empty when sequences are
//     passed to RunSequence directly.
//   - logger: Destination for progress; nil discards it.
//
// Returns:
//   - *Suite: The benchmark suite.
//   - error: A validation error for the thresholds or evaluation parameters.
func NewSuite(cfg Config, logger logrus.FieldLogger) (*Suite, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	check := cfg
	if len(check.Datasets) == 0 {
		check.Datasets = []string{"-"}
	}
	if err := check.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := logger.WithField("run", runID)
	evaluator, err := repeatability.NewEvaluator(cfg.Evaluation, log)
	if err != nil {
		return nil, err
	}

	return &Suite{
		cfg:       cfg,
		evaluator: evaluator,
		log:       log,
		profiler:  profiler.New(profiler.Options{}),
		runID:     runID,
		results:   make([]PairResult, 0),
	}, nil
}

// SetRenderer enables overlays when Config.Overlay is set.
func (s *Suite) SetRenderer(r Renderer) {
	s.renderer = r
}

// RunID identifies the run in logs and reports.
func (s *Suite) RunID() string {
	return s.runID
}

// Profiler returns the timing tracker of the suite.
func (s *Suite) Profiler() *profiler.Profiler {
	return s.profiler
}

// reference is the loaded image 1 of a sequence.
type reference struct {
	regions       []geometry.Region
	width, height float64
}

func loadFrame(f dataset.Frame) (reference, error) {
	regions, err := formats.LoadRegions(f.RegionsPath)
	if err != nil {
		return reference{}, err
	}
	w, h, err := formats.ImageBounds(f.ImagePath)
	if err != nil {
		return reference{}, err
	}
	return reference{regions: regions, width: w, height: h}, nil
}

// RunSequence evaluates the reference image of seq against every other
// image. Malformed files stop the sequence.
//
// Arguments:
//   - ctx: Cancels the run between and during pairs.
//   - seq: The sequence to evaluate.
//
// Returns:
//   - []PairResult: One result per pair in index order.
//   - error: The first load, evaluation or overlay error.
func (s *Suite) RunSequence(ctx context.Context, seq *dataset.Sequence) ([]PairResult, error) {
	log := s.log.WithField("sequence", seq.Name)

	stop := s.profiler.StartOperation("load")
	ref, err := loadFrame(seq.Reference)
	stop()
	if err != nil {
		return nil, errors.Wrapf(err, "sequence %s reference", seq.Name)
	}

	out := make([]PairResult, 0, seq.Len())
	for _, frame := range seq.Pairs {
		if err := ctx.Err(); err != nil {
			return out, errors.Wrap(err, "benchmark cancelled")
		}

		result, err := s.runPair(ctx, seq, ref, frame)
		if err != nil {
			return out, errors.Wrapf(err, "sequence %s pair 1-%d", seq.Name, frame.Index)
		}

		fields := logrus.Fields{
			"pair":       frame.Index,
			"valid1":     result.Valid1,
			"valid2":     result.Valid2,
			"candidates": result.Candidates,
		}
		for _, sum := range result.Summaries {
			fields["r@"+strconv.FormatFloat(sum.Threshold, 'f', -1, 64)] = formatRepeatability(sum.Repeatability)
		}
		log.WithFields(fields).Info("pair evaluated")

		s.mu.Lock()
		s.results = append(s.results, result)
		s.mu.Unlock()
		out = append(out, result)
	}
	return out, nil
}

func (s *Suite) runPair(ctx context.Context, seq *dataset.Sequence, ref reference, frame dataset.Frame) (PairResult, error) {
	result := PairResult{Sequence: seq.Name, Pair: frame.Index, Timestamp: time.Now()}

	stop := s.profiler.StartOperation("load")
	other, err := loadFrame(frame)
	if err != nil {
		return result, err
	}
	h, err := formats.LoadHomography(frame.HomographyPath)
	if err != nil {
		return result, err
	}
	result.Timings.Load = stop()

	var startMem runtime.MemStats
	runtime.ReadMemStats(&startMem)

	stop = s.profiler.StartOperation("evaluate")
	res, err := s.evaluator.Evaluate(ctx, repeatability.Pair{
		Regions1: ref.regions,
		Regions2: other.regions,
		Width1:   ref.width,
		Height1:  ref.height,
		Width2:   other.width,
		Height2:  other.height,
		H:        h,
	})
	result.Timings.Evaluate = stop()
	if err != nil {
		return result, err
	}

	var endMem runtime.MemStats
	runtime.ReadMemStats(&endMem)
	result.MemoryStats = MemoryMetrics{
		AllocBytes:      endMem.Alloc,
		TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
		SysBytes:        endMem.Sys,
		NumGC:           endMem.NumGC - startMem.NumGC,
		HeapAllocBytes:  endMem.HeapAlloc,
	}

	result.Regions1 = len(ref.regions)
	result.Regions2 = len(other.regions)
	result.Valid1 = res.Valid1.Len()
	result.Valid2 = res.Valid2.Len()
	result.Candidates = res.Candidates
	result.Degenerate = res.Degenerate
	result.Summaries = make([]repeatability.Summary, 0, len(s.cfg.Thresholds))
	for _, th := range s.cfg.Thresholds {
		result.Summaries = append(result.Summaries, res.Summary(th))
	}
	s.profiler.RecordMetric("candidates", float64(res.Candidates))
	s.profiler.RecordMetric("degenerate", float64(res.Degenerate))

	if s.cfg.Overlay && s.renderer != nil {
		path := filepath.Join(s.cfg.OutputDir, "overlays", fmt.Sprintf("%s_1to%d.png", seq.Name, frame.Index))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return result, errors.Wrap(err, "create overlay directory")
		}
		stop = s.profiler.StartOperation("overlay")
		err := s.renderer(seq.Reference.ImagePath, path, res, s.cfg.OverlayThreshold)
		result.Timings.Overlay = stop()
		if err != nil {
			return result, errors.Wrap(err, "render overlay")
		}
		result.Overlay = path
	}
	return result, nil
}

// RunAll loads and evaluates every configured dataset in order.
func (s *Suite) RunAll(ctx context.Context) error {
	for _, dir := range s.cfg.Datasets {
		seq, err := dataset.LoadSequence(dir, s.cfg.RegionExt)
		if err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"sequence": seq.Name,
			"pairs":    seq.Len(),
		}).Info("running sequence")

		if _, err := s.RunSequence(ctx, seq); err != nil {
			return err
		}
	}
	return nil
}

// Results returns a copy of all pair results so far.
func (s *Suite) Results() []PairResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]PairResult, len(s.results))
	copy(results, s.results)
	return results
}

// Report is the JSON document written by SaveResults.
type Report struct {
	RunID     string            `json:"run_id"`
	Timestamp time.Time         `json:"timestamp"`
	Config    Config            `json:"config"`
	Results   []PairResult      `json:"results"`
	Sequences []SequenceSummary `json:"sequences"`
	Profile   profiler.Snapshot `json:"profile"`
}

// SaveResults writes the detailed JSON report and the summary CSV to the
// output directory.
//
// Returns:
//   - string: The JSON report path.
//   - string: The CSV summary path.
//   - error: Any error creating the files.
func (s *Suite) SaveResults() (string, string, error) {
	results := s.Results()

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "create output directory")
	}

	now := time.Now()
	timestamp := now.Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(s.cfg.OutputDir, fmt.Sprintf("repeatability_results_%s.json", timestamp))

	data, err := json.MarshalIndent(Report{
		RunID:     s.runID,
		Timestamp: now,
		Config:    s.cfg,
		Results:   results,
		Sequences: Aggregate(results),
		Profile:   s.profiler.Snapshot(),
	}, "", "  ")
	if err != nil {
		return "", "", errors.Wrap(err, "marshal results")
	}
	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return "", "", errors.Wrap(err, "write results file")
	}

	summaryFile := filepath.Join(s.cfg.OutputDir, fmt.Sprintf("repeatability_summary_%s.csv", timestamp))
	if err := saveSummaryCSV(summaryFile, results); err != nil {
		return "", "", errors.Wrap(err, "save summary CSV")
	}

	s.log.WithFields(logrus.Fields{
		"results": resultsFile,
		"summary": summaryFile,
	}).Info("results saved")
	return resultsFile, summaryFile, nil
}

func saveSummaryCSV(filename string, results []PairResult) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{
		"Sequence", "Pair", "Threshold", "Matches", "Potential", "Repeatability",
		"Regions1", "Regions2", "Valid1", "Valid2", "Candidates", "Degenerate", "Evaluate_ms",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		for _, sum := range r.Summaries {
			record := []string{
				r.Sequence,
				strconv.Itoa(r.Pair),
				strconv.FormatFloat(sum.Threshold, 'g', -1, 64),
				strconv.Itoa(sum.Matches),
				strconv.Itoa(sum.Potential),
				formatRepeatability(sum.Repeatability),
				strconv.Itoa(r.Regions1),
				strconv.Itoa(r.Regions2),
				strconv.Itoa(r.Valid1),
				strconv.Itoa(r.Valid2),
				strconv.Itoa(r.Candidates),
				strconv.Itoa(r.Degenerate),
				strconv.FormatFloat(float64(r.Timings.Evaluate.Nanoseconds())/1e6, 'f', 2, 64),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func formatRepeatability(v float64) string {
	if repeatability.IsUndefined(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
