package repeatability

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-ipd/geometry"
	"github.com/nvr-ai/go-ipd/logging"
)

// Pair is the input of one evaluation: two detections of the same planar
// scene and the homography relating the images.
type Pair struct {
	// Regions1 are the regions detected in image 1.
	Regions1 []geometry.Region
	// Regions2 are the regions detected in image 2.
	Regions2 []geometry.Region
	// Width1, Height1 are the pixel bounds of image 1.
	Width1, Height1 float64
	// Width2, Height2 are the pixel bounds of image 2.
	Width2, Height2 float64
	// H maps image-1 coordinates to image-2 coordinates.
	H geometry.Homography
}

// Evaluator runs the filter, score, match pipeline.
type Evaluator struct {
	cfg    Config
	scorer Scorer
	log    logrus.FieldLogger
}

// NewEvaluator validates cfg and builds an evaluator.
//
// Arguments:
//   - cfg: Evaluation parameters; zero fields take defaults.
//   - logger: Destination for diagnostics; nil discards them.
//
// Returns:
//   - *Evaluator: The evaluator.
//   - error: A validation error for out-of-range parameters.
func NewEvaluator(cfg Config, logger logrus.FieldLogger) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	cfg = cfg.withDefaults()
	return &Evaluator{
		cfg:    cfg,
		scorer: Scorer{
			MaxDistanceFactor: cfg.MaxDistanceFactor,
			GridSteps:         cfg.GridSteps,
			ScaleDisplacement: cfg.ScaleDisplacement,
		},
		log:    logger,
	}, nil
}

// Config returns the effective configuration.
func (e *Evaluator) Config() Config {
	return e.cfg
}

// Evaluate restricts both region sets to the mutually visible area, scores
// every cross pair in the frame of image 1 and prunes the pairs to a greedy
// one-to-one matching.
//
// Arguments:
//   - ctx: Cancels scoring between rows.
//   - pair: The two detections, image bounds and homography.
//
// Returns:
//   - *Result: The filtered sets and the matching.
//   - error: geometry.ErrSingular when H cannot be inverted,
//     geometry.ErrDegenerate when image bounds cannot be projected, or the
//     context error.
func (e *Evaluator) Evaluate(ctx context.Context, pair Pair) (*Result, error) {
	inv, err := pair.H.Inverse()
	if err != nil {
		return nil, err
	}

	valid2, err := FilterVisible(NewRegionSet(pair.Regions2), pair.Width1, pair.Height1, pair.H)
	if err != nil {
		return nil, errors.Wrap(err, "filter image 2 regions")
	}
	valid1, err := FilterVisible(NewRegionSet(pair.Regions1), pair.Width2, pair.Height2, inv)
	if err != nil {
		return nil, errors.Wrap(err, "filter image 1 regions")
	}

	res := &Result{
		Valid1:    valid1,
		Valid2:    valid2,
		Remapped2: make([]geometry.Region, valid2.Len()),
	}

	remapped := make([]bool, valid2.Len())
	for j, r := range valid2.Regions {
		back, err := r.Transform(inv)
		if err != nil {
			e.log.WithFields(logrus.Fields{
				"region": valid2.OriginalIndex(j),
				"error":  err.Error(),
			}).Debug("region cannot be mapped into image 1")
			res.Degenerate++
			continue
		}
		res.Remapped2[j] = back
		remapped[j] = true
	}

	rows, degenerate, err := e.scoreRows(ctx, valid1.Regions, res.Remapped2, remapped)
	if err != nil {
		return nil, err
	}

	var candidates []ScoredPair
	for i, row := range rows {
		candidates = append(candidates, row...)
		res.Degenerate += degenerate[i]
	}
	res.Candidates = len(candidates)
	res.Matching = GreedyMatch(candidates, min(valid1.Len(), valid2.Len()))

	fields := logrus.Fields{
		"regions1":   len(pair.Regions1),
		"regions2":   len(pair.Regions2),
		"valid1":     valid1.Len(),
		"valid2":     valid2.Len(),
		"candidates": res.Candidates,
		"matched":    len(res.Matching),
	}
	if res.Degenerate > 0 {
		fields["degenerate"] = res.Degenerate
		e.log.WithFields(fields).Warn("degenerate region pairs scored as zero overlap")
	} else {
		e.log.WithFields(fields).Debug("evaluated region pair")
	}
	return res, nil
}

// scoreRows scores every (i, j) pair on a worker pool. Each row is written to
// its own slot so the concatenated result does not depend on scheduling.
func (e *Evaluator) scoreRows(
	ctx context.Context,
	first []geometry.Region,
	second []geometry.Region,
	usable []bool,
) ([][]ScoredPair, []int, error) {
	rows := make([][]ScoredPair, len(first))
	degenerate := make([]int, len(first))

	jobs := make(chan int, len(first))
	var wg sync.WaitGroup
	for w := 0; w < e.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				var row []ScoredPair
				for j, r2 := range second {
					if !usable[j] {
						continue
					}
					score, bad := e.scorer.Score(first[i], r2)
					if bad {
						degenerate[i]++
					}
					if score > 0 {
						row = append(row, ScoredPair{A: i, B: j, Score: score})
					}
				}
				rows[i] = row
			}
		}()
	}

	for i := range first {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "score region pairs")
	}
	return rows, degenerate, nil
}
