// Package batch encodes many statement inputs concurrently and writes one
// BAI2 file per input.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/bai2-encoder/internal/metrics"
	"github.com/example/bai2-encoder/pkg/bai2"
	"github.com/example/bai2-encoder/pkg/statement"
)

// OutputExt is the extension of written BAI2 files.
const OutputExt = ".bai"

// ErrDuplicateSource is returned for an input whose output file another
// input of the same run already claims.
var ErrDuplicateSource = errors.New("duplicate source name")

// Outcome describes what happened to one input.
type Outcome struct {
	Input   string
	Output  string
	Stub    bool
	Records int
	Err     error
}

// Runner fans statement inputs out over a bounded number of workers.
type Runner struct {
	enc     *bai2.Encoder
	outDir  string
	workers int
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRunner returns a runner writing into outDir. A nil logger discards
// logs; nil metrics are not recorded.
func NewRunner(enc *bai2.Encoder, outDir string, workers int, logger *zap.Logger, m *metrics.Metrics) *Runner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		enc:     enc,
		outDir:  outDir,
		workers: workers,
		logger:  logger,
		metrics: m,
	}
}

// Run processes inputs and returns one outcome per input, in input order.
// A failing input does not stop the others; the returned error joins every
// per-input failure. Cancelling ctx stops inputs that have not started.
func (r *Runner) Run(ctx context.Context, inputs []string) ([]Outcome, error) {
	outcomes := make([]Outcome, len(inputs))
	claimed := make(map[string]string, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, in := range inputs {
		out := outputName(in)
		if first, ok := claimed[out]; ok {
			outcomes[i] = Outcome{Input: in, Err: fmt.Errorf("%s clashes with %s: %w", in, first, ErrDuplicateSource)}
			continue
		}
		claimed[out] = in

		i, in := i, in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = Outcome{Input: in, Err: err}
				return err
			}
			outcomes[i] = r.process(in, out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	if len(errs) > 0 {
		return outcomes, fmt.Errorf("%d of %d statements failed: %w", len(errs), len(inputs), errors.Join(errs...))
	}
	return outcomes, nil
}

func (r *Runner) process(in, out string) Outcome {
	start := time.Now()
	o := Outcome{Input: in}
	log := r.logger.With(zap.String("input", in))

	doc, err := r.encode(in)
	if err == nil {
		o.Output, err = writeFile(r.outDir, out, doc.Bytes())
	}
	if err != nil {
		o.Err = err
		log.Error("failed to encode statement", zap.Error(err))
		r.observe(metrics.OutcomeError, 0, start)
		return o
	}

	o.Stub = doc.IsStub()
	o.Records = doc.Totals().RecordCount

	outcome := metrics.OutcomeOK
	if o.Stub {
		outcome = metrics.OutcomeStub
	}
	log.Info("wrote BAI2 file",
		zap.String("output", o.Output),
		zap.Bool("stub", o.Stub),
		zap.Int("records", o.Records),
		zap.Int64("control_total", doc.Totals().ControlTotal))
	r.observe(outcome, o.Records, start)
	return o
}

func (r *Runner) encode(in string) (*bai2.Document, error) {
	res, err := statement.Load(in)
	if err != nil {
		return nil, err
	}
	return r.enc.EncodeResult(res)
}

func (r *Runner) observe(outcome string, records int, start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.Observe(outcome, records, time.Since(start))
}

func outputName(in string) string {
	base := filepath.Base(in)
	return strings.TrimSuffix(base, filepath.Ext(base)) + OutputExt
}
