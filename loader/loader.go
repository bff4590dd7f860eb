package loader

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/LasseHels/listenconf/server"
)

// Source is a configuration document waiting to be decoded.
type Source struct {
	// Name identifies the document in output and logs, e.g. its file path.
	Name   string
	Format server.Format
	Data   []byte
}

// Result is the outcome of decoding a single Source. Exactly one of Config and Err is set.
type Result struct {
	Source Source
	Config *server.Config
	Err    error
}

type Loader struct {
	logger      *slog.Logger
	decodes     *prometheus.CounterVec
	concurrency int
}

type NewLoaderOptions struct {
	Logger *slog.Logger
	// Registerer on which decode metrics are registered.
	Registerer prometheus.Registerer
	// Concurrency is the maximum number of documents DecodeAll decodes at once. Values below 1 are treated as 1.
	Concurrency int
}

func NewLoader(opts *NewLoaderOptions) *Loader {
	decodes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "listenconf",
		Name:      "decodes_total",
		Help:      "Number of configuration documents decoded, partitioned by format and outcome.",
	}, []string{"format", "outcome"})
	opts.Registerer.MustRegister(decodes)

	return &Loader{
		logger:      opts.Logger,
		decodes:     decodes,
		concurrency: max(opts.Concurrency, 1),
	}
}

// ReadSource reads the document at path. Its format is chosen from the file extension, and environment variables in
// the document are expanded before it is decoded.
func ReadSource(path string) (Source, error) {
	format, err := server.FormatFromPath(path)
	if err != nil {
		return Source{}, errors.Wrapf(err, "reading config file at path %q", path)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return Source{}, errors.Wrapf(err, "reading config file at path %q", path)
	}

	buf = []byte(os.ExpandEnv(string(buf)))

	return Source{
		Name:   path,
		Format: format,
		Data:   buf,
	}, nil
}

// Decode src and record the outcome.
func (l *Loader) Decode(src Source) (*server.Config, error) {
	logger := l.logger.With(slog.String("source", src.Name), slog.String("format", src.Format.String()))

	cfg, err := server.Decode(src.Format, src.Data)
	outcome := Outcome(err)
	l.decodes.WithLabelValues(src.Format.String(), outcome).Inc()

	if err != nil {
		logger.Warn(
			"Failed to decode configuration",
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	logger.Debug("Decoded configuration", slog.String("mode", cfg.Listen.Mode()))

	return cfg, nil
}

// DecodeAll decodes every source concurrently. Results are returned in the order of sources, and a failed decode does
// not stop the others. The returned error is non-nil only if ctx is cancelled before all sources are decoded.
func (l *Loader) DecodeAll(ctx context.Context, sources []Source) ([]Result, error) {
	return l.each(ctx, len(sources), func(i int) Result {
		cfg, err := l.Decode(sources[i])
		return Result{Source: sources[i], Config: cfg, Err: err}
	})
}

// LoadFiles reads and decodes every path concurrently. A file that cannot be read produces a Result whose Err says
// so, in the same way as a document that cannot be decoded.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) ([]Result, error) {
	return l.each(ctx, len(paths), func(i int) Result {
		src, err := ReadSource(paths[i])
		if err != nil {
			l.logger.Warn(
				"Failed to read configuration",
				slog.String("source", paths[i]),
				slog.String("error", err.Error()),
			)
			return Result{Source: Source{Name: paths[i]}, Err: err}
		}

		cfg, err := l.Decode(src)
		return Result{Source: src, Config: cfg, Err: err}
	})
}

// each runs fn for every index in [0, n) with at most l.concurrency calls in flight, collecting results by index.
func (l *Loader) each(ctx context.Context, n int, fn func(i int) Result) ([]Result, error) {
	results := make([]Result, n)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(l.concurrency)

	for i := range n {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = fn(i)

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, errors.Wrap(err, "decoding configuration documents")
	}

	return results, nil
}

// Failures combines the errors of all failed results. Each error is prefixed with the name of its source.
func Failures(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, errors.Wrap(r.Err, r.Source.Name))
		}
	}

	return multierr.Combine(errs...)
}

// Outcome classifies the error returned by server.Decode for use as a metric label.
func Outcome(err error) string {
	var (
		syntaxErr     *server.SyntaxError
		schemaErr     *server.SchemaError
		typeErr       *server.TypeError
		validationErr *server.ValidationError
	)

	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &syntaxErr):
		return "syntax"
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.As(err, &typeErr):
		return "type"
	case errors.As(err, &validationErr):
		return "validation"
	default:
		return "error"
	}
}
