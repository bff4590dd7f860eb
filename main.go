package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/multierr"

	"github.com/LasseHels/listenconf/loader"
	"github.com/LasseHels/listenconf/log"
	"github.com/LasseHels/listenconf/server"
)

// release is set through the linker at build time, generally from a git sha. Used for logging and error reporting.
var release string

// envPrefix is prepended to the environment variables that settings are read from.
const envPrefix = "LISTENCONF_"

// settings of the driver. Environment variables are read first and flags override them.
type settings struct {
	Log         log.Config `envPrefix:"LOG_"`
	Metrics     bool       `env:"METRICS"`
	Concurrency int        `env:"CONCURRENCY" envDefault:"4"`
}

// example is a built-in document decoded when no paths are given.
type example struct {
	title string
	doc   string
}

var examples = []example{
	{
		title: "HTTP configuration",
		doc:   "listen.http.tcp_port = 8000\n",
	},
	{
		title: "HTTPS configuration (full)",
		doc: "listen.https.tcp_port = 443\n" +
			"listen.https.tcp_port_http_redirect = 80\n" +
			"listen.https.udp_port = 443\n",
	},
	{
		title: "HTTPS configuration (minimal)",
		doc:   "listen.https.tcp_port = 443\n",
	},
	{
		title: "HTTPS configuration (nested tables)",
		doc: "[listen.https]\n" +
			"tcp_port = 8443\n" +
			"udp_port = 8443\n",
	},
	{
		title: "Invalid configuration (both http and https)",
		doc: "listen.http.tcp_port = 8000\n" +
			"listen.https.tcp_port = 443\n",
	},
	{
		title: "Invalid configuration (neither http nor https)",
		doc:   "[listen]\n",
	},
}

func main() {
	os.Exit(start())
}

func start() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	s, paths, err := parseSettings(os.Args[1:])
	if err != nil {
		fmt.Println(err.Error())
		return 1
	}

	if err := run(ctx, s, paths, os.Stdout); err != nil {
		fmt.Println(err.Error())
		return 1
	}

	return 0
}

// parseSettings reads settings from the environment and then from args. The remaining positional arguments are
// returned as document paths.
func parseSettings(args []string) (settings, []string, error) {
	var s settings
	if err := env.ParseWithOptions(&s, env.Options{Prefix: envPrefix}); err != nil {
		return settings{}, nil, errors.Wrap(err, "parsing environment")
	}

	fs := flag.NewFlagSet("listenconf", flag.ContinueOnError)
	fs.TextVar(&s.Log.Level, "log.level", s.Log.Level, "Minimum level of emitted logs (DEBUG, INFO, WARN, or ERROR)")
	fs.BoolVar(&s.Metrics, "metrics", s.Metrics, "Print decode metrics in Prometheus text format after all documents")
	fs.IntVar(&s.Concurrency, "concurrency", s.Concurrency, "Maximum number of documents decoded at once")

	if err := fs.Parse(args); err != nil {
		return settings{}, nil, errors.Wrap(err, "parsing flags")
	}

	return s, fs.Args(), nil
}

// run decodes the documents at paths, or the built-in examples if paths is empty, and prints each result to w.
// Documents that fail to decode are reported and do not cause run to fail.
func run(ctx context.Context, s settings, paths []string, w io.Writer) error {
	l := log.New(w, s.Log, release)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())

	ld := loader.NewLoader(&loader.NewLoaderOptions{
		Logger:      l,
		Registerer:  registry,
		Concurrency: s.Concurrency,
	})

	var (
		results []loader.Result
		err     error
	)

	if len(paths) == 0 {
		_, _ = fmt.Fprintln(w, "Listener configuration examples")
		_, _ = fmt.Fprintln(w)
		results, err = ld.DecodeAll(ctx, exampleSources())
	} else {
		results, err = ld.LoadFiles(ctx, paths)
	}

	if err != nil {
		return err
	}

	for i, r := range results {
		printResult(w, i+1, r)
	}

	l.Info(
		"Decoded configuration documents",
		slog.Int("total", len(results)),
		slog.Int("failed", len(multierr.Errors(loader.Failures(results)))),
	)

	if s.Metrics {
		if err := writeMetrics(w, registry); err != nil {
			return errors.Wrap(err, "writing metrics")
		}
	}

	return nil
}

func exampleSources() []loader.Source {
	sources := make([]loader.Source, 0, len(examples))
	for _, e := range examples {
		sources = append(sources, loader.Source{
			Name:   e.title,
			Format: server.TOML,
			Data:   []byte(e.doc),
		})
	}

	return sources
}

func printResult(w io.Writer, n int, r loader.Result) {
	_, _ = fmt.Fprintf(w, "Example %d - %s:\n", n, r.Source.Name)

	if doc := strings.TrimSpace(string(r.Source.Data)); doc != "" {
		_, _ = fmt.Fprintln(w, doc)
	}

	if r.Err != nil {
		_, _ = fmt.Fprintf(w, "Error: %s\n\n", r.Err)
		return
	}

	ports := make([]string, 0, 3)
	for _, p := range r.Config.Ports() {
		ports = append(ports, string(p))
	}

	_, _ = fmt.Fprintf(w, "Parsed: %s\n", r.Config)
	_, _ = fmt.Fprintf(w, "Ports: %s\n\n", strings.Join(ports, ", "))
}

func writeMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrapf(err, "encoding metric family %s", mf.GetName())
		}
	}

	return nil
}
