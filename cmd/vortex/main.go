// Command vortex scans a domain's external attack surface: it resolves
// subdomains, crawls every live web host for forms and tests those forms
// for SQL injection and reflected XSS.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vortexscan/vortex/pkg/config"
	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/finding"
	"github.com/vortexscan/vortex/pkg/metrics"
	"github.com/vortexscan/vortex/pkg/pipeline"
	"github.com/vortexscan/vortex/pkg/report"
	"github.com/vortexscan/vortex/pkg/tracing"
	"github.com/vortexscan/vortex/pkg/ui"
	"github.com/vortexscan/vortex/pkg/wordlist"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// flags holds the raw command line values. Only flags that were set
// explicitly override the config file.
type flags struct {
	configFile   string
	domain       string
	wordlist     string
	threads      int
	depth        int
	sqliPayloads string
	xssPayloads  string
	outputDir    string
	json         bool
	silent       bool
	noColor      bool
	verbose      bool
	logJSON      bool
	rate         float64
	timeout      float64
	dns          string
	wildcard     bool
	metricsFile  string
	otelEndpoint string
	version      bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, map[string]bool, error) {
	f := &flags{}
	fs := flag.NewFlagSet(defaults.ToolName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	// === INPUT ===
	fs.StringVar(&f.domain, "d", "", "Target root domain (e.g. example.com)")
	fs.StringVar(&f.wordlist, "w", "", "Subdomain wordlist file (default: built-in list)")
	fs.StringVar(&f.configFile, "config", "", "YAML config file")

	// === EXECUTION ===
	fs.IntVar(&f.threads, "t", defaults.ConcurrencyResolver, "Resolver threads")
	fs.IntVar(&f.depth, "depth", defaults.DepthCrawl, "Crawl depth (levels including the start page)")
	fs.Float64Var(&f.rate, "rate", defaults.RateLimitNone, "Max requests per second per host (0 = unlimited)")
	fs.Float64Var(&f.timeout, "timeout", 8, "HTTP probe timeout in seconds")
	fs.StringVar(&f.dns, "dns", "", "Comma-separated DNS servers (default: public resolvers)")
	fs.BoolVar(&f.wildcard, "wildcard", false, "Drop hosts answering with the wildcard DNS address")

	// === PAYLOADS ===
	fs.StringVar(&f.sqliPayloads, "sqli-payloads", "", "Extra SQL injection payload file")
	fs.StringVar(&f.xssPayloads, "xss-payloads", "", "Extra XSS payload file")

	// === OUTPUT ===
	fs.StringVar(&f.outputDir, "o", "reports", "Report directory")
	fs.BoolVar(&f.json, "json", false, "Print the JSON report to stdout")
	fs.BoolVar(&f.silent, "silent", false, "No banner or progress output")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&f.verbose, "v", false, "Verbose output and debug logs")
	fs.BoolVar(&f.logJSON, "log-json", false, "Write logs as JSON")
	fs.BoolVar(&f.version, "version", false, "Print version and exit")

	// === TELEMETRY ===
	fs.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	fs.StringVar(&f.otelEndpoint, "otel-endpoint", "", "OTLP gRPC endpoint for traces (e.g. localhost:4317)")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

// apply copies explicitly set flags over cfg.
func (f *flags) apply(cfg *config.Config, set map[string]bool) {
	if set["d"] {
		cfg.Domain = f.domain
	}
	if set["w"] {
		cfg.Wordlist = f.wordlist
	}
	if set["t"] {
		cfg.Resolver.Threads = f.threads
	}
	if set["depth"] {
		cfg.Crawl.Depth = f.depth
	}
	if set["rate"] {
		cfg.HTTP.Rate = f.rate
	}
	if set["timeout"] {
		cfg.HTTP.Timeout = time.Duration(f.timeout * float64(time.Second))
	}
	if set["dns"] {
		cfg.Resolver.DNSServers = splitList(f.dns)
	}
	if set["wildcard"] {
		cfg.Resolver.Wildcard = f.wildcard
	}
	if set["sqli-payloads"] {
		cfg.Inject.SQLiPayloads = f.sqliPayloads
	}
	if set["xss-payloads"] {
		cfg.Inject.XSSPayloads = f.xssPayloads
	}
	if set["o"] {
		cfg.Output.Dir = f.outputDir
	}
	if set["json"] {
		cfg.Output.JSON = f.json
	}
	if set["silent"] {
		cfg.Output.Silent = f.silent
	}
	if set["no-color"] {
		cfg.Output.NoColor = f.noColor
	}
	if set["v"] {
		cfg.Output.Verbose = f.verbose
	}
	if set["log-json"] {
		cfg.Output.LogJSON = f.logJSON
	}
	if set["metrics-file"] {
		cfg.Telemetry.MetricsFile = f.metricsFile
	}
	if set["otel-endpoint"] {
		cfg.Telemetry.OTelEndpoint = f.otelEndpoint
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// cleanDomain strips scheme, path and port-less noise from user input:
// "https://Example.com/login" becomes "example.com".
func cleanDomain(raw string) string {
	d := strings.TrimSpace(raw)
	lower := strings.ToLower(d)
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(lower, scheme) {
			d = d[len(scheme):]
			break
		}
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(d)), ".")
}

func newLogger(w io.Writer, out config.OutputConfig) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case out.Verbose:
		level = slog.LevelDebug
	case out.LogJSON:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if out.LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func loadPayloads(cfg *config.Config) (map[finding.Class][]string, error) {
	external := make(map[finding.Class][]string)
	for class, path := range map[finding.Class]string{
		finding.SQLInjection: cfg.Inject.SQLiPayloads,
		finding.ReflectedXSS: cfg.Inject.XSSPayloads,
	} {
		if path == "" {
			continue
		}
		wl, err := wordlist.Load(path, wordlist.Payloads)
		if err != nil {
			return nil, err
		}
		external[class] = wl.Words
	}
	return external, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, set, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return defaults.ExitSuccess
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return defaults.ExitUserError
	}
	if f.version {
		fmt.Fprintf(stdout, "%s %s\n", defaults.ToolName, defaults.Version)
		return defaults.ExitSuccess
	}

	cfg := config.Default()
	if f.configFile != "" {
		if cfg, err = config.Load(f.configFile); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return defaults.ExitUserError
		}
	}
	f.apply(cfg, set)
	cfg.Domain = cleanDomain(cfg.Domain)
	cfg.ApplyDefaults()

	console := ui.NewConsole(stderr, ui.Options{
		Silent:  cfg.Output.Silent,
		NoColor: cfg.Output.NoColor,
		Verbose: cfg.Output.Verbose,
	})
	if err := cfg.Validate(); err != nil {
		console.Errorf("%v", err)
		return defaults.ExitUserError
	}

	logger := newLogger(stderr, cfg.Output)
	slog.SetDefault(logger)

	labels := wordlist.Subdomains()
	if cfg.Wordlist != "" {
		wl, err := wordlist.Load(cfg.Wordlist, wordlist.Labels)
		if err != nil {
			console.Errorf("%v", err)
			return defaults.ExitUserError
		}
		labels = wl.Words
	}
	external, err := loadPayloads(cfg)
	if err != nil {
		console.Errorf("%v", err)
		return defaults.ExitUserError
	}

	shutdown, err := tracing.Setup(ctx, tracing.Options{
		Endpoint: cfg.Telemetry.OTelEndpoint,
		Insecure: cfg.Telemetry.OTelInsecure,
	})
	if err != nil {
		console.Errorf("%v", err)
		return defaults.ExitUserError
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("trace export shutdown failed", slog.String("error", err.Error()))
		}
	}()

	var collector *metrics.Collector
	if cfg.Telemetry.MetricsFile != "" {
		if collector, err = metrics.New(); err != nil {
			console.Errorf("%v", err)
			return defaults.ExitUserError
		}
	}

	runner, err := pipeline.New(cfg.Pipeline(external),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(collector),
		pipeline.WithProgress(console))
	if err != nil {
		console.Errorf("%v", err)
		return defaults.ExitUserError
	}

	console.Banner()
	console.Infof("target %s, %d candidate labels", cfg.Domain, len(labels))

	rep, runErr := runner.Run(ctx, pipeline.Input{Domain: cfg.Domain, Labels: labels})

	if cfg.Telemetry.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.Telemetry.MetricsFile); err != nil {
			console.Errorf("%v", err)
		}
	}
	if errors.Is(runErr, pipeline.ErrNoTargets) {
		console.Errorf("%v", runErr)
		return defaults.ExitNoTargets
	}

	code := defaults.ExitSuccess
	if runErr != nil {
		console.Errorf("scan interrupted: %v", runErr)
		code = defaults.ExitUserError
	}

	if cfg.Output.Dir != "" {
		paths, err := report.WriteFiles(cfg.Output.Dir, rep)
		if err != nil {
			console.Errorf("%v", err)
			code = defaults.ExitUserError
		} else {
			console.Files(paths.All()...)
		}
	}
	if cfg.Output.JSON {
		if err := report.WriteJSON(stdout, rep); err != nil {
			console.Errorf("%v", err)
			code = defaults.ExitUserError
		}
	}
	console.Summary(rep)
	return code
}
