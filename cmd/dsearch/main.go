package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rowett/primedigitsum/internal/digitsum"
	"github.com/rowett/primedigitsum/internal/platform/config"
	perr "github.com/rowett/primedigitsum/internal/platform/errors"
	"github.com/rowett/primedigitsum/internal/platform/logger"
	"github.com/rowett/primedigitsum/internal/primality"
	"github.com/rowett/primedigitsum/internal/report"
	"github.com/rowett/primedigitsum/internal/search"
	"github.com/rowett/primedigitsum/internal/store"
)

type options struct {
	output     string
	dbPath     string
	configPath string
	workers    int
	metrics    bool
	logLevel   string
	logFormat  string
	primality  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "dsearch start end minbase maxbase",
		Short: "Find the smallest primes whose digit sums are prime in every base",
		Long: `dsearch finds ds(n) for each n = minbase-1 .. maxbase-1: the smallest prime
in [start, end] whose digit sum is prime in every base from 2 to n+1.`,
		Args:         cobra.ExactArgs(4),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseArgs(args)
			if err != nil {
				return err
			}
			if err := applyProfile(&opts, cmd.Flags().Changed); err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), req, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "Write results to this text file")
	f.StringVar(&opts.dbPath, "db", "", "Record the run in this SQLite results database")
	f.StringVar(&opts.configPath, "config", "", "YAML profile with defaults for these flags")
	f.IntVarP(&opts.workers, "workers", "w", 0, "Workers building lookup tables (0 = one per CPU)")
	f.BoolVar(&opts.metrics, "metrics", false, "Print cascade counters after the search")
	f.StringVar(&opts.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error, off)")
	f.StringVar(&opts.logFormat, "log-format", "console", "Log format (console, json)")
	f.StringVar(&opts.primality, "primality", "auto", "Primality test for candidates (auto, trial, witness)")

	return cmd
}

// parseArgs reads "start end minbase maxbase"
func parseArgs(args []string) (search.Request, error) {
	var req search.Request
	names := [...]string{"start", "end", "minbase", "maxbase"}
	values := make([]uint64, len(args))

	for i, a := range args {
		bits := 64
		if i >= 2 {
			bits = 32
		}
		v, err := strconv.ParseUint(a, 10, bits)
		if err != nil {
			return req, perr.WithField(perr.InvalidArgf("%s %q is not a valid number", names[i], a), names[i])
		}
		values[i] = v
	}

	req.Start, req.End = values[0], values[1]
	req.MinRadix, req.MaxRadix = uint32(values[2]), uint32(values[3])
	return req, nil
}

// applyProfile fills flags the user did not set from the --config profile
func applyProfile(opts *options, changed func(name string) bool) error {
	if opts.configPath == "" {
		return nil
	}
	p, err := config.LoadProfile(opts.configPath)
	if err != nil {
		return err
	}

	unset := func(name string) bool { return !changed(name) }
	if unset("output") && p.Output != "" {
		opts.output = p.Output
	}
	if unset("db") && p.DBPath != "" {
		opts.dbPath = p.DBPath
	}
	if unset("workers") && p.Workers != 0 {
		opts.workers = p.Workers
	}
	if unset("metrics") && p.Metrics {
		opts.metrics = true
	}
	if unset("log-level") && p.LogLevel != "" {
		opts.logLevel = p.LogLevel
	}
	if unset("log-format") && p.LogFormat != "" {
		opts.logFormat = p.LogFormat
	}
	if unset("primality") && p.Primality != "" {
		opts.primality = p.Primality
	}
	return nil
}

func run(ctx context.Context, stdout, stderr io.Writer, req search.Request, opts options) error {
	if err := req.Validate(); err != nil {
		return err
	}
	strategy, err := primality.ParseStrategy(opts.primality)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:     opts.logLevel,
		Format:    opts.logFormat,
		Component: "dsearch",
		Writer:    stderr,
	})
	pr := report.NewPrinter("")

	// Track start time for elapsed time reporting
	programStart := time.Now()
	progress := func(msg string) {
		fmt.Fprintf(stdout, "[%s] %s\n", formatElapsed(time.Since(programStart)), msg)
	}

	progress("Building lookup tables...")
	oracle, err := digitsum.Build(ctx, req.MaxRadix, opts.workers)
	if err != nil {
		return fmt.Errorf("failed to build lookup tables: %w", err)
	}
	fmt.Fprintln(stdout, pr.Primes(oracle.Primes().Len()-1))
	fmt.Fprintln(stdout, pr.Tables(oracle.Tables().GroupDigits(), req.MaxRadix, oracle.Tables().Bytes()))
	fmt.Fprintln(stdout, pr.Header(req))

	searcher := search.New(oracle,
		search.WithLogger(&log),
		search.WithProgress(func(msg string) { log.Debug().Msg(msg) }),
		search.WithStrategy(strategy))

	out, err := searcher.Run(ctx, req, func(r search.Result) {
		fmt.Fprintln(stdout, pr.Result(r))
	})
	if err != nil {
		return err
	}

	if out.Exhausted {
		fmt.Fprintln(stdout, pr.NoMatch(out.LastMatch))
	}
	fmt.Fprintln(stdout, pr.Elapsed(out.Elapsed))
	if opts.metrics {
		fmt.Fprint(stdout, pr.Stats(out.Stats))
	}

	if opts.output != "" {
		progress("Writing results file...")
		if err := report.WriteTextFile(out.Results, opts.output); err != nil {
			return err
		}
	}

	if opts.dbPath != "" {
		progress("Recording run...")
		runID, err := record(opts.dbPath, req, out)
		if err != nil {
			return err
		}
		log.Info().Str("run", runID).Str("db", opts.dbPath).Msg("run recorded")
	}

	return nil
}

func record(dbPath string, req search.Request, out search.Outcome) (string, error) {
	db, err := store.InitDB(dbPath)
	if err != nil {
		return "", err
	}
	defer db.Close()

	if err := store.EnsureSchema(db); err != nil {
		return "", err
	}
	return store.RecordRun(db, req, out)
}

// formatElapsed formats a duration into a human-readable elapsed time string
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes > 0 {
		return fmt.Sprintf("%dm%02ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
