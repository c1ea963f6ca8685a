// Command hq runs a query against HTML from files, a directory tree, a URL
// or standard input.
//
// Usage:
//
//	hq [flags] QUERY [FILE...]
//	hq [flags] -queries FILE.toml [FILE...]
//	hq -root ./site -glob '**/*.html' 'tag title > text'
//	curl -s https://example.com | hq 'tag a > href'
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hquery"
	"github.com/GriffinCanCode/hquery/internal/batch"
	"github.com/GriffinCanCode/hquery/internal/fetch"
	"github.com/GriffinCanCode/hquery/internal/infrastructure/config"
	"github.com/GriffinCanCode/hquery/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hquery/internal/output"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

const (
	stdinSource  = "-"
	usageMessage = "usage: hq [flags] QUERY [FILE...]\n       hq [flags] -queries FILE [FILE...]\n"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	url       string
	root      string
	glob      string
	queryFile string
	format    string
	sanitize  bool
	maxDepth  int
	maxSize   int64
	workers   int
	verbose   bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg := config.LoadOrDefault()

	var f flags
	fs := flag.NewFlagSet("hq", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageMessage)
		fs.PrintDefaults()
	}
	fs.StringVar(&f.url, "url", "", "fetch the document from `URL`")
	fs.StringVar(&f.root, "root", "", "query every HTML file below `DIR`")
	fs.StringVar(&f.glob, "glob", batch.DefaultGlob, "with -root, only paths matching `PATTERN`")
	fs.StringVar(&f.queryFile, "queries", "", "run the named queries in a TOML or YAML `FILE`")
	fs.StringVar(&f.format, "o", string(output.Text), "output format: text, json, yaml or toml")
	fs.BoolVar(&f.sanitize, "sanitize", cfg.Query.Sanitize, "strip scripts and unsafe markup before parsing")
	fs.IntVar(&f.maxDepth, "max-depth", cfg.Query.MaxDepth, "maximum parenthesis nesting")
	fs.Int64Var(&f.maxSize, "max-size", cfg.Query.MaxHTMLSize, "maximum document size in bytes")
	fs.IntVar(&f.workers, "workers", 0, "parallel documents (default: number of CPUs)")
	fs.BoolVar(&f.verbose, "v", false, "debug logging to stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	format, err := output.ParseFormat(f.format)
	if err != nil {
		fmt.Fprintf(stderr, "hq: %v\n", err)
		return exitUsage
	}

	rest := fs.Args()
	var queries batch.Queries
	if f.queryFile != "" {
		if queries, err = batch.LoadQueries(f.queryFile); err != nil {
			fmt.Fprintf(stderr, "hq: %v\n", err)
			return exitUsage
		}
	} else {
		if len(rest) == 0 {
			fs.Usage()
			return exitUsage
		}
		queries, rest = batch.Single(rest[0]), rest[1:]
		if _, err := hquery.Compile(queries[0].Text, hquery.WithMaxDepth(f.maxDepth)); err != nil {
			fmt.Fprintf(stderr, "hq: %v\n", err)
			return exitUsage
		}
	}

	sources := 0
	for _, set := range []bool{f.url != "", f.root != "", len(rest) > 0} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		fmt.Fprintln(stderr, "hq: -url, -root and FILE arguments are mutually exclusive")
		return exitUsage
	}

	level := "warn"
	if f.verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{Level: level, Development: true})
	if err != nil {
		fmt.Fprintf(stderr, "hq: %v\n", err)
		return exitFailed
	}
	defer logger.Sync()

	opts := []hquery.Option{
		hquery.WithMaxDepth(f.maxDepth),
		hquery.WithMaxSize(f.maxSize),
	}
	if f.sanitize {
		opts = append(opts, hquery.WithSanitize())
	}
	if len(queries) == 1 {
		opts = append(opts, hquery.WithLogger(logger.ForQuery(queries[0].Text)))
	} else {
		opts = append(opts, hquery.WithLogger(logger.Logger))
	}

	var records []output.Record
	switch {
	case f.url != "":
		fc := fetch.DefaultConfig()
		fc.Timeout = cfg.Fetch.Timeout
		fc.Retries = cfg.Fetch.Retries
		fc.RequestsPerSecond = cfg.Fetch.RequestsPerSecond
		fc.UserAgent = cfg.Fetch.UserAgent
		fc.MaxSize = f.maxSize
		client := fetch.New(fc, logger.ForSource(f.url))
		records = []output.Record{queryURL(ctx, client, f.url, queries, opts)}

	case f.root != "":
		paths, err := batch.Discover(ctx, f.root, f.glob)
		if err != nil {
			fmt.Fprintf(stderr, "hq: %v\n", err)
			return exitFailed
		}
		logger.Debug("discovered documents", zap.String("root", f.root), zap.Int("count", len(paths)))
		runner := &batch.Runner{Workers: f.workers, Options: opts, Log: logger.Logger}
		records = runner.Run(ctx, paths, queries)

	case len(rest) > 0:
		runner := &batch.Runner{Workers: f.workers, Options: opts, Log: logger.Logger}
		records = runner.Run(ctx, rest, queries)

	default:
		records = []output.Record{queryReader(stdin, stdinSource, queries, opts)}
	}

	if err := output.Write(stdout, format, records); err != nil {
		fmt.Fprintf(stderr, "hq: %v\n", err)
		return exitFailed
	}
	if failed(records) {
		return exitFailed
	}
	return exitOK
}

func queryURL(ctx context.Context, client *fetch.Client, url string, queries batch.Queries, opts []hquery.Option) output.Record {
	body, err := client.Get(ctx, url)
	if err != nil {
		return output.Record{Source: url, Error: err.Error()}
	}
	return queryReader(bytes.NewReader(body), url, queries, opts)
}

func queryReader(r io.Reader, source string, queries batch.Queries, opts []hquery.Option) output.Record {
	q, err := hquery.NewFromReader(r, opts...)
	if err != nil {
		return output.Record{Source: source, Error: err.Error()}
	}
	return output.Record{Source: source, Queries: batch.Apply(q, queries)}
}

// failed reports whether any document or query produced an error
func failed(records []output.Record) bool {
	for _, r := range records {
		if r.Error != "" {
			return true
		}
		for _, e := range r.Queries {
			if e.Error != "" {
				return true
			}
		}
	}
	return false
}
