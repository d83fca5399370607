package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/simp-lee/novelpub/internal/config"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// buildFlags holds all flags for the default (build) command.
type buildFlags struct {
	common      commonFlags
	output      string
	cacheDir    string
	noCache     bool
	noCover     bool
	language    string
	concurrency int
	retries     int
	timeout     string
	userAgent   string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "YAML config file")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logging")
}

func parseBuildFlags(args []string, stderr io.Writer) (*buildFlags, []string, *flag.FlagSet, error) {
	fs := flag.NewFlagSet("novelpub", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &buildFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output directory for the ePub")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "book cache directory")
	fs.BoolVar(&f.noCache, "no-cache", false, "refetch even if the book is cached")
	fs.BoolVar(&f.noCover, "no-cover", false, "skip downloading the cover image")
	fs.StringVarP(&f.language, "lang", "l", "", "book language (BCP 47)")
	fs.IntVarP(&f.concurrency, "concurrency", "j", 0, "chapter pages fetched at once")
	fs.IntVar(&f.retries, "retries", 0, "retries for transient HTTP failures")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-request timeout (e.g., 30s, 1m)")
	fs.StringVar(&f.userAgent, "user-agent", "", "HTTP User-Agent header")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, err
	}
	return f, fs.Args(), fs, nil
}

// applyTo overrides cfg with the flags that were set explicitly.
func (f *buildFlags) applyTo(cfg *config.Config, fs *flag.FlagSet) {
	if fs.Changed("output") {
		cfg.OutputDir = f.output
	}
	if fs.Changed("cache-dir") {
		cfg.CacheDir = f.cacheDir
	}
	if fs.Changed("no-cache") {
		cfg.NoCache = f.noCache
	}
	if fs.Changed("lang") {
		cfg.Language = f.language
	}
	if fs.Changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if fs.Changed("retries") {
		cfg.MaxRetries = f.retries
	}
	if fs.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if fs.Changed("user-agent") {
		cfg.UserAgent = f.userAgent
	}
}

func parseInspectFlags(args []string, stderr io.Writer) (*commonFlags, []string, error) {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &commonFlags{}
	addCommonFlags(fs, f)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: novelpub inspect [flags] <file.epub>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  novelpub [flags] <fiction-url>   build an ePub from a web fiction")
	fmt.Fprintln(w, "  novelpub inspect <file.epub>     report on an ePub")
	fmt.Fprintln(w, "  novelpub version                 print the version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables NOVELPUB_CACHE_DIR, NOVELPUB_OUTPUT_DIR, NOVELPUB_LANGUAGE,")
	fmt.Fprintln(w, "NOVELPUB_USER_AGENT, NOVELPUB_MAX_REDIRECTS, NOVELPUB_MAX_RETRIES,")
	fmt.Fprintln(w, "NOVELPUB_CONCURRENCY, NOVELPUB_TIMEOUT and NOVELPUB_NO_CACHE override the config file.")
}
