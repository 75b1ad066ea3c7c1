// Command taxwgs collects the WGS projects published for a taxid, subtree
// included, into one normalized FASTA file suitable for building a BLAST
// database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/ligustah/taxwgs/internal/config"
	"github.com/ligustah/taxwgs/internal/console"
	"github.com/ligustah/taxwgs/internal/discovery"
	"github.com/ligustah/taxwgs/internal/ftp"
	"github.com/ligustah/taxwgs/internal/normalize"
	"github.com/ligustah/taxwgs/internal/pipeline"
	"github.com/ligustah/taxwgs/internal/retry"
)

const (
	appName = "taxwgs"
	version = "2.0.0"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitGeneralError   = 1
	ExitAmbiguousState = 2
	ExitStateConflict  = 3
	ExitCorruptArchive = 4
	ExitRetryExhausted = 5
	ExitLedgerCleanup  = 6
	ExitInterrupted    = 9
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { printUsage(fs) }

	cfg := config.Default()

	// Flag defaults come from file and environment, so the precedence is
	// flags over env over file over built-in defaults.
	configPath := preScanConfig(args)
	if configPath != "" {
		fileCfg, err := config.LoadFromFile(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return ExitGeneralError
		}
		cfg = fileCfg
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitGeneralError
	}

	var showVersion bool
	fs.StringVar(&configPath, "config", configPath, "path to a YAML configuration file")
	fs.BoolVar(&showVersion, "V", false, "print version and exit")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.StringVar(&cfg.Include, "t", cfg.Include, "taxid to include, subtree included")
	fs.StringVar(&cfg.Include, "taxid", cfg.Include, "taxid to include, subtree included")
	fs.StringVar(&cfg.Exclude, "x", cfg.Exclude, "taxid to exclude, subtree included")
	fs.StringVar(&cfg.Exclude, "exclude", cfg.Exclude, "taxid to exclude, subtree included")
	fs.BoolVar(&cfg.DownloadOnly, "d", cfg.DownloadOnly, "download archives only, skip the FASTA output")
	fs.BoolVar(&cfg.DownloadOnly, "download", cfg.DownloadOnly, "download archives only, skip the FASTA output")
	fs.BoolVar(&cfg.Force, "f", cfg.Force, "force a restart from scratch")
	fs.BoolVar(&cfg.Force, "force", cfg.Force, "force a restart from scratch")
	fs.BoolVar(&cfg.Resume, "r", cfg.Resume, "resume an interrupted run")
	fs.BoolVar(&cfg.Resume, "resume", cfg.Resume, "resume an interrupted run")
	fs.BoolVar(&cfg.Reverse, "e", cfg.Reverse, "process projects in reverse order")
	fs.BoolVar(&cfg.Reverse, "reverse", cfg.Reverse, "process projects in reverse order")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "print a line per project instead of a progress bar")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "print a line per project instead of a progress bar")
	fs.StringVar(&cfg.StoreURL, "store", cfg.StoreURL, "archive store URL (default: working directory)")

	if err := fs.Parse(args); err != nil {
		return ExitGeneralError
	}
	if showVersion {
		fmt.Printf("%s v%s\n", appName, version)
		return ExitSuccess
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitGeneralError
	}

	rep := console.NewReporter(os.Stdout, cfg.Include, cfg.Exclude, cfg.Verbose)
	rep.Banner(appName, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.StoreURL)
	if err != nil {
		rep.Fatal(err)
		return ExitGeneralError
	}
	defer store.Close()

	lister := discovery.NewClient(discovery.Options{Timeout: cfg.Timeout})
	dialer := ftpDialer{opts: ftp.Options{
		Host:              cfg.Host,
		DialTimeout:       cfg.Timeout,
		KeepaliveInterval: cfg.Keepalive,
	}}

	orch := pipeline.New(lister, dialer, store, pipeline.Options{
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
		DownloadOnly: cfg.DownloadOnly,
		Force:        cfg.Force,
		Resume:       cfg.Resume,
		Reverse:      cfg.Reverse,
		OutputPath:   cfg.OutputPath(),
		LedgerPath:   cfg.LedgerPath(),
		Observer:     rep,
	})

	if err := orch.Run(ctx); err != nil {
		return report(rep, err)
	}
	return ExitSuccess
}

// report classifies a run error, prints it and maps it to an exit code.
func report(rep *console.Reporter, err error) int {
	var (
		corrupt   *normalize.CorruptError
		exhausted *retry.ExhaustedError
	)
	switch {
	case errors.Is(err, context.Canceled):
		rep.Interrupted()
		rep.ResumeNote()
		return ExitInterrupted
	case errors.Is(err, pipeline.ErrAmbiguousState):
		rep.Fatal(err)
		return ExitAmbiguousState
	case errors.Is(err, pipeline.ErrStateConflict):
		rep.Fatal(err)
		return ExitStateConflict
	case errors.Is(err, pipeline.ErrLedgerCleanup):
		// The output is complete; only the leftover ledger needs attention.
		return ExitLedgerCleanup
	case errors.As(err, &corrupt):
		rep.Fatal(err)
		rep.ResumeNote()
		return ExitCorruptArchive
	case errors.As(err, &exhausted):
		rep.Fatal(err)
		rep.ResumeNote()
		return ExitRetryExhausted
	default:
		rep.Fatal(err)
		rep.ResumeNote()
		return ExitGeneralError
	}
}

// openStore opens the archive store: the working directory by default, or
// any bucket URL gocloud understands.
func openStore(ctx context.Context, url string) (*blob.Bucket, error) {
	if url == "" {
		return fileblob.OpenBucket(".", nil)
	}
	return blob.OpenBucket(ctx, url)
}

// preScanConfig extracts the -config flag ahead of the real parse, so the
// file can seed the defaults of the remaining flags.
func preScanConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-config" || a == "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(a, "-config="):
			return strings.TrimPrefix(a, "-config=")
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		}
	}
	return ""
}

// ftpDialer adapts the FTP session package to the pipeline's Dialer.
type ftpDialer struct {
	opts ftp.Options
}

func (d ftpDialer) Dial(ctx context.Context, project string) (pipeline.Session, []string, error) {
	sess, names, err := ftp.Dial(ctx, project, d.opts)
	if err != nil {
		return nil, nil, err
	}
	return sess, names, nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Usage: %s [options]

Collect the WGS projects for a taxid into one normalized FASTA file.

Options:
`, appName)
	fs.PrintDefaults()
}
