package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gocloud.dev/blob"

	"github.com/ligustah/taxwgs/internal/ledger"
	"github.com/ligustah/taxwgs/internal/normalize"
	"github.com/ligustah/taxwgs/internal/retry"
)

// ArchiveSuffix marks remote files that are retrieval candidates.
const ArchiveSuffix = ".fsa_nt.gz"

// Terminal conditions detected during startup reconciliation and cleanup.
var (
	// ErrAmbiguousState: the ledger is present but neither resume, force
	// nor download-only was requested, so the run's intent is unclear.
	ErrAmbiguousState = errors.New("pipeline: ledger exists but no resume, force or download-only mode set")

	// ErrStateConflict: the ledger and the output file disagree about
	// prior work.
	ErrStateConflict = errors.New("pipeline: ledger/output state conflict")

	// ErrLedgerCleanup: the run succeeded but the ledger could not be
	// removed. The output is already complete and authoritative.
	ErrLedgerCleanup = errors.New("pipeline: failed to remove ledger after completion")
)

// ProjectLister returns the project ids published for a selector pair.
type ProjectLister interface {
	Projects(ctx context.Context, include, exclude string) ([]string, error)
}

// Session is one open transfer connection scoped to a project.
type Session interface {
	Retrieve(ctx context.Context, name string, dst io.Writer) (int64, error)
	Close() error
}

// Dialer opens a Session for a project and returns its remote listing.
type Dialer interface {
	Dial(ctx context.Context, project string) (Session, []string, error)
}

// Options configures a run.
type Options struct {
	// Include and Exclude are the taxid selector pair.
	Include string
	Exclude string

	// DownloadOnly retrieves archives without normalizing them.
	DownloadOnly bool

	// Force discards ledger and output from prior runs and starts fresh.
	// Already-downloaded archives are re-fetched.
	Force bool

	// Resume trusts local archives instead of re-listing each project.
	Resume bool

	// Reverse processes projects in descending order.
	Reverse bool

	// OutputPath is the merged FASTA file.
	OutputPath string

	// LedgerPath is the durable record of completed projects.
	LedgerPath string

	// Schedule is the retry delay schedule.
	// Default: retry.DefaultSchedule()
	Schedule retry.Schedule

	// Observer receives progress events.
	// Default: NopObserver
	Observer Observer
}

// Orchestrator drives the sequential per-project, per-file loop. It owns
// the ledger and output handles for the run's lifetime.
type Orchestrator struct {
	opts   Options
	lister ProjectLister
	dialer Dialer
	store  *blob.Bucket
	ledger *ledger.Ledger
	obs    Observer
}

// New creates an orchestrator. store holds retrieved archives and is also
// consulted for skip decisions.
func New(lister ProjectLister, dialer Dialer, store *blob.Bucket, opts Options) *Orchestrator {
	if opts.Schedule == nil {
		opts.Schedule = retry.DefaultSchedule()
	}
	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}
	return &Orchestrator{
		opts:   opts,
		lister: lister,
		dialer: dialer,
		store:  store,
		ledger: ledger.New(opts.LedgerPath),
		obs:    obs,
	}
}

// Run executes the pipeline until completion, a fatal fault, or
// cancellation. On any non-nil return the ledger and output remain
// consistent up to the last fully completed project.
func (o *Orchestrator) Run(ctx context.Context) error {
	parsed, err := o.reconcile()
	if err != nil {
		return err
	}

	previous, err := o.localArchives(ctx)
	if err != nil {
		return err
	}

	if o.opts.Resume || (o.opts.DownloadOnly && !o.opts.Force) {
		o.obs.Resuming(len(previous), len(parsed))
	}

	var raw []string
	err = retry.Do(ctx, o.opts.Schedule, o.notifyRetry, func() error {
		var derr error
		raw, derr = o.lister.Projects(ctx, o.opts.Include, o.opts.Exclude)
		return derr
	})
	if err != nil {
		return err
	}

	pending := make([]string, 0, len(raw))
	for _, p := range raw {
		if !parsed[p] {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		o.obs.NothingToDo()
		return nil
	}
	sort.Strings(pending)
	if o.opts.Reverse {
		for i, j := 0, len(pending)-1; i < j; i, j = i+1, j-1 {
			pending[i], pending[j] = pending[j], pending[i]
		}
	}
	o.obs.Discovered(len(pending))

	var out *os.File
	var wgs io.Writer = io.Discard
	if !o.opts.DownloadOnly {
		out, err = os.OpenFile(o.opts.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("pipeline: open output %s: %w", o.opts.OutputPath, err)
		}
		defer out.Close()
		wgs = out
	}
	if err := o.ledger.Open(); err != nil {
		return err
	}
	defer o.ledger.Close()

	processed := len(parsed)
	for _, project := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		phase, err := o.processProject(ctx, project, processed+1, len(pending), previous, wgs)
		if err != nil {
			return err
		}

		// The output must be durable before the ledger entry is: a ledger
		// entry without its records would break resume.
		if out != nil {
			if err := out.Sync(); err != nil {
				return fmt.Errorf("pipeline: sync output: %w", err)
			}
		}
		if err := o.ledger.Record(project); err != nil {
			return err
		}

		processed++
		o.obs.CollectionCompleted(project, processed, len(raw), phase)
	}

	o.obs.RunCompleted(o.opts.DownloadOnly)

	if !o.opts.DownloadOnly {
		if err := o.ledger.Remove(); err != nil {
			o.obs.Warning(fmt.Sprintf("failed to remove ledger %s: %v", o.ledger.Path(), err))
			return ErrLedgerCleanup
		}
	}
	return nil
}

// reconcile inspects the ledger and output files against the run mode and
// returns the set of already-completed projects. It runs before any
// network activity so configuration conflicts fail fast.
func (o *Orchestrator) reconcile() (map[string]bool, error) {
	outExists := fileExists(o.opts.OutputPath)

	switch {
	case o.ledger.Exists():
		if o.opts.Force {
			if err := o.ledger.Clear(); err != nil {
				return nil, err
			}
			if outExists {
				if err := os.Remove(o.opts.OutputPath); err != nil {
					return nil, fmt.Errorf("pipeline: remove stale output %s: %w", o.opts.OutputPath, err)
				}
			}
			return map[string]bool{}, nil
		}
		if o.opts.DownloadOnly {
			// The ledger alone is authoritative for download progress.
			return o.ledger.Load()
		}
		if o.opts.Resume {
			parsed, err := o.ledger.Load()
			if err != nil {
				return nil, err
			}
			if len(parsed) > 0 && !outExists {
				return nil, fmt.Errorf("%w: ledger %s exists but output %s is missing; correct this or run with force",
					ErrStateConflict, o.ledger.Path(), o.opts.OutputPath)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("%w: found ledger %s; run with resume, force or download-only",
			ErrAmbiguousState, o.ledger.Path())

	case outExists:
		if o.opts.Force {
			if err := os.Remove(o.opts.OutputPath); err != nil {
				return nil, fmt.Errorf("pipeline: remove stale output %s: %w", o.opts.OutputPath, err)
			}
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("%w: output %s exists but ledger %s is missing; correct this or run with force",
			ErrStateConflict, o.opts.OutputPath, o.ledger.Path())

	default:
		return map[string]bool{}, nil
	}
}

// localArchives returns the archive names already present in the store.
func (o *Orchestrator) localArchives(ctx context.Context) (map[string]bool, error) {
	previous := make(map[string]bool)
	iter := o.store.List(&blob.ListOptions{})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("pipeline: list archive store: %w", err)
		}
		if strings.HasSuffix(obj.Key, ArchiveSuffix) {
			previous[obj.Key] = true
		}
	}
	return previous, nil
}

// processProject retrieves and normalizes one project's files. In resume
// mode, archives already in the store stand in for the remote listing and
// no connection is made.
func (o *Orchestrator) processProject(ctx context.Context, project string, index, total int, previous map[string]bool, wgs io.Writer) (Phase, error) {
	var (
		sess  Session
		files []string
	)
	skipped := true

	if o.opts.Resume {
		for name := range previous {
			if strings.HasPrefix(name, project) {
				files = append(files, name)
			}
		}
		sort.Strings(files)
	}

	if len(files) > 0 {
		o.obs.CollectionSkipped(project)
	} else {
		o.obs.CollectionStarted(project, index, total)
		err := retry.Do(ctx, o.opts.Schedule, o.notifyRetry, func() error {
			s, names, err := o.dialer.Dial(ctx, project)
			if err != nil {
				return err
			}
			sess = s
			files = files[:0]
			for _, n := range names {
				if strings.HasSuffix(n, ArchiveSuffix) {
					files = append(files, n)
				}
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	defer func() {
		if sess != nil {
			sess.Close() // close failures are non-fatal
		}
	}()

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		exists, err := o.store.Exists(ctx, name)
		if err != nil {
			return 0, fmt.Errorf("pipeline: stat %s: %w", name, err)
		}

		if exists && !o.opts.Force {
			o.obs.FileSkipped(name)
		} else {
			if err := o.retrieveFile(ctx, &sess, project, name); err != nil {
				return 0, err
			}
			skipped = false
		}

		if o.opts.DownloadOnly {
			continue
		}
		if err := o.parseArchive(ctx, project, name, wgs); err != nil {
			return 0, err
		}
	}

	switch {
	case o.opts.DownloadOnly:
		return PhaseFetchOnly, nil
	case skipped:
		return PhaseParseOnly, nil
	default:
		return PhaseFetchAndParse, nil
	}
}

// retrieveFile streams one remote file into the store under the retry
// schedule. A failed or cancelled attempt discards its partial archive
// before the next attempt or the abort, so a later resume cannot mistake
// it for complete.
func (o *Orchestrator) retrieveFile(ctx context.Context, sess *Session, project, name string) error {
	attempt := 0
	var size int64
	err := retry.Do(ctx, o.opts.Schedule, o.notifyRetry, func() error {
		attempt++

		// Re-dial on retries; the fault that got us here likely broke the
		// session. A resume-mode project may not have a session at all yet.
		if *sess == nil || attempt > 1 {
			if *sess != nil {
				(*sess).Close()
				*sess = nil
			}
			s, _, err := o.dialer.Dial(ctx, project)
			if err != nil {
				return err
			}
			*sess = s
		}

		w, err := o.store.NewWriter(ctx, name, nil)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}

		n, err := (*sess).Retrieve(ctx, name, w)
		if err != nil {
			w.Close()
			o.discard(name)
			return err
		}
		if err := w.Close(); err != nil {
			o.discard(name)
			return fmt.Errorf("store %s: %w", name, err)
		}
		size = n
		return nil
	})
	if err != nil {
		return err
	}
	o.obs.FileRetrieved(name, size)
	return nil
}

// discard removes a partially written archive. The run context may already
// be cancelled, so the delete gets its own deadline.
func (o *Orchestrator) discard(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	o.store.Delete(ctx, name)
}

// parseArchive decompresses and normalizes one stored archive into the
// output stream.
func (o *Orchestrator) parseArchive(ctx context.Context, project, name string, wgs io.Writer) error {
	r, err := o.store.NewReader(ctx, name, nil)
	if err != nil {
		return fmt.Errorf("pipeline: open archive %s: %w", name, err)
	}
	defer r.Close()
	return normalize.Archive(project, name, r, wgs)
}

func (o *Orchestrator) notifyRetry(delay time.Duration, err error) {
	o.obs.RetryScheduled(delay, err)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
