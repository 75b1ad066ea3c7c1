package pipeline

import "time"

// Phase describes what work a completed collection actually needed.
type Phase int

const (
	// PhaseFetchAndParse means files were retrieved and normalized.
	PhaseFetchAndParse Phase = iota

	// PhaseParseOnly means every file was already local and only
	// normalization ran.
	PhaseParseOnly

	// PhaseFetchOnly means download-only mode, no normalization.
	PhaseFetchOnly
)

// Observer receives structured progress events from the orchestrator. The
// core never prints; a presentation layer renders these however it likes.
// Methods are called from the orchestrator's single thread of control, so
// implementations need no locking.
type Observer interface {
	// Resuming reports prior local state before discovery: archives
	// already in the store and projects already recorded in the ledger.
	Resuming(archives, parsed int)

	// Discovered reports how many projects remain to process.
	Discovered(pending int)

	// NothingToDo reports that every discovered project is already done.
	NothingToDo()

	CollectionStarted(id string, index, total int)
	CollectionSkipped(id string)
	FileSkipped(name string)
	FileRetrieved(name string, size int64)

	// RetryScheduled reports a transient fault and the wait before the
	// next attempt.
	RetryScheduled(delay time.Duration, err error)

	// CollectionCompleted reports one finished collection. processed
	// counts completions including prior-run ones and discovered is the
	// raw discovery count, so processed/discovered preserves the
	// historical progress ratio.
	CollectionCompleted(id string, processed, discovered int, phase Phase)

	RunCompleted(downloadOnly bool)
	Warning(msg string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Resuming(int, int)                           {}
func (NopObserver) Discovered(int)                              {}
func (NopObserver) NothingToDo()                                {}
func (NopObserver) CollectionStarted(string, int, int)          {}
func (NopObserver) CollectionSkipped(string)                    {}
func (NopObserver) FileSkipped(string)                          {}
func (NopObserver) FileRetrieved(string, int64)                 {}
func (NopObserver) RetryScheduled(time.Duration, error)         {}
func (NopObserver) CollectionCompleted(string, int, int, Phase) {}
func (NopObserver) RunCompleted(bool)                           {}
func (NopObserver) Warning(string)                              {}
