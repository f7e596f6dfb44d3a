package session

import (
	"errors"

	"github.com/gravitrone/replydesk/internal/api"
)

// ErrEmptyPage is returned when a bulk run is started with no comments loaded.
var ErrEmptyPage = errors.New("bulk: no comments on the current page")

// Progress counts completed items of a bulk run.
type Progress struct {
	Done  int
	Total int
}

// BulkRunner walks a snapshot of the page one comment at a time. It holds the
// queue and progress; issuing the requests is the Desk's job.
type BulkRunner struct {
	running  bool
	run      int
	queue    []api.Comment
	progress Progress
}

// Start begins a run over items. It reports false without changes while a run
// is active, and returns ErrEmptyPage without changes when items is empty.
func (b *BulkRunner) Start(items []api.Comment) (bool, error) {
	if b.running {
		return false, nil
	}
	if len(items) == 0 {
		return false, ErrEmptyPage
	}
	b.queue = append([]api.Comment(nil), items...)
	b.run++
	b.running = true
	b.progress = Progress{Done: 0, Total: len(items)}
	return true, nil
}

// Next pops the next queued comment.
func (b *BulkRunner) Next() (api.Comment, bool) {
	if !b.running || len(b.queue) == 0 {
		return api.Comment{}, false
	}
	next := b.queue[0]
	b.queue = b.queue[1:]
	return next, true
}

// Complete records one finished item for run. Completions from another run
// are ignored. The runner returns to idle when the last item completes.
func (b *BulkRunner) Complete(run int) bool {
	if !b.running || run != b.run {
		return false
	}
	b.progress.Done++
	if b.progress.Done >= b.progress.Total {
		b.running = false
		b.queue = nil
	}
	return true
}

func (b *BulkRunner) Running() bool      { return b.running }
func (b *BulkRunner) Progress() Progress { return b.progress }
func (b *BulkRunner) Run() int           { return b.run }
