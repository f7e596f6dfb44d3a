// Package session holds the operator's working state: the selected knowledge
// base and note, the derived fetches that depend on them, the comment pager,
// per-comment reply suggestions and the bulk runner.
//
// A Desk is owned by one goroutine. Mutating operations never block; they
// return Effects that perform the gateway calls. Running an Effect yields an
// Outcome, which the owner hands back to Apply. Effects may run anywhere and
// resolve in any order.
package session

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gravitrone/replydesk/internal/api"
)

const (
	// AnalysisSamples bounds how many comments the analysis aggregates.
	AnalysisSamples = 500
	// SuggestionTopK is the knowledge snippet count sent with suggestions.
	SuggestionTopK = 5
)

// Gateway is the part of the API client the desk drives.
type Gateway interface {
	ListKnowledgeBases() ([]api.KnowledgeBase, error)
	ListNotes(q string) (*api.NoteList, error)
	ListComments(noteID string, query api.CommentQuery) (*api.CommentPage, error)
	AnalyzeNote(noteID string, maxSamples int) (*api.NoteAnalysis, error)
	SuggestReply(input api.SuggestReplyInput) (*api.ReplySuggestion, error)
}

// Effect performs one gateway call. It must not touch the Desk.
type Effect func() Outcome

// Outcome is the result of an Effect, applied on the owning goroutine.
type Outcome interface {
	apply(d *Desk) []Effect
}

// PageKey is the input tuple of the comment page fetch.
type PageKey struct {
	NoteID string
	Offset int
	Limit  int
	Sort   string
	Filter string
}

// IntentCount is one row of the analysis intent breakdown.
type IntentCount struct {
	Intent string
	Count  int
}

// SortIntents orders intent counts largest first, ties by name.
func SortIntents(counts map[string]int) []IntentCount {
	out := make([]IntentCount, 0, len(counts))
	for intent, n := range counts {
		out = append(out, IntentCount{Intent: intent, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Intent < out[j].Intent
	})
	return out
}

// Option configures a Desk.
type Option func(*Desk)

// WithLogger logs dropped responses and bulk progress.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Desk) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithPageSize sets the initial comment page size.
func WithPageSize(limit int) Option {
	return func(d *Desk) {
		d.pager = NewPager(limit)
	}
}

// WithPreferredKnowledgeBase auto-selects id after the first list load when it
// is present, instead of the first entry.
func WithPreferredKnowledgeBase(id string) Option {
	return func(d *Desk) {
		d.preferred = id
	}
}

// WithBulkInterval spaces bulk suggestion requests at least interval apart.
func WithBulkInterval(interval time.Duration) Option {
	return func(d *Desk) {
		if interval > 0 {
			d.pace = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// Desk is the orchestration state container.
type Desk struct {
	gw     Gateway
	logger *zap.Logger

	sel       Selection
	preferred string

	kbLoads  int
	kbs      Slot[int, []api.KnowledgeBase]
	kbLoaded bool
	connErr  error

	notes Slot[string, api.NoteList]

	analysis Slot[string, api.NoteAnalysis]
	comments Slot[PageKey, api.CommentPage]
	pager    Pager

	jobs *JobMap[api.ReplySuggestion]
	bulk BulkRunner
	pace *rate.Limiter
}

// NewDesk creates an empty desk driving gw.
func NewDesk(gw Gateway, opts ...Option) *Desk {
	d := &Desk{
		gw:     gw,
		logger: zap.NewNop(),
		pager:  NewPager(DefaultPageSize),
		jobs:   NewJobMap[api.ReplySuggestion](),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start returns the effects of application start: the knowledge base list and
// the unfiltered note list.
func (d *Desk) Start() []Effect {
	return append(d.LoadKnowledgeBases(), d.LoadNotes("")...)
}

// Apply folds an outcome into the desk and returns any follow-up effects.
func (d *Desk) Apply(o Outcome) []Effect {
	if o == nil {
		return nil
	}
	return o.apply(d)
}

// Settle runs effects to completion on the calling goroutine, applying each
// outcome before running the next effect. observe is called after every
// applied outcome.
func (d *Desk) Settle(effects []Effect, observe func()) {
	queue := append([]Effect(nil), effects...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		queue = append(queue, d.Apply(next())...)
		if observe != nil {
			observe()
		}
	}
}

// --- Knowledge bases ---

// LoadKnowledgeBases (re)fetches the knowledge base list.
func (d *Desk) LoadKnowledgeBases() []Effect {
	d.kbLoads++
	key := d.kbLoads
	d.kbs.Issue(key)
	gw := d.gw
	return []Effect{func() Outcome {
		kbs, err := gw.ListKnowledgeBases()
		return kbsLoaded{key: key, kbs: kbs, err: err}
	}}
}

type kbsLoaded struct {
	key int
	kbs []api.KnowledgeBase
	err error
}

func (o kbsLoaded) apply(d *Desk) []Effect {
	list := o.kbs
	if !d.kbs.Commit(o.key, &list, o.err) {
		d.dropped("knowledge_bases")
		return nil
	}
	if o.err != nil {
		if !d.kbLoaded {
			d.connErr = o.err
		}
		return nil
	}
	d.kbLoaded = true
	d.connErr = nil
	if d.sel.KnowledgeBaseID == "" {
		d.sel.KnowledgeBaseID = pickKnowledgeBase(list, d.preferred)
	}
	return nil
}

// SelectKnowledgeBase changes the knowledge base used for suggestions. No
// derived fetch depends on it.
func (d *Desk) SelectKnowledgeBase(id string) {
	d.sel.KnowledgeBaseID = id
}

// --- Notes ---

// LoadNotes fetches the note list filtered by q, replacing the current one.
func (d *Desk) LoadNotes(q string) []Effect {
	d.notes.Reissue(q)
	gw := d.gw
	return []Effect{func() Outcome {
		list, err := gw.ListNotes(q)
		return notesLoaded{q: q, list: list, err: err}
	}}
}

type notesLoaded struct {
	q    string
	list *api.NoteList
	err  error
}

func (o notesLoaded) apply(d *Desk) []Effect {
	if !d.notes.Commit(o.q, o.list, o.err) {
		d.dropped("notes")
		return nil
	}
	if o.err != nil || o.list == nil {
		return nil
	}
	if d.sel.NoteID == "" && len(o.list.Notes) > 0 {
		return d.SelectNote(o.list.Notes[0].NoteID)
	}
	return nil
}

// SelectNote switches to another note. The suggestion map is cleared, the page
// rewinds to offset 0, and the analysis and comment page are refetched.
func (d *Desk) SelectNote(id string) []Effect {
	if id == d.sel.NoteID {
		return nil
	}
	d.sel.NoteID = id
	d.jobs.Clear()
	d.pager.Rewind()
	return d.sync()
}

// sync issues a request for every derived fetch whose input tuple changed.
func (d *Desk) sync() []Effect {
	noteID := d.sel.NoteID
	if noteID == "" {
		d.analysis.Reset()
		d.comments.Reset()
		d.pager.Total = 0
		return nil
	}

	var effects []Effect
	if d.analysis.Issue(noteID) {
		effects = append(effects, d.fetchAnalysis(noteID))
	}
	key := d.pageKey()
	if d.comments.Issue(key) {
		d.pager.Total = 0
		effects = append(effects, d.fetchComments(key))
	}
	return effects
}

// Retry refetches the analysis and comment page for the current inputs.
func (d *Desk) Retry() []Effect {
	noteID := d.sel.NoteID
	if noteID == "" {
		return nil
	}
	d.analysis.Reissue(noteID)
	key := d.pageKey()
	d.comments.Reissue(key)
	d.pager.Total = 0
	return []Effect{d.fetchAnalysis(noteID), d.fetchComments(key)}
}

func (d *Desk) pageKey() PageKey {
	return PageKey{
		NoteID: d.sel.NoteID,
		Offset: d.pager.Offset,
		Limit:  d.pager.Limit,
		Sort:   d.pager.Sort,
		Filter: d.pager.Filter,
	}
}

func (d *Desk) fetchAnalysis(noteID string) Effect {
	gw := d.gw
	return func() Outcome {
		res, err := gw.AnalyzeNote(noteID, AnalysisSamples)
		return analysisLoaded{noteID: noteID, res: res, err: err}
	}
}

type analysisLoaded struct {
	noteID string
	res    *api.NoteAnalysis
	err    error
}

func (o analysisLoaded) apply(d *Desk) []Effect {
	if !d.analysis.Commit(o.noteID, o.res, o.err) {
		d.dropped("analysis")
	}
	return nil
}

func (d *Desk) fetchComments(key PageKey) Effect {
	gw := d.gw
	query := api.CommentQuery{Offset: key.Offset, Limit: key.Limit, Sort: key.Sort, Q: key.Filter}
	return func() Outcome {
		page, err := gw.ListComments(key.NoteID, query)
		return commentsLoaded{key: key, page: page, err: err}
	}
}

type commentsLoaded struct {
	key  PageKey
	page *api.CommentPage
	err  error
}

func (o commentsLoaded) apply(d *Desk) []Effect {
	if !d.comments.Commit(o.key, o.page, o.err) {
		d.dropped("comments")
		return nil
	}
	if o.err == nil && o.page != nil {
		d.pager.Total = o.page.Total
	}
	return nil
}

// --- Paging ---

func (d *Desk) SetSort(sort string) []Effect {
	if !d.pager.SetSort(sort) {
		return nil
	}
	return d.sync()
}

func (d *Desk) ToggleSort() []Effect {
	d.pager.ToggleSort()
	return d.sync()
}

func (d *Desk) SetFilter(filter string) []Effect {
	d.pager.SetFilter(filter)
	return d.sync()
}

func (d *Desk) SetLimit(limit int) []Effect {
	if !d.pager.SetLimit(limit) {
		return nil
	}
	return d.sync()
}

func (d *Desk) CycleLimit() []Effect {
	d.pager.CycleLimit()
	return d.sync()
}

// NextPage advances one page; nil when already on the last page.
func (d *Desk) NextPage() []Effect {
	if !d.pager.NextPage() {
		return nil
	}
	return d.sync()
}

// PrevPage steps back one page; nil when on the first page.
func (d *Desk) PrevPage() []Effect {
	if !d.pager.PrevPage() {
		return nil
	}
	return d.sync()
}

// --- Suggestions ---

// RequestSuggestion asks for a reply to c. With no knowledge base selected the
// failure is stored at once and no request is sent.
func (d *Desk) RequestSuggestion(c api.Comment) []Effect {
	if eff := d.requestSuggestion(c, 0); eff != nil {
		return []Effect{eff}
	}
	return nil
}

func (d *Desk) requestSuggestion(c api.Comment, run int) Effect {
	key := c.CommentID
	if d.sel.KnowledgeBaseID == "" {
		d.jobs.Fail(key, PreconditionNoKnowledgeBase)
		return nil
	}
	input := d.suggestionInput(c)
	gen := d.jobs.Begin(key)
	gw, pace := d.gw, d.pace
	return func() Outcome {
		if run > 0 && pace != nil {
			// Wait only fails on a cancelled context or a wait beyond the
			// burst; neither applies with Background and burst 1.
			if err := pace.Wait(context.Background()); err != nil {
				return suggestionResolved{gen: gen, key: key, run: run, err: err}
			}
		}
		res, err := gw.SuggestReply(input)
		return suggestionResolved{gen: gen, key: key, run: run, res: res, err: err}
	}
}

func (d *Desk) suggestionInput(c api.Comment) api.SuggestReplyInput {
	note, _ := findNote(d.Notes(), c.NoteID)
	return api.SuggestReplyInput{
		KBID: d.sel.KnowledgeBaseID,
		Comment: api.ReplyComment{
			CommentID: c.CommentID,
			NoteID:    c.NoteID,
			NoteTitle: note.Title,
			NoteDesc:  note.Desc,
			UserID:    c.UserID,
			Nickname:  c.Nickname,
			Content:   c.Content,
		},
		TopK:        SuggestionTopK,
		InjectSales: true,
	}
}

type suggestionResolved struct {
	gen uint64
	key string
	run int
	res *api.ReplySuggestion
	err error
}

func (o suggestionResolved) apply(d *Desk) []Effect {
	if !d.jobs.Resolve(o.gen, o.key, o.res, o.err) {
		d.dropped("suggestion")
	}
	if o.run == 0 {
		return nil
	}
	return d.bulkAdvance(o.run)
}

// bulkItemSkipped completes a bulk item that failed its precondition without
// a request.
type bulkItemSkipped struct {
	run int
}

func (o bulkItemSkipped) apply(d *Desk) []Effect {
	return d.bulkAdvance(o.run)
}

// --- Bulk ---

// StartBulk requests a suggestion for every comment on the current page, one
// at a time. It is a no-op while a run is active and returns ErrEmptyPage when
// the page has no comments.
func (d *Desk) StartBulk() ([]Effect, error) {
	var items []api.Comment
	if page := d.comments.Value(); page != nil {
		items = page.Comments
	}
	started, err := d.bulk.Start(items)
	if err != nil || !started {
		return nil, err
	}
	d.logger.Debug("bulk started", zap.Int("total", len(items)))
	return d.bulkStep(d.bulk.Run()), nil
}

// bulkStep issues the next queued item. An item failing the precondition
// completes through its own outcome so progress is reported once per item.
func (d *Desk) bulkStep(run int) []Effect {
	c, ok := d.bulk.Next()
	if !ok {
		return nil
	}
	if eff := d.requestSuggestion(c, run); eff != nil {
		return []Effect{eff}
	}
	return []Effect{func() Outcome { return bulkItemSkipped{run: run} }}
}

func (d *Desk) bulkAdvance(run int) []Effect {
	if !d.bulk.Complete(run) {
		return nil
	}
	p := d.bulk.Progress()
	d.logger.Debug("bulk progress", zap.Int("done", p.Done), zap.Int("total", p.Total))
	return d.bulkStep(run)
}

func (d *Desk) dropped(fetch string) {
	d.logger.Debug("stale response dropped", zap.String("fetch", fetch))
}

// --- Read accessors ---

func (d *Desk) Selection() Selection { return d.sel }

func (d *Desk) KnowledgeBases() []api.KnowledgeBase {
	if v := d.kbs.Value(); v != nil {
		return *v
	}
	return nil
}

func (d *Desk) KnowledgeBasesErr() error    { return d.kbs.Err() }
func (d *Desk) KnowledgeBasesLoading() bool { return d.kbs.Loading() }

// Disconnected returns the error of the initial knowledge base load while no
// load has succeeded yet.
func (d *Desk) Disconnected() error { return d.connErr }

// SelectedKnowledgeBase looks the selected id up in the loaded list.
func (d *Desk) SelectedKnowledgeBase() (api.KnowledgeBase, bool) {
	return findKnowledgeBase(d.KnowledgeBases(), d.sel.KnowledgeBaseID)
}

func (d *Desk) Notes() []api.Note {
	if v := d.notes.Value(); v != nil {
		return v.Notes
	}
	return nil
}

func (d *Desk) NotesErr() error    { return d.notes.Err() }
func (d *Desk) NotesLoading() bool { return d.notes.Loading() }

// NotesQuery returns the filter of the last note list request.
func (d *Desk) NotesQuery() string {
	q, _ := d.notes.Key()
	return q
}

// SelectedNote looks the selected id up in the loaded note list.
func (d *Desk) SelectedNote() (api.Note, bool) {
	return findNote(d.Notes(), d.sel.NoteID)
}

func (d *Desk) Analysis() *api.NoteAnalysis { return d.analysis.Value() }
func (d *Desk) AnalysisErr() error          { return d.analysis.Err() }
func (d *Desk) AnalysisLoading() bool       { return d.analysis.Loading() }

// IntentCounts returns the analysis intent breakdown, largest first.
func (d *Desk) IntentCounts() []IntentCount {
	a := d.analysis.Value()
	if a == nil {
		return nil
	}
	return SortIntents(a.IntentCounts)
}

func (d *Desk) Page() *api.CommentPage { return d.comments.Value() }

func (d *Desk) Comments() []api.Comment {
	if page := d.comments.Value(); page != nil {
		return page.Comments
	}
	return nil
}

func (d *Desk) CommentsErr() error    { return d.comments.Err() }
func (d *Desk) CommentsLoading() bool { return d.comments.Loading() }
func (d *Desk) Pager() Pager          { return d.pager }

// Suggestion returns the job state for a comment id.
func (d *Desk) Suggestion(commentID string) Job[api.ReplySuggestion] {
	return d.jobs.Get(commentID)
}

// SuggestionCount returns how many comments are in status.
func (d *Desk) SuggestionCount(status JobStatus) int {
	return d.jobs.Count(status)
}

func (d *Desk) BulkRunning() bool      { return d.bulk.Running() }
func (d *Desk) BulkProgress() Progress { return d.bulk.Progress() }
