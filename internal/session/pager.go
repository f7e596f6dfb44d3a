package session

import "github.com/gravitrone/replydesk/internal/api"

// PageSizes are the page sizes the operator can cycle through.
var PageSizes = []int{20, 50, 100}

// DefaultPageSize is the limit used before the operator picks one.
const DefaultPageSize = 50

// Pager tracks the comment window for the selected note. Total is whatever the
// server reported for the last committed page.
type Pager struct {
	Offset int
	Limit  int
	Sort   string
	Filter string
	Total  int
}

// NewPager returns a pager on the first page, sorted by likes.
func NewPager(limit int) Pager {
	if limit < 1 || limit > api.MaxCommentLimit {
		limit = DefaultPageSize
	}
	return Pager{Limit: limit, Sort: api.SortLike}
}

// SetSort changes the sort key and rewinds to the first page. Unknown keys are
// rejected.
func (p *Pager) SetSort(sort string) bool {
	if sort != api.SortLike && sort != api.SortTime {
		return false
	}
	p.Sort = sort
	p.Offset = 0
	return true
}

// ToggleSort flips between like and time ordering.
func (p *Pager) ToggleSort() {
	if p.Sort == api.SortTime {
		p.SetSort(api.SortLike)
		return
	}
	p.SetSort(api.SortTime)
}

// SetFilter changes the comment text filter and rewinds to the first page.
func (p *Pager) SetFilter(filter string) {
	p.Filter = filter
	p.Offset = 0
}

// SetLimit changes the page size and rewinds to the first page.
func (p *Pager) SetLimit(limit int) bool {
	if limit < 1 || limit > api.MaxCommentLimit {
		return false
	}
	p.Limit = limit
	p.Offset = 0
	return true
}

// CycleLimit steps to the next entry of PageSizes.
func (p *Pager) CycleLimit() {
	next := PageSizes[0]
	for i, size := range PageSizes {
		if size == p.Limit {
			next = PageSizes[(i+1)%len(PageSizes)]
			break
		}
	}
	p.SetLimit(next)
}

// HasNext reports whether another page exists past the current one.
func (p Pager) HasNext() bool {
	return p.Offset+p.Limit < p.Total
}

// HasPrev reports whether the window is past the first page.
func (p Pager) HasPrev() bool {
	return p.Offset > 0
}

// NextPage advances by one page. It is a no-op when offset+limit >= total.
func (p *Pager) NextPage() bool {
	if !p.HasNext() {
		return false
	}
	p.Offset += p.Limit
	return true
}

// PrevPage steps back one page, never below zero. It is a no-op on the first
// page.
func (p *Pager) PrevPage() bool {
	if !p.HasPrev() {
		return false
	}
	p.Offset = max(0, p.Offset-p.Limit)
	return true
}

// Rewind returns to the first page keeping sort, filter and limit.
func (p *Pager) Rewind() {
	p.Offset = 0
}

// Query returns the comment request for the current window.
func (p Pager) Query() api.CommentQuery {
	return api.CommentQuery{
		Offset: p.Offset,
		Limit:  p.Limit,
		Sort:   p.Sort,
		Q:      p.Filter,
	}
}

// Range returns the 1-based first and last row shown and the total. first is 0
// when the page is empty.
func (p Pager) Range() (first, last, total int) {
	if p.Total == 0 {
		return 0, 0, 0
	}
	return p.Offset + 1, min(p.Offset+p.Limit, p.Total), p.Total
}
