package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gravitrone/replydesk/internal/api"
)

func TestPagerNavigationScenario(t *testing.T) {
	p := NewPager(50)
	p.Total = 120

	assert.True(t, p.NextPage())
	assert.True(t, p.NextPage())
	assert.Equal(t, 100, p.Offset)
	assert.False(t, p.NextPage())
	assert.Equal(t, 100, p.Offset)
}

func TestPagerPrevPageNoopAtZero(t *testing.T) {
	p := NewPager(20)
	p.Total = 100
	assert.False(t, p.PrevPage())
	assert.Equal(t, 0, p.Offset)
}

func TestPagerPrevPageNeverNegative(t *testing.T) {
	p := NewPager(50)
	p.Total = 200
	p.Offset = 30
	assert.True(t, p.PrevPage())
	assert.Equal(t, 0, p.Offset)
}

func TestPagerNextPageUnknownTotal(t *testing.T) {
	p := NewPager(50)
	assert.False(t, p.NextPage())
	assert.Equal(t, 0, p.Offset)
}

func TestPagerNavigationProperties(t *testing.T) {
	for _, total := range []int{0, 1, 19, 20, 21, 99, 100, 101} {
		for _, limit := range PageSizes {
			for offset := 0; offset <= total+limit; offset += 10 {
				p := Pager{Offset: offset, Limit: limit, Sort: api.SortLike, Total: total}
				if offset+limit >= total {
					assert.False(t, p.NextPage())
					assert.Equal(t, offset, p.Offset)
				}
				q := Pager{Offset: offset, Limit: limit, Sort: api.SortLike, Total: total}
				if offset == 0 {
					assert.False(t, q.PrevPage())
					assert.Equal(t, 0, q.Offset)
				} else {
					assert.True(t, q.PrevPage())
					assert.GreaterOrEqual(t, q.Offset, 0)
				}
			}
		}
	}
}

func TestPagerShapeChangesRewind(t *testing.T) {
	p := NewPager(50)
	p.Total = 500

	p.Offset = 150
	assert.True(t, p.SetSort(api.SortTime))
	assert.Equal(t, 0, p.Offset)

	p.Offset = 150
	p.SetFilter("buy")
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, "buy", p.Filter)

	p.Offset = 150
	assert.True(t, p.SetLimit(100))
	assert.Equal(t, 0, p.Offset)
}

func TestPagerRejectsInvalidShape(t *testing.T) {
	p := NewPager(50)
	p.Offset = 50
	assert.False(t, p.SetSort("hot"))
	assert.False(t, p.SetLimit(0))
	assert.False(t, p.SetLimit(api.MaxCommentLimit+1))
	assert.Equal(t, 50, p.Offset)
	assert.Equal(t, api.SortLike, p.Sort)
}

func TestPagerCycleLimitAndToggleSort(t *testing.T) {
	p := NewPager(20)
	p.CycleLimit()
	assert.Equal(t, 50, p.Limit)
	p.CycleLimit()
	assert.Equal(t, 100, p.Limit)
	p.CycleLimit()
	assert.Equal(t, 20, p.Limit)

	p.ToggleSort()
	assert.Equal(t, api.SortTime, p.Sort)
	p.ToggleSort()
	assert.Equal(t, api.SortLike, p.Sort)
}

func TestNewPagerFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultPageSize, NewPager(0).Limit)
	assert.Equal(t, DefaultPageSize, NewPager(9999).Limit)
}

func TestPagerRangeLabel(t *testing.T) {
	p := Pager{Offset: 0, Limit: 50, Total: 0}
	first, last, total := p.Range()
	assert.Equal(t, []int{0, 0, 0}, []int{first, last, total})

	p = Pager{Offset: 50, Limit: 50, Total: 120}
	first, last, total = p.Range()
	assert.Equal(t, []int{51, 100, 120}, []int{first, last, total})
}

func TestPagerQuery(t *testing.T) {
	p := Pager{Offset: 40, Limit: 20, Sort: api.SortTime, Filter: "price"}
	assert.Equal(t, api.CommentQuery{Offset: 40, Limit: 20, Sort: api.SortTime, Q: "price"}, p.Query())
}
