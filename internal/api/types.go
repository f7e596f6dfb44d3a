package api

import (
	"encoding/json"
	"strings"
	"time"
)

// QueryParams holds URL query values. Empty values are not sent.
type QueryParams map[string]string

// Timestamp decodes the backend's datetimes, which may arrive with or without
// a zone offset (naive values are UTC).
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// null or a non-string value leaves the zero time.
		t.Time = time.Time{}
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// --- Knowledge Base ---

// KnowledgeBase is a versioned, searchable document collection.
type KnowledgeBase struct {
	ID               string    `json:"id"`
	Slug             string    `json:"slug"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	PublishedVersion int       `json:"published_version"`
	CreatedAt        Timestamp `json:"created_at"`
	UpdatedAt        Timestamp `json:"updated_at"`
}

// CreateKnowledgeBaseInput defines the fields required to create a knowledge base.
type CreateKnowledgeBaseInput struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PublishResult is returned by a publish call.
type PublishResult struct {
	KBID             string `json:"kb_id"`
	PublishedVersion int    `json:"published_version"`
}

// ReindexResult describes the vector index built for the published version.
type ReindexResult struct {
	KBID          string `json:"kb_id"`
	KBVersion     int    `json:"kb_version"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	Dim           int    `json:"dim"`
	IndexedChunks int    `json:"indexed_chunks"`
}

// SearchInput is the body of a knowledge search.
type SearchInput struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// SearchHit is one ranked knowledge snippet.
type SearchHit struct {
	ChunkID    string  `json:"chunk_id"`
	RevisionID string  `json:"revision_id"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// SearchResult is the response of a knowledge search.
type SearchResult struct {
	KBID      string      `json:"kb_id"`
	KBVersion int         `json:"kb_version"`
	Query     string      `json:"query"`
	Hits      []SearchHit `json:"hits"`
	LatencyMS int         `json:"latency_ms"`
	CreatedAt Timestamp   `json:"created_at"`
}

// --- Notes & Comments ---

// Note is a single scraped post. Engagement counters are opaque text; the
// source does not guarantee numeric formatting.
type Note struct {
	NoteID         string `json:"note_id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Desc           string `json:"desc"`
	TagList        string `json:"tag_list"`
	Nickname       string `json:"nickname"`
	LikedCount     string `json:"liked_count"`
	CollectedCount string `json:"collected_count"`
	CommentCount   string `json:"comment_count"`
	ShareCount     string `json:"share_count"`
	Time           *int64 `json:"time"`
	NoteURL        string `json:"note_url"`
	SourceKeyword  string `json:"source_keyword"`
}

// Comment is a reply attached to a note.
type Comment struct {
	CommentID       string `json:"comment_id"`
	NoteID          string `json:"note_id"`
	Content         string `json:"content"`
	LikeCount       string `json:"like_count"`
	CreateTime      *int64 `json:"create_time"`
	Nickname        string `json:"nickname"`
	UserID          string `json:"user_id"`
	IPLocation      string `json:"ip_location"`
	SubCommentCount string `json:"sub_comment_count"`
	ParentCommentID string `json:"parent_comment_id"`
}

// NoteList is the response of the note listing.
type NoteList struct {
	Notes       []Note            `json:"notes"`
	Total       int               `json:"total"`
	SourceFiles map[string]string `json:"source_files"`
}

// Sort keys accepted by the comment listing.
const (
	SortLike = "like"
	SortTime = "time"
)

// CommentQuery selects one page of comments.
type CommentQuery struct {
	Offset int
	Limit  int
	Sort   string
	Q      string
}

// CommentPage is one page of comments for a note.
type CommentPage struct {
	NoteID   string    `json:"note_id"`
	Total    int       `json:"total"`
	Offset   int       `json:"offset"`
	Limit    int       `json:"limit"`
	Sort     string    `json:"sort"`
	Q        string    `json:"q"`
	Comments []Comment `json:"comments"`
}

// NoteAnalysis aggregates comment intents for one note.
type NoteAnalysis struct {
	NoteID        string         `json:"note_id"`
	TotalComments int            `json:"total_comments"`
	TopComments   []Comment      `json:"top_comments"`
	IntentCounts  map[string]int `json:"intent_counts"`
	GeneratedAt   Timestamp      `json:"generated_at"`
}

// --- Reply ---

// ReplyComment is the comment context sent with a suggestion request.
type ReplyComment struct {
	CommentID string `json:"comment_id"`
	NoteID    string `json:"note_id"`
	NoteTitle string `json:"note_title"`
	NoteDesc  string `json:"note_desc"`
	UserID    string `json:"user_id,omitempty"`
	Nickname  string `json:"nickname"`
	Content   string `json:"content"`
}

// SuggestReplyInput is the body of a reply suggestion request.
type SuggestReplyInput struct {
	KBID        string       `json:"kb_id"`
	Comment     ReplyComment `json:"comment"`
	TopK        int          `json:"top_k"`
	KBVersion   *int         `json:"kb_version,omitempty"`
	InjectSales bool         `json:"inject_sales"`
}

// ReplySuggestion is a generated reply candidate plus classification metadata.
type ReplySuggestion struct {
	KBID             string      `json:"kb_id"`
	KBVersion        int         `json:"kb_version"`
	Intent           string      `json:"intent"`
	IntentConfidence float64     `json:"intent_confidence"`
	Reply            string      `json:"reply"`
	UsedKnowledge    []SearchHit `json:"used_knowledge"`
	LeadScore        int         `json:"lead_score"`
	LeadLevel        string      `json:"lead_level"`
	LeadSignals      []string    `json:"lead_signals"`
	NextActions      []string    `json:"next_actions"`
	LatencyMS        int         `json:"latency_ms"`
	CreatedAt        Timestamp   `json:"created_at"`
}

// --- Monitoring ---

// OverviewInput bounds the aggregation window. Nil bounds are open.
type OverviewInput struct {
	Since *time.Time `json:"since,omitempty"`
	Until *time.Time `json:"until,omitempty"`
}

// Overview holds aggregate reply metrics.
type Overview struct {
	TotalReplies int            `json:"total_replies"`
	AvgLatencyMS int            `json:"avg_latency_ms"`
	LLMRate      float64        `json:"llm_rate"`
	LeadHigh     int            `json:"lead_high"`
	LeadMedium   int            `json:"lead_medium"`
	LeadLow      int            `json:"lead_low"`
	IntentCounts map[string]int `json:"intent_counts"`
	GeneratedAt  Timestamp      `json:"generated_at"`
}

// LeadRow is one scored comment in a note's lead ranking.
type LeadRow struct {
	CommentID string    `json:"comment_id"`
	Intent    string    `json:"intent"`
	LeadScore int       `json:"lead_score"`
	LeadLevel string    `json:"lead_level"`
	LatencyMS int       `json:"latency_ms"`
	CreatedAt Timestamp `json:"created_at"`
}

// NoteTopLeads ranks the best leads generated for one note.
type NoteTopLeads struct {
	NoteID      string    `json:"note_id"`
	Rows        []LeadRow `json:"rows"`
	GeneratedAt Timestamp `json:"generated_at"`
}

// LeadScore is the standalone lead scoring result for a piece of text.
type LeadScore struct {
	Score       int            `json:"score"`
	Level       string         `json:"level"`
	Signals     []string       `json:"signals"`
	NextActions []string       `json:"next_actions"`
	Features    map[string]int `json:"features"`
}
