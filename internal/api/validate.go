package api

import (
	"strings"

	"github.com/google/uuid"
)

// Argument bounds enforced by the backend; checked here so a bad call never
// leaves the process.
const (
	MaxSearchTopK   = 50
	MaxReplyTopK    = 20
	MaxCommentLimit = 500
	MinAnalyzeSize  = 50
	MaxAnalyzeSize  = 2000
	MaxTopLeads     = 200
)

func validateKBID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("kb_id", "required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return invalid("kb_id", "not a uuid: %q", id)
	}
	return nil
}

func validateNoteID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("note_id", "required")
	}
	return nil
}

// Validate checks a create request.
func (in CreateKnowledgeBaseInput) Validate() error {
	if strings.TrimSpace(in.Slug) == "" {
		return invalid("slug", "required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "required")
	}
	return nil
}

// Validate checks a search request.
func (in SearchInput) Validate() error {
	if strings.TrimSpace(in.Query) == "" {
		return invalid("query", "required")
	}
	if in.TopK < 1 || in.TopK > MaxSearchTopK {
		return invalid("top_k", "must be between 1 and %d", MaxSearchTopK)
	}
	return nil
}

// Validate checks a reply suggestion request.
func (in SuggestReplyInput) Validate() error {
	if err := validateKBID(in.KBID); err != nil {
		return err
	}
	if in.TopK < 1 || in.TopK > MaxReplyTopK {
		return invalid("top_k", "must be between 1 and %d", MaxReplyTopK)
	}
	if in.KBVersion != nil && *in.KBVersion < 0 {
		return invalid("kb_version", "must not be negative")
	}
	return nil
}

// Validate checks a comment page request.
func (q CommentQuery) Validate() error {
	if q.Offset < 0 {
		return invalid("offset", "must not be negative")
	}
	if q.Limit < 1 || q.Limit > MaxCommentLimit {
		return invalid("limit", "must be between 1 and %d", MaxCommentLimit)
	}
	if q.Sort != SortLike && q.Sort != SortTime {
		return invalid("sort", "must be %q or %q", SortLike, SortTime)
	}
	return nil
}

// Validate checks a monitoring window.
func (in OverviewInput) Validate() error {
	if in.Since != nil && in.Until != nil && in.Until.Before(*in.Since) {
		return invalid("until", "before since")
	}
	return nil
}
