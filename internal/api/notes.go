package api

import (
	"fmt"
	"strconv"
)

// --- Note Methods ---

// ListNotes returns the scraped notes matching q (title, body or tags).
func (c *Client) ListNotes(q string) (*NoteList, error) {
	data, err := c.get(buildQuery("/xhs/notes", QueryParams{"q": q}))
	if err != nil {
		return nil, err
	}
	return decode[NoteList](data)
}

// ListComments returns one page of comments for a note.
func (c *Client) ListComments(noteID string, query CommentQuery) (*CommentPage, error) {
	if err := validateNoteID(noteID); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	path := buildQuery(fmt.Sprintf("/xhs/notes/%s/comments", segment(noteID)), QueryParams{
		"offset": strconv.Itoa(query.Offset),
		"limit":  strconv.Itoa(query.Limit),
		"sort":   query.Sort,
		"q":      query.Q,
	})
	data, err := c.get(path)
	if err != nil {
		return nil, err
	}
	return decode[CommentPage](data)
}

// AnalyzeNote aggregates comment intents over up to maxSamples comments.
func (c *Client) AnalyzeNote(noteID string, maxSamples int) (*NoteAnalysis, error) {
	if err := validateNoteID(noteID); err != nil {
		return nil, err
	}
	if maxSamples < MinAnalyzeSize || maxSamples > MaxAnalyzeSize {
		return nil, invalid("max_samples", "must be between %d and %d", MinAnalyzeSize, MaxAnalyzeSize)
	}
	path := buildQuery(fmt.Sprintf("/xhs/notes/%s/analyze", segment(noteID)), QueryParams{
		"max_samples": strconv.Itoa(maxSamples),
	})
	data, err := c.get(path)
	if err != nil {
		return nil, err
	}
	return decode[NoteAnalysis](data)
}
