package api

// SuggestReply asks the backend for a reply candidate to one comment.
func (c *Client) SuggestReply(input SuggestReplyInput) (*ReplySuggestion, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	data, err := c.post("/reply/suggest", input)
	if err != nil {
		return nil, err
	}
	return decode[ReplySuggestion](data)
}

// ScoreLead scores a piece of text as a sales lead without generating a reply.
func (c *Client) ScoreLead(text string) (*LeadScore, error) {
	if text == "" {
		return nil, invalid("text", "required")
	}
	data, err := c.post("/leads/score", map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	return decode[LeadScore](data)
}
