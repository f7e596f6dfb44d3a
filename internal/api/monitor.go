package api

// MonitorOverview returns aggregate reply metrics for the given window.
func (c *Client) MonitorOverview(input OverviewInput) (*Overview, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	data, err := c.post("/monitor/overview", input)
	if err != nil {
		return nil, err
	}
	return decode[Overview](data)
}

// MonitorNoteTopLeads returns the highest scoring leads generated for a note.
func (c *Client) MonitorNoteTopLeads(noteID string, limit int) (*NoteTopLeads, error) {
	if err := validateNoteID(noteID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > MaxTopLeads {
		return nil, invalid("limit", "must be between 1 and %d", MaxTopLeads)
	}
	body := map[string]any{
		"note_id": noteID,
		"limit":   limit,
	}
	data, err := c.post("/monitor/note-top-leads", body)
	if err != nil {
		return nil, err
	}
	return decode[NoteTopLeads](data)
}
