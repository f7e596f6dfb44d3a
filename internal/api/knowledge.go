package api

import "fmt"

// --- Knowledge Base Methods ---

// ListKnowledgeBases returns every knowledge base.
func (c *Client) ListKnowledgeBases() ([]KnowledgeBase, error) {
	data, err := c.get("/kbs")
	if err != nil {
		return nil, err
	}
	return decodeList[KnowledgeBase](data)
}

func (c *Client) CreateKnowledgeBase(input CreateKnowledgeBaseInput) (*KnowledgeBase, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	data, err := c.post("/kbs", input)
	if err != nil {
		return nil, err
	}
	return decode[KnowledgeBase](data)
}

// PublishKnowledgeBase bumps the published version. Callers refetch the list
// to see the new version.
func (c *Client) PublishKnowledgeBase(id string) (*PublishResult, error) {
	if err := validateKBID(id); err != nil {
		return nil, err
	}
	data, err := c.post(fmt.Sprintf("/kbs/%s/publish", segment(id)), nil)
	if err != nil {
		return nil, err
	}
	return decode[PublishResult](data)
}

func (c *Client) ReindexKnowledgeBase(id string) (*ReindexResult, error) {
	if err := validateKBID(id); err != nil {
		return nil, err
	}
	data, err := c.post(fmt.Sprintf("/kbs/%s/reindex", segment(id)), nil)
	if err != nil {
		return nil, err
	}
	return decode[ReindexResult](data)
}

func (c *Client) SearchKnowledgeBase(id string, input SearchInput) (*SearchResult, error) {
	if err := validateKBID(id); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	data, err := c.post(fmt.Sprintf("/kbs/%s/search", segment(id)), input)
	if err != nil {
		return nil, err
	}
	return decode[SearchResult](data)
}
