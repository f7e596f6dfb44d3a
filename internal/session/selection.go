package session

import "github.com/gravitrone/replydesk/internal/api"

// Selection is the knowledge base and note the operator is working on. Both
// are empty until the first list load.
type Selection struct {
	KnowledgeBaseID string
	NoteID          string
}

// findKnowledgeBase looks id up in the last loaded list. A stale id is simply
// not found.
func findKnowledgeBase(kbs []api.KnowledgeBase, id string) (api.KnowledgeBase, bool) {
	if id == "" {
		return api.KnowledgeBase{}, false
	}
	for _, kb := range kbs {
		if kb.ID == id {
			return kb, true
		}
	}
	return api.KnowledgeBase{}, false
}

func findNote(notes []api.Note, id string) (api.Note, bool) {
	if id == "" {
		return api.Note{}, false
	}
	for _, n := range notes {
		if n.NoteID == id {
			return n, true
		}
	}
	return api.Note{}, false
}

// pickKnowledgeBase returns the id to auto-select after a list load: the
// preferred id when present, else the first entry.
func pickKnowledgeBase(kbs []api.KnowledgeBase, preferred string) string {
	if len(kbs) == 0 {
		return ""
	}
	if kb, ok := findKnowledgeBase(kbs, preferred); ok {
		return kb.ID
	}
	return kbs[0].ID
}
