package session

// JobStatus is the state of one keyed request.
type JobStatus int

const (
	JobAbsent JobStatus = iota
	JobPending
	JobSucceeded
	JobFailed
)

func (s JobStatus) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	default:
		return "absent"
	}
}

// PreconditionNoKnowledgeBase is stored when a suggestion is requested with no
// knowledge base selected.
const PreconditionNoKnowledgeBase = "precondition: no knowledge base selected"

// Job is the state of one key. Value is set only when succeeded, Reason only
// when failed.
type Job[T any] struct {
	Status JobStatus
	Value  *T
	Reason string
}

// JobMap tracks one independent request per key.
//
// Requests for the same key are neither coalesced nor cancelled: whichever
// resolves last wins. Clear starts a new generation, and resolutions issued
// before it are dropped.
type JobMap[T any] struct {
	entries map[string]Job[T]
	gen     uint64
}

// NewJobMap returns an empty map.
func NewJobMap[T any]() *JobMap[T] {
	return &JobMap[T]{entries: make(map[string]Job[T])}
}

// Get returns the state for key, JobAbsent when never requested.
func (m *JobMap[T]) Get(key string) Job[T] {
	job, ok := m.entries[key]
	if !ok {
		return Job[T]{Status: JobAbsent}
	}
	return job
}

// Begin marks key pending and returns the generation the request belongs to.
// A previous terminal state for key is superseded.
func (m *JobMap[T]) Begin(key string) uint64 {
	m.entries[key] = Job[T]{Status: JobPending}
	return m.gen
}

// Fail stores a failure without any request having been sent.
func (m *JobMap[T]) Fail(key, reason string) {
	m.entries[key] = Job[T]{Status: JobFailed, Reason: reason}
}

// Resolve stores the outcome of a request begun in generation gen. It reports
// false when the map was cleared since.
func (m *JobMap[T]) Resolve(gen uint64, key string, value *T, err error) bool {
	if gen != m.gen {
		return false
	}
	if err != nil {
		m.entries[key] = Job[T]{Status: JobFailed, Reason: err.Error()}
		return true
	}
	m.entries[key] = Job[T]{Status: JobSucceeded, Value: value}
	return true
}

// Clear drops every entry.
func (m *JobMap[T]) Clear() {
	m.entries = make(map[string]Job[T])
	m.gen++
}

// Len returns the number of keys with any state.
func (m *JobMap[T]) Len() int {
	return len(m.entries)
}

// Count returns how many entries are in status.
func (m *JobMap[T]) Count(status JobStatus) int {
	n := 0
	for _, job := range m.entries {
		if job.Status == status {
			n++
		}
	}
	return n
}
