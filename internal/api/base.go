package api

import "time"

// DefaultBaseURL is the API root used when no override is configured.
const DefaultBaseURL = "http://localhost:8000/api"

// NewDefaultClient builds a client pointed at the default API root.
func NewDefaultClient(timeout ...time.Duration) *Client {
	return NewClient(DefaultBaseURL, timeout...)
}
