package session

// Slot holds the result of one derived fetch together with the input tuple
// that produced the request currently awaited.
//
// A response is committed only when it was issued for the slot's current key,
// so a slow response for an older key never overwrites a newer one.
type Slot[K comparable, T any] struct {
	key     K
	issued  bool
	loading bool
	value   *T
	err     error
}

// Issue moves the slot to key and reports whether a request has to be sent.
// That is the case only when key differs from the last issued key.
func (s *Slot[K, T]) Issue(key K) bool {
	if s.issued && s.key == key {
		return false
	}
	s.Reissue(key)
	return true
}

// Reissue moves the slot to key unconditionally, clearing the previous value
// and error. The caller always sends a request.
func (s *Slot[K, T]) Reissue(key K) {
	s.key = key
	s.issued = true
	s.loading = true
	s.value = nil
	s.err = nil
}

// Commit stores a response for key. It reports false and changes nothing when
// key is no longer the slot's current key.
func (s *Slot[K, T]) Commit(key K, value *T, err error) bool {
	if !s.issued || s.key != key {
		return false
	}
	s.loading = false
	if err != nil {
		s.value = nil
		s.err = err
		return true
	}
	s.value = value
	s.err = nil
	return true
}

// Reset forgets the key, value and error.
func (s *Slot[K, T]) Reset() {
	*s = Slot[K, T]{}
}

func (s *Slot[K, T]) Key() (K, bool) { return s.key, s.issued }
func (s *Slot[K, T]) Value() *T      { return s.value }
func (s *Slot[K, T]) Err() error     { return s.err }
func (s *Slot[K, T]) Loading() bool  { return s.loading }
