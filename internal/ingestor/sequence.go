package ingestor

// Sequence hands out entry ids in strictly increasing order. It is owned by
// a single Driver and is not safe for concurrent use.
type Sequence struct {
	next uint64
}

func NewSequence(start uint64) *Sequence {
	return &Sequence{next: start}
}

// Next returns the current id and advances.
func (s *Sequence) Next() uint64 {
	id := s.next
	s.next++
	return id
}

// Peek returns the id the next call to Next will return.
func (s *Sequence) Peek() uint64 {
	return s.next
}
