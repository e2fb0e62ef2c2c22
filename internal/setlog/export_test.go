package setlog

import "time"

// SetNow replaces the store's clock.
func (s *Store) SetNow(now func() time.Time) {
	s.now = now
}
