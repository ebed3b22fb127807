package segment

import "time"

// SetNow overrides the resolver clock in tests.
func (r *Resolver) SetNow(f func() time.Time) { r.now = f }
