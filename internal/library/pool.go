package library

// Pool is the set of template positions a similarity search may return.
// The zero Pool admits every template.
type Pool struct {
	restricted bool
	members    map[int]struct{}
}

// NewPool returns a pool restricted to positions. A nil or empty slice
// yields a pool that admits nothing.
func NewPool(positions []int) Pool {
	members := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		members[p] = struct{}{}
	}
	return Pool{restricted: true, members: members}
}

// Contains reports whether the template at pos is in the pool.
func (p Pool) Contains(pos int) bool {
	if !p.restricted {
		return true
	}
	_, ok := p.members[pos]
	return ok
}

// Restricted reports whether the pool is narrower than the whole library.
func (p Pool) Restricted() bool { return p.restricted }

// Empty reports whether a restricted pool admits no template.
func (p Pool) Empty() bool { return p.restricted && len(p.members) == 0 }
