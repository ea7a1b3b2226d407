package snapshot

// cycleGuard tracks the identities of the composites on the active
// recursion path. It is a stack, not a set: a value reached again from a
// sibling position is written in full, only re-entry into an ancestor is a
// cycle.
type cycleGuard struct {
	stack []identity
}

// enter pushes id and reports true, or reports false without pushing when
// id is already on the path.
func (g *cycleGuard) enter(id identity) bool {
	for _, s := range g.stack {
		if s == id {
			return false
		}
	}
	g.stack = append(g.stack, id)
	return true
}

// exit pops id. Calls must mirror successful enters.
func (g *cycleGuard) exit(id identity) {
	if n := len(g.stack); n > 0 && g.stack[n-1] == id {
		g.stack = g.stack[:n-1]
	}
}

// enterAll enters every id in order. On the first failure it unwinds what
// was pushed and reports false.
func (g *cycleGuard) enterAll(ids []identity) bool {
	for i, id := range ids {
		if !g.enter(id) {
			for j := i - 1; j >= 0; j-- {
				g.exit(ids[j])
			}
			return false
		}
	}
	return true
}

func (g *cycleGuard) exitAll(ids []identity) {
	for i := len(ids) - 1; i >= 0; i-- {
		g.exit(ids[i])
	}
}
