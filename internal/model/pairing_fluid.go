package model

// ReadyToPair reports whether the fluid queue has enough players to form a
// pairing: the combined check-in + queue pool must reach MatchSize, and at
// least one player must actually be checked in (a queue of unchecked
// players alone never triggers a pairing).
func (ps *PairingSystem) ReadyToPair() bool {
	if len(ps.CheckIns) == 0 {
		return false
	}
	pool := make(map[PlayerID]struct{}, len(ps.CheckIns)+len(ps.FluidQueue))
	for p := range ps.CheckIns {
		pool[p] = struct{}{}
	}
	for _, p := range ps.FluidQueue {
		pool[p] = struct{}{}
	}
	return len(pool) >= ps.MatchSize
}

// FluidPair pairs from the queue once ReadyToPair holds, then removes the
// paired players from both the queue and the check-in set so they must
// re-check-in before their next pairing. Ported from squire_lib's fluid
// pairing driver.
func (ps *PairingSystem) FluidPair(opponents OpponentsMap) Pairings {
	if !ps.ReadyToPair() {
		return Pairings{}
	}
	pool := make([]PlayerID, 0, len(ps.CheckIns)+len(ps.FluidQueue))
	seen := make(map[PlayerID]struct{})
	for p := range ps.CheckIns {
		pool = append(pool, p)
		seen[p] = struct{}{}
	}
	for _, p := range ps.FluidQueue {
		if _, ok := seen[p]; !ok {
			pool = append(pool, p)
			seen[p] = struct{}{}
		}
	}

	result := ps.Pair(pool, opponents)

	paired := make(map[PlayerID]struct{})
	for _, group := range result.Paired {
		for _, p := range group {
			paired[p] = struct{}{}
		}
	}

	newQueue := ps.FluidQueue[:0:0]
	for _, p := range ps.FluidQueue {
		if _, done := paired[p]; !done {
			newQueue = append(newQueue, p)
		}
	}
	ps.FluidQueue = newQueue
	for p := range paired {
		delete(ps.CheckIns, p)
	}
	return result
}

// Enqueue adds a player to the fluid queue if not already present.
func (ps *PairingSystem) Enqueue(id PlayerID) {
	for _, p := range ps.FluidQueue {
		if p == id {
			return
		}
	}
	ps.FluidQueue = append(ps.FluidQueue, id)
}
