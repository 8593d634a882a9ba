package model

// greedyPair iterates players in input order; for each not-yet-paired
// player it greedily collects the next matchSize-1 players such that the
// count of prior opponents within the chosen group stays <= tolerance.
// Ported from squire_lib's greedy pairing algorithm.
func greedyPair(players []PlayerID, opponents OpponentsMap, matchSize, tolerance int) Pairings {
	used := make(map[PlayerID]struct{}, len(players))
	var out Pairings

	for i, p := range players {
		if _, done := used[p]; done {
			continue
		}
		group := []PlayerID{p}
		for j := i + 1; j < len(players) && len(group) < matchSize; j++ {
			cand := players[j]
			if _, done := used[cand]; done {
				continue
			}
			trial := append(append([]PlayerID{}, group...), cand)
			if countOpponents(opponents, trial) <= tolerance {
				group = trial
			}
		}
		if len(group) == matchSize {
			for _, m := range group {
				used[m] = struct{}{}
			}
			out.Paired = append(out.Paired, group)
		}
	}

	for _, p := range players {
		if _, done := used[p]; !done {
			out.Rejected = append(out.Rejected, p)
		}
	}
	return out
}
