package model

// SwissPair sorts candidates by descending standings score, then runs the
// configured algorithm up to 100 times while players are rejected, keeping
// whichever attempt rejects the fewest. Every attempt gets the same order
// and Pair is deterministic, so the retries return the same result as the
// first attempt. Ported from squire_lib's Swiss pairing driver.
func (ps *PairingSystem) SwissPair(standings Standings, candidates map[PlayerID]struct{}, opponents OpponentsMap) Pairings {
	ordered := make([]PlayerID, 0, len(candidates))
	for _, entry := range standings.Entries {
		if _, ok := candidates[entry.Player]; ok {
			ordered = append(ordered, entry.Player)
		}
	}
	// Any candidate missing from standings (e.g. a brand-new player)
	// still needs to be considered; append in map iteration order.
	for p := range candidates {
		found := false
		for _, o := range ordered {
			if o == p {
				found = true
				break
			}
		}
		if !found {
			ordered = append(ordered, p)
		}
	}

	var best Pairings
	bestRejected := -1
	for attempt := 0; attempt < 100; attempt++ {
		result := ps.Pair(ordered, opponents)
		if bestRejected == -1 || len(result.Rejected) < bestRejected {
			best = result
			bestRejected = len(result.Rejected)
		}
		if bestRejected == 0 {
			break
		}
	}
	return best
}
