package model

// rotaryPair slides a window of 2*matchSize players across the list,
// partitions each window into two matchSize-sized halves by trying every
// combination, and keeps the partition that minimizes the total prior-
// opponent count across both halves. The scan loop is capped at 25 rounds
// and alternates direction each round, but it stops at the first round
// that seats no full window, so once the first pass has consumed every
// full window the tail is not scanned again. No pairing is checked for
// validity or retried. Ported from squire_lib's rotary pairing algorithm.
func rotaryPair(players []PlayerID, opponents OpponentsMap, matchSize int) Pairings {
	var out Pairings
	remaining := append([]PlayerID{}, players...)
	window := 2 * matchSize

	forward := true
	for round := 0; round < 25 && len(remaining) >= matchSize; round++ {
		if !forward {
			reverse(remaining)
		}

		progressed := false
		for len(remaining) >= window {
			chunk := remaining[:window]
			left, right := bestRotaryPartition(chunk, opponents, matchSize)
			out.Paired = append(out.Paired, left, right)
			remaining = remaining[window:]
			progressed = true
		}

		if !forward {
			reverse(remaining)
		}
		forward = !forward

		if !progressed {
			break
		}
	}

	// Tail smaller than a full window: try one last single pairing if it
	// exactly fits matchSize, otherwise it's rejected.
	if len(remaining) == matchSize {
		out.Paired = append(out.Paired, append([]PlayerID{}, remaining...))
		remaining = nil
	}
	out.Rejected = append(out.Rejected, remaining...)
	return out
}

func reverse(s []PlayerID) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// bestRotaryPartition enumerates every way to split chunk (len ==
// 2*matchSize) into two matchSize-sized halves and returns the split
// minimizing combined prior-opponent count.
func bestRotaryPartition(chunk []PlayerID, opponents OpponentsMap, matchSize int) ([]PlayerID, []PlayerID) {
	n := len(chunk)
	bestScore := -1
	var bestLeft, bestRight []PlayerID

	var combo func(start int, picked []int)
	combo = func(start int, picked []int) {
		if len(picked) == matchSize {
			leftSet := make(map[int]struct{}, matchSize)
			for _, idx := range picked {
				leftSet[idx] = struct{}{}
			}
			left := make([]PlayerID, 0, matchSize)
			right := make([]PlayerID, 0, matchSize)
			for i, p := range chunk {
				if _, ok := leftSet[i]; ok {
					left = append(left, p)
				} else {
					right = append(right, p)
				}
			}
			score := countOpponents(opponents, left) + countOpponents(opponents, right)
			if bestScore == -1 || score < bestScore {
				bestScore = score
				bestLeft, bestRight = left, right
			}
			return
		}
		for i := start; i < n; i++ {
			combo(i+1, append(picked, i))
		}
	}
	combo(0, nil)
	return bestLeft, bestRight
}
