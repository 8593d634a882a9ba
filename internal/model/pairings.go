package model

// PairingAlgorithm selects which raw-pairing strategy a Swiss or Fluid
// driver uses to group players within a round.
type PairingAlgorithm int

const (
	AlgorithmGreedy PairingAlgorithm = iota
	AlgorithmBranching
	AlgorithmRotary
)

// PairingStyle selects the higher-level driver: Swiss re-pairs from
// standings each round; Fluid continuously pairs from a check-in queue.
type PairingStyle int

const (
	StyleSwiss PairingStyle = iota
	StyleFluid
)

// PairingSystem is the common pairing configuration shared by both
// drivers, plus Fluid's check-in set.
type PairingSystem struct {
	MatchSize      int
	RepairTolerance int
	Algorithm      PairingAlgorithm
	Style          PairingStyle
	CheckIns       map[PlayerID]struct{}
	FluidQueue     []PlayerID
}

func NewPairingSystem(matchSize int, style PairingStyle) *PairingSystem {
	return &PairingSystem{
		MatchSize: matchSize,
		Algorithm: AlgorithmGreedy,
		Style:     style,
		CheckIns:  make(map[PlayerID]struct{}),
	}
}

// Pairings is the output of any pairing algorithm: groups of players ready
// to become rounds, plus the leftover players that couldn't be seated.
type Pairings struct {
	Paired   [][]PlayerID
	Rejected []PlayerID
}

// OpponentsMap tracks, for each player, the set of opponents already
// faced, used by repair-tolerance checks in greedy/rotary pairing.
type OpponentsMap map[PlayerID]map[PlayerID]struct{}

func countOpponents(opponents OpponentsMap, group []PlayerID) int {
	count := 0
	seen := make(map[[2]PlayerID]struct{})
	for i := range group {
		for j := range group {
			if i == j {
				continue
			}
			key := [2]PlayerID{group[i], group[j]}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			if prior, ok := opponents[group[i]]; ok {
				if _, faced := prior[group[j]]; faced {
					count++
				}
			}
		}
	}
	return count
}

// Pair dispatches to the configured algorithm for Swiss-style one-shot
// pairing of the given candidate list (already filtered to players that
// CanPlay and, for Swiss-with-check-ins, are checked in).
func (ps *PairingSystem) Pair(players []PlayerID, opponents OpponentsMap) Pairings {
	switch ps.Algorithm {
	case AlgorithmRotary:
		return rotaryPair(players, opponents, ps.MatchSize)
	default:
		return greedyPair(players, opponents, ps.MatchSize, ps.RepairTolerance)
	}
}
