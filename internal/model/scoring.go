package model

import (
	"fmt"
	"math/big"
	"sort"
)

// Rat is an exact rational score value. Scoring MUST stay exact across
// nodes running on different hardware and compiler settings, which rules
// out float64; math/big.Rat is the stdlib's answer for exact fractions and
// no third-party rational-number library appears anywhere in the retrieval
// pack (see DESIGN.md).
type Rat struct {
	r big.Rat
}

func RatFromInt(n int64) Rat {
	var r Rat
	r.r.SetInt64(n)
	return r
}

func RatFromFrac(num, den int64) Rat {
	var r Rat
	r.r.SetFrac64(num, den)
	return r
}

func (r Rat) Add(other Rat) Rat {
	var out Rat
	out.r.Add(&r.r, &other.r)
	return out
}

func (r Rat) Cmp(other Rat) int {
	return r.r.Cmp(&other.r)
}

func (r Rat) Float64() float64 {
	f, _ := r.r.Float64()
	return f
}

func (r Rat) String() string {
	return r.r.RatString()
}

func (r Rat) MarshalText() ([]byte, error) {
	return []byte(r.r.RatString()), nil
}

func (r *Rat) UnmarshalText(text []byte) error {
	if _, ok := r.r.SetString(string(text)); !ok {
		return fmt.Errorf("model: invalid rational %q", text)
	}
	return nil
}

// Standings is the ordered output of a ScoringSystem: highest score first,
// ties broken by stable input order (the order players were iterated in).
type Standings struct {
	Entries []StandingsEntry
}

type StandingsEntry struct {
	Player PlayerID
	Score  Rat
}

// SortDescending orders entries by score, highest first, stably.
func (s *Standings) SortDescending() {
	sort.SliceStable(s.Entries, func(i, j int) bool {
		return s.Entries[i].Score.Cmp(s.Entries[j].Score) > 0
	})
}

// StandardScoring mirrors squire_lib's StandardScoringSetting: a fixed
// point-per-outcome table plus toggles for which components feed the
// composite score.
type StandardScoring struct {
	MatchWinPoints  Rat
	MatchDrawPoints Rat
	MatchLossPoints Rat
	GameWinPoints   Rat
	GameDrawPoints  Rat
	GameLossPoints  Rat
	ByePoints       Rat

	IncludeByes        bool
	IncludeMatchPoints bool
	IncludeGamePoints  bool
	IncludeMwp         bool
	IncludeGwp         bool
	IncludeOppMwp      bool
	IncludeOppGwp      bool
}

// DefaultStandardScoring matches the conventional Magic tournament table:
// 3/1/0 match points, 1/0.5/0 game points.
func DefaultStandardScoring() StandardScoring {
	return StandardScoring{
		MatchWinPoints:     RatFromInt(3),
		MatchDrawPoints:    RatFromInt(1),
		MatchLossPoints:    RatFromInt(0),
		GameWinPoints:      RatFromInt(1),
		GameDrawPoints:     RatFromFrac(1, 2),
		GameLossPoints:     RatFromInt(0),
		ByePoints:          RatFromInt(3),
		IncludeByes:        true,
		IncludeMatchPoints: true,
		IncludeGamePoints:  false,
		IncludeMwp:         false,
		IncludeGwp:         false,
		IncludeOppMwp:      false,
		IncludeOppGwp:      false,
	}
}

// Score computes standings for the given players from Certified rounds
// only. A player's score is bye points (when IncludeByes is set) plus match
// points (when IncludeMatchPoints is set). The other Include* toggles are
// not read: game points, match/game win percentages and opponent
// percentages never contribute to the score.
func (s StandardScoring) Score(players []*Player, rounds []*Round) Standings {
	score := make(map[PlayerID]Rat, len(players))
	order := make([]PlayerID, 0, len(players))
	for _, p := range players {
		score[p.ID] = RatFromInt(0)
		order = append(order, p.ID)
	}

	for _, rnd := range rounds {
		if rnd.Status != RoundCertified {
			continue
		}
		if rnd.IsBye {
			for pid := range rnd.Players {
				if s.IncludeByes {
					score[pid] = score[pid].Add(s.ByePoints)
				}
			}
			continue
		}
		if !s.IncludeMatchPoints {
			continue
		}
		for pid := range rnd.Players {
			res, ok := rnd.Results[pid]
			if !ok {
				continue
			}
			other := opponentWins(rnd, pid)
			switch {
			case res.Wins > other:
				score[pid] = score[pid].Add(s.MatchWinPoints)
			case res.Wins == other && res.Draws > 0:
				score[pid] = score[pid].Add(s.MatchDrawPoints)
			case res.Wins < other:
				score[pid] = score[pid].Add(s.MatchLossPoints)
			default:
				score[pid] = score[pid].Add(s.MatchDrawPoints)
			}
		}
	}

	entries := make([]StandingsEntry, 0, len(order))
	for _, pid := range order {
		entries = append(entries, StandingsEntry{Player: pid, Score: score[pid]})
	}
	st := Standings{Entries: entries}
	st.SortDescending()
	return st
}

func opponentWins(rnd *Round, pid PlayerID) int {
	max := 0
	for other, res := range rnd.Results {
		if other == pid {
			continue
		}
		if res.Wins > max {
			max = res.Wins
		}
	}
	return max
}
