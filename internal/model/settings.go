package model

import "time"

// TournamentFormat names the pairing preset a tournament is configured
// for; squire_lib's TournamentPreset is {Swiss, Fluid} — the format drives
// which PairingStyle a freshly created tournament starts with.
type TournamentFormat int

const (
	FormatSwiss TournamentFormat = iota
	FormatFluid
)

func (f TournamentFormat) String() string {
	switch f {
	case FormatFluid:
		return "Fluid"
	default:
		return "Swiss"
	}
}

// GeneralSettings holds the tournament-wide configuration that isn't
// pairing- or scoring-specific, mirroring squire_lib's GeneralSettingsTree.
type GeneralSettings struct {
	Format              TournamentFormat
	StartingTableNumber int
	UseTableNumbers     bool
	MinDeckCount        int
	MaxDeckCount        int
	RequireCheckIn      bool
	RequireDeckReg      bool
	RoundLength         time.Duration
}

func DefaultGeneralSettings() GeneralSettings {
	return GeneralSettings{
		Format:              FormatSwiss,
		StartingTableNumber: 1,
		UseTableNumbers:     true,
		MinDeckCount:        1,
		MaxDeckCount:        2,
		RequireCheckIn:      false,
		RequireDeckReg:      false,
		RoundLength:         50 * time.Minute,
	}
}

// Setting is a tagged update to one of the three settings sub-trees. Only
// one field is populated per value, mirroring the tagged-variant shape of
// squire_lib's settings enums (no subtype hierarchy, just a closed set of
// update kinds).
type Setting struct {
	MinDeckCount        *int
	MaxDeckCount         *int
	RequireCheckIn      *bool
	RequireDeckReg       *bool
	StartingTableNumber *int
	UseTableNumbers     *bool
	RoundLength         *time.Duration

	PairingStyle    *PairingStyle
	MatchSize       *int
	RepairTolerance *int
	Algorithm       *PairingAlgorithm

	Scoring *StandardScoring
}

// UpdateGeneral applies a Setting to the general tree, validating the
// deck-count cross-invariant (min <= max) before committing.
func (g *GeneralSettings) UpdateGeneral(s Setting) error {
	next := *g
	if s.MinDeckCount != nil {
		next.MinDeckCount = *s.MinDeckCount
	}
	if s.MaxDeckCount != nil {
		next.MaxDeckCount = *s.MaxDeckCount
	}
	if next.MinDeckCount > next.MaxDeckCount {
		return NewError(InvalidDeckCount)
	}
	if s.RequireCheckIn != nil {
		next.RequireCheckIn = *s.RequireCheckIn
	}
	if s.RequireDeckReg != nil {
		next.RequireDeckReg = *s.RequireDeckReg
	}
	if s.StartingTableNumber != nil {
		next.StartingTableNumber = *s.StartingTableNumber
	}
	if s.UseTableNumbers != nil {
		next.UseTableNumbers = *s.UseTableNumbers
	}
	if s.RoundLength != nil {
		next.RoundLength = *s.RoundLength
	}
	*g = next
	return nil
}

// UpdatePairing applies a Setting to the pairing system, rejecting a style
// change while the other style's state (check-ins/queue) is non-empty —
// squire_lib's IncompatiblePairingSystem guard.
func (ps *PairingSystem) UpdatePairing(s Setting) error {
	if s.PairingStyle != nil && *s.PairingStyle != ps.Style {
		if len(ps.CheckIns) > 0 || len(ps.FluidQueue) > 0 {
			return NewError(IncompatiblePairingSystem)
		}
		ps.Style = *s.PairingStyle
	}
	if s.MatchSize != nil {
		if *s.MatchSize < 2 {
			return NewError(IncorrectMatchSize)
		}
		ps.MatchSize = *s.MatchSize
	}
	if s.RepairTolerance != nil {
		ps.RepairTolerance = *s.RepairTolerance
	}
	if s.Algorithm != nil {
		ps.Algorithm = *s.Algorithm
	}
	return nil
}

// UpdateScoring applies a Setting to the standard scoring tree.
func (sc *StandardScoring) UpdateScoring(s Setting) error {
	if s.Scoring != nil {
		*sc = *s.Scoring
	}
	return nil
}
