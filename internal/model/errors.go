package model

// ErrorKind enumerates the closed set of tournament-level failures a
// mutating operation can produce. The set is closed deliberately: callers
// switch over Kind rather than string-matching Error().
type ErrorKind int

const (
	IncorrectStatus ErrorKind = iota
	IncorrectRoundStatus
	PlayerNotFound
	PlayerAlreadyRegistered
	RoundLookup
	OfficialLookup
	DeckLookup
	RegClosed
	PlayerNotInRound
	NoActiveRound
	RoundConfirmed
	InvalidBye
	ActiveMatches
	PlayerNotCheckedIn
	IncompatiblePairingSystem
	IncompatibleScoringSystem
	InvalidDeckCount
	NoMatchResult
	IncorrectMatchSize
	RepeatedPlayerInMatch
)

var errorNames = map[ErrorKind]string{
	IncorrectStatus:           "IncorrectStatus",
	IncorrectRoundStatus:      "IncorrectRoundStatus",
	PlayerNotFound:            "PlayerNotFound",
	PlayerAlreadyRegistered:   "PlayerAlreadyRegistered",
	RoundLookup:               "RoundLookup",
	OfficialLookup:            "OfficialLookup",
	DeckLookup:                "DeckLookup",
	RegClosed:                 "RegClosed",
	PlayerNotInRound:          "PlayerNotInRound",
	NoActiveRound:             "NoActiveRound",
	RoundConfirmed:            "RoundConfirmed",
	InvalidBye:                "InvalidBye",
	ActiveMatches:             "ActiveMatches",
	PlayerNotCheckedIn:        "PlayerNotCheckedIn",
	IncompatiblePairingSystem: "IncompatiblePairingSystem",
	IncompatibleScoringSystem: "IncompatibleScoringSystem",
	InvalidDeckCount:          "InvalidDeckCount",
	NoMatchResult:             "NoMatchResult",
	IncorrectMatchSize:        "IncorrectMatchSize",
	RepeatedPlayerInMatch:     "RepeatedPlayerInMatch",
}

// TournamentError is the error type every apply_op guard returns. Its
// Error() string matches the variant name exactly (no punctuation, no
// payload interpolation) so error text is stable for clients that match on
// it literally.
type TournamentError struct {
	Kind ErrorKind
}

func NewError(kind ErrorKind) *TournamentError {
	return &TournamentError{Kind: kind}
}

func (e *TournamentError) Error() string {
	if name, ok := errorNames[e.Kind]; ok {
		return name
	}
	return "UnknownTournamentError"
}

// Is allows errors.Is(err, model.NewError(model.PlayerNotFound)) to work
// by comparing Kind rather than pointer identity.
func (e *TournamentError) Is(target error) bool {
	other, ok := target.(*TournamentError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}
