package model

import "time"

// OpKind is the closed set of mutations a Tournament accepts through
// ApplyOp. Three classes — Player, Judge, Admin — are distinguished by
// RequiredRole, not by Go type, mirroring squire_lib's PlayerOp/JudgeOp/
// AdminOp enums collapsed into one tagged Operation.
type OpKind int

const (
	OpRegisterPlayer OpKind = iota
	OpAddDeck
	OpRemoveDeck
	OpSetGamerTag
	OpReadyPlayer
	OpUnreadyPlayer
	OpDropSelf
	OpRecordResult
	OpConfirmResult

	OpRegisterGuest
	OpAdminRegisterPlayer
	OpAdminRecordResult
	OpAdminConfirmResult
	OpAdminAddDeck
	OpAdminRemoveDeck
	OpAdminReadyPlayer
	OpAdminUnreadyPlayer
	OpTimeExtension

	OpCreate
	OpUpdateReg
	OpStart
	OpFreeze
	OpThaw
	OpEnd
	OpCancel
	OpAdminOverwriteResult
	OpRegisterJudge
	OpRegisterAdmin
	OpAdminDropPlayer
	OpRemoveRound
	OpUpdateTournSetting
	OpGiveBye
	OpCreateRound
	OpCreatePairings
	OpPairRound
	OpCut
	OpPruneDecks
	OpPrunePlayers
)

type Role int

const (
	RolePlayer Role = iota
	RoleJudge
	RoleAdmin
)

// RequiredRole reports which class of principal may submit this op —
// guard #2 ("Authorization") in ApplyOp's guard chain.
func (k OpKind) RequiredRole() Role {
	switch k {
	case OpRegisterGuest, OpAdminRegisterPlayer, OpAdminRecordResult, OpAdminConfirmResult,
		OpAdminAddDeck, OpAdminRemoveDeck, OpAdminReadyPlayer, OpAdminUnreadyPlayer, OpTimeExtension:
		return RoleJudge
	case OpCreate, OpUpdateReg, OpStart, OpFreeze, OpThaw, OpEnd, OpCancel, OpAdminOverwriteResult,
		OpRegisterJudge, OpRegisterAdmin, OpAdminDropPlayer, OpRemoveRound, OpUpdateTournSetting,
		OpGiveBye, OpCreateRound, OpCreatePairings, OpPairRound, OpCut, OpPruneDecks, OpPrunePlayers:
		return RoleAdmin
	default:
		return RolePlayer
	}
}

// Operation is a single closed-set mutation request. Exactly the fields
// relevant to Kind are populated by the caller; ApplyOp ignores the rest.
// A struct-of-optional-fields stands in for Rust's tagged enum payloads.
type Operation struct {
	Kind OpKind

	// Principal is the account submitting this op; ApplyOp's
	// authorization guard checks it against the tournament's admins/
	// judges instead of taking a separate parameter, so the op alone
	// (plus its salt) fully determines the mutation and its id.
	Principal AccountID

	Account     *AccountRef
	PlayerID    PlayerID
	RoundID     RoundID
	DeckName    string
	DeckCards   []string
	GamerTag    string
	Wins        int
	Draws       int
	GuestName   string
	Seed        TournamentSeed
	RegOpen     bool
	Setting     Setting
	Players     []PlayerID
	Pairings    Pairings
	Duration    time.Duration
	CutTo       int
}

// AccountRef is the minimal account payload carried by RegisterPlayer —
// just enough to derive a deterministic player id and seed a display name.
type AccountRef struct {
	ID          AccountID
	UserName    string
	DisplayName string
}

// OpDataKind tags the result of a successful ApplyOp call.
type OpDataKind int

const (
	DataNothing OpDataKind = iota
	DataRegisterPlayer
	DataConfirmResult
	DataPair
	DataCreatePairings
)

// DerivePlayerID computes the id a registration op would assign its new
// player, given the salt it's applied (or would be applied) under. Guest
// registrations derive from a synthesized AccountRef so that RegisterGuest
// and RegisterPlayer/AdminRegisterPlayer share one derivation path — the
// same path the sync aligner uses to detect two independently-submitted
// registrations that refer to the same logical player.
func DerivePlayerID(salt time.Time, op Operation) PlayerID {
	account := op.Account
	if op.Kind == OpRegisterGuest {
		account = &AccountRef{DisplayName: op.GuestName}
	}
	return IDFromItem[PlayerTag](salt, account)
}

type OpData struct {
	Kind           OpDataKind
	PlayerID       PlayerID
	ConfirmStatus  RoundStatus
	RoundIDs       []RoundID
	Pairings       Pairings
}
