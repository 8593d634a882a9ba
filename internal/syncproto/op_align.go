package syncproto

import (
	"tourneysync/internal/model"
	"tourneysync/internal/oplog"
)

// OpUpdateKind tags which identifiers an alignment match rewrote.
type OpUpdateKind int

const (
	OpUpdateNone OpUpdateKind = iota
	OpUpdatePlayerID
	OpUpdateRoundID
)

// OpUpdate carries an id substitution discovered while aligning a foreign
// op against a local one that turned out to be functionally identical
// (same payload, different salt => different derived id). Downstream
// foreign ops that reference the old id must be rewritten before they're
// applied, so two independently-derived registrations converge on one
// identity.
type OpUpdate struct {
	Kind         OpUpdateKind
	OldPlayer    model.PlayerID
	NewPlayer    model.PlayerID
	OldRounds    []model.RoundID
	NewRounds    []model.RoundID
}

// sameOperationPayload reports whether two ops would produce the same
// mutation regardless of salt — the "functionally identical" test the
// alignment pass uses to decide two independently-submitted ops (e.g. two
// guest registrations with the same name) refer to the same logical
// change.
func sameOperationPayload(a, b model.Operation) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case model.OpRegisterGuest:
		return a.GuestName == b.GuestName
	case model.OpRegisterPlayer, model.OpAdminRegisterPlayer:
		return a.Account != nil && b.Account != nil && a.Account.ID == b.Account.ID
	case model.OpCreate:
		return a.Seed == b.Seed
	case model.OpStart, model.OpFreeze, model.OpThaw, model.OpEnd, model.OpCancel,
		model.OpCreatePairings:
		return true
	case model.OpUpdateReg:
		return a.RegOpen == b.RegOpen
	default:
		return false
	}
}

// AlignOp rewrites a foreign op's player/round references according to
// any substitutions discovered so far in this sync chain.
func AlignOp(op model.Operation, update OpUpdate) model.Operation {
	switch update.Kind {
	case OpUpdatePlayerID:
		if op.PlayerID == update.OldPlayer {
			op.PlayerID = update.NewPlayer
		}
		for i, p := range op.Players {
			if p == update.OldPlayer {
				op.Players[i] = update.NewPlayer
			}
		}
	case OpUpdateRoundID:
		for i, old := range update.OldRounds {
			if op.RoundID == old && i < len(update.NewRounds) {
				op.RoundID = update.NewRounds[i]
			}
		}
	}
	return op
}

// FindAlignment scans the local log for an active op functionally
// identical to candidate, returning the OpUpdate needed to rewrite
// references to candidate's derived id onto the local one, if any.
func FindAlignment(local *oplog.OpLog, candidate oplog.FullOp) (OpUpdate, bool) {
	for _, op := range local.ActiveOps() {
		if op.ID == candidate.ID {
			continue
		}
		if sameOperationPayload(op.Op, candidate.Op) {
			switch candidate.Op.Kind {
			case model.OpRegisterGuest, model.OpRegisterPlayer, model.OpAdminRegisterPlayer:
				return OpUpdate{
					Kind:      OpUpdatePlayerID,
					OldPlayer: model.DerivePlayerID(candidate.Salt, candidate.Op),
					NewPlayer: model.DerivePlayerID(op.Salt, op.Op),
				}, true
			}
		}
	}
	return OpUpdate{}, false
}
