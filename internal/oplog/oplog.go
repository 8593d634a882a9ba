// Package oplog implements the append-only operation history a
// TournamentManager replays to reconstruct its Tournament, plus the
// contiguous-slice operations the sync protocol needs to diff two logs.
package oplog

import (
	"time"

	"tourneysync/internal/model"
)

// FullOp is an Operation annotated with the salt it was applied under and
// the id derived from (salt, op). It is immutable once created.
type FullOp struct {
	Op   model.Operation
	Salt time.Time
	ID   model.OpID
}

// NewFullOp stamps salt once, at submission time, and derives the op's id
// from it — the only place entropy enters the system.
func NewFullOp(op model.Operation, salt time.Time) FullOp {
	return FullOp{
		Op:   op,
		Salt: salt,
		ID:   model.IDFromItem[model.OpTag](salt, op),
	}
}

// OpLog is the ordered, owner- and seed-tagged history of FullOps applied
// to one tournament.
type OpLog struct {
	Owner model.AccountID
	Seed  model.TournamentSeed
	Ops   []LoggedOp
}

// LoggedOp pairs a FullOp with whether it's still part of the active
// replay (a rollback marks a contiguous suffix inactive rather than
// deleting it, preserving history for audit/debugging).
type LoggedOp struct {
	FullOp FullOp
	Active bool
}

func NewOpLog(owner model.AccountID, seed model.TournamentSeed) *OpLog {
	return &OpLog{Owner: owner, Seed: seed}
}

// Append adds a FullOp to the log. It must only be called after the op has
// already been applied successfully to the tournament.
func (l *OpLog) Append(op FullOp) {
	l.Ops = append(l.Ops, LoggedOp{FullOp: op, Active: true})
}

// IndexOf returns the position of the op with the given id, or -1.
func (l *OpLog) IndexOf(id model.OpID) int {
	for i, o := range l.Ops {
		if o.FullOp.ID == id {
			return i
		}
	}
	return -1
}

func (l *OpLog) FirstID() (model.OpID, bool) {
	if len(l.Ops) == 0 {
		return model.OpID{}, false
	}
	return l.Ops[0].FullOp.ID, true
}

func (l *OpLog) LastID() (model.OpID, bool) {
	if len(l.Ops) == 0 {
		return model.OpID{}, false
	}
	return l.Ops[len(l.Ops)-1].FullOp.ID, true
}

// ActiveOps returns only the FullOps still marked active, in order — this is
// what ApplyOp replay iterates.
func (l *OpLog) ActiveOps() []FullOp {
	out := make([]FullOp, 0, len(l.Ops))
	for _, o := range l.Ops {
		if o.Active {
			out = append(out, o.FullOp)
		}
	}
	return out
}

// RollbackTo marks every op from id (inclusive) to the end as inactive. No
// rollback marker op is appended: the log keeps its length, and the
// rollback itself is not recorded as an entry in the history.
func (l *OpLog) RollbackTo(id model.OpID) bool {
	idx := l.IndexOf(id)
	if idx < 0 {
		return false
	}
	for i := idx; i < len(l.Ops); i++ {
		l.Ops[i].Active = false
	}
	return true
}

// OpSlice is a contiguous sub-sequence of an OpLog.
type OpSlice struct {
	Ops []FullOp
}

// GetSlice returns the suffix of the log starting at the op with the
// given id, or (OpSlice{}, false) if absent.
func (l *OpLog) GetSlice(from model.OpID) (OpSlice, bool) {
	active := l.ActiveOps()
	for i, op := range active {
		if op.ID == from {
			return OpSlice{Ops: append([]FullOp{}, active[i:]...)}, true
		}
	}
	return OpSlice{}, false
}

// SplitAt partitions the log's active ops into (before, from-id-onward).
// If the id is absent, the second half is empty and the first half is the
// entire log — callers distinguish this from a real split via GetSlice.
func (l *OpLog) SplitAt(id model.OpID) (OpSlice, OpSlice) {
	active := l.ActiveOps()
	for i, op := range active {
		if op.ID == id {
			return OpSlice{Ops: append([]FullOp{}, active[:i]...)},
				OpSlice{Ops: append([]FullOp{}, active[i:]...)}
		}
	}
	return OpSlice{Ops: active}, OpSlice{}
}

func (s OpSlice) FirstID() (model.OpID, bool) {
	if len(s.Ops) == 0 {
		return model.OpID{}, false
	}
	return s.Ops[0].ID, true
}

func (s OpSlice) LastID() (model.OpID, bool) {
	if len(s.Ops) == 0 {
		return model.OpID{}, false
	}
	return s.Ops[len(s.Ops)-1].ID, true
}

// Concat appends other's ops after this slice's ops, returning a new slice
// — used to prove the split/merge law: split_at(id).0 ++ split_at(id).1 ==
// original.
func (s OpSlice) Concat(other OpSlice) OpSlice {
	out := make([]FullOp, 0, len(s.Ops)+len(other.Ops))
	out = append(out, s.Ops...)
	out = append(out, other.Ops...)
	return OpSlice{Ops: out}
}
