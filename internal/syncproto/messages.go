// Package syncproto implements the conversational op-log merge protocol:
// the message chain exchanged between a node initiating a sync (the
// "client" side of one chain) and the node holding the canonical log (the
// "server" side), plus the alignment algorithm that reconciles
// independently-derived ids for functionally identical operations.
package syncproto

import (
	"tourneysync/internal/model"
	"tourneysync/internal/oplog"
)

// OpSync is the client's opening bid: "here is everything I have past our
// last known common point."
type OpSync struct {
	Owner model.AccountID
	Seed  model.TournamentSeed
	Ops   []oplog.FullOp
}

// SyncProcessor holds the state of one in-progress merge attempt: ops
// already merge-applied (Agreed) plus the remaining foreign ops still
// awaiting a client decision (ToProcess).
type SyncProcessor struct {
	Agreed    oplog.OpSlice
	ToProcess oplog.OpSlice
}

// Pluck drops ToProcess's head op (keep it local only, don't propagate)
// and returns the reduced processor.
func (p SyncProcessor) Pluck() SyncProcessor {
	if len(p.ToProcess.Ops) == 0 {
		return p
	}
	return SyncProcessor{
		Agreed:    p.Agreed,
		ToProcess: oplog.OpSlice{Ops: p.ToProcess.Ops[1:]},
	}
}

// Purge discards ToProcess entirely, keeping only Agreed.
func (p SyncProcessor) Purge() SyncProcessor {
	return SyncProcessor{Agreed: p.Agreed, ToProcess: oplog.OpSlice{}}
}

// Blockage is the same shape as SyncProcessor under the name the sync
// state machine uses internally while deciding how to make progress.
// Its Pluck and Purge each strictly reduce len(ToProcess.Ops) whenever
// ToProcess is non-empty; on an empty ToProcess both return the processor
// unchanged.
type Blockage = SyncProcessor

// SyncDecisionKind tags which half of SyncDecision is populated.
type SyncDecisionKind int

const (
	DecisionPlucked SyncDecisionKind = iota
	DecisionPurged
)

// SyncDecision is the client's reply to a Conflict: either keep plucking
// (try to make more progress) or purge the remainder outright.
type SyncDecision struct {
	Kind    SyncDecisionKind
	Plucked *SyncProcessor
	Purged  *oplog.OpSlice
}

// SyncCompletionKind tags which half of SyncCompletion is populated.
type SyncCompletionKind int

const (
	CompletionForeignOnly SyncCompletionKind = iota
	CompletionMixed
)

// SyncCompletion is the server's success reply: either the client
// contributed every novel op (ForeignOnly) or both sides contributed and
// here is the merged tail (Mixed).
type SyncCompletion struct {
	Kind SyncCompletionKind
	Ops  []oplog.FullOp
}

// SyncErrorKind is the closed set of unrecoverable-for-this-chain errors.
type SyncErrorKind int

const (
	EmptySync SyncErrorKind = iota
	InvalidRequestWrongOwner
	InvalidRequestWrongSeed
	UnknownOperation
	TournUpdated
	AlreadyInitialized
	NotInitialized
	WrappedTournamentError
)

type SyncError struct {
	Kind      SyncErrorKind
	OpID      model.OpID
	Wrapped   *model.TournamentError
}

func NewSyncError(kind SyncErrorKind) *SyncError {
	return &SyncError{Kind: kind}
}

func WrapTournamentError(err *model.TournamentError) *SyncError {
	return &SyncError{Kind: WrappedTournamentError, Wrapped: err}
}

func UnknownOperationError(id model.OpID) *SyncError {
	return &SyncError{Kind: UnknownOperation, OpID: id}
}

var syncErrorNames = map[SyncErrorKind]string{
	EmptySync:                "EmptySync",
	InvalidRequestWrongOwner: "InvalidRequest.wrong_owner",
	InvalidRequestWrongSeed:  "InvalidRequest.wrong_seed",
	UnknownOperation:         "UnknownOperation",
	TournUpdated:             "TournUpdated",
	AlreadyInitialized:       "AlreadyInitialized",
	NotInitialized:           "NotInitialized",
	WrappedTournamentError:   "TournamentError",
}

func (e *SyncError) Error() string {
	if e.Kind == WrappedTournamentError && e.Wrapped != nil {
		return e.Wrapped.Error()
	}
	return syncErrorNames[e.Kind]
}

// ClientOpLinkKind tags which message a client sent within a chain.
type ClientOpLinkKind int

const (
	ClientInit ClientOpLinkKind = iota
	ClientDecision
	ClientTerminated
)

type ClientOpLink struct {
	Kind     ClientOpLinkKind
	Init     *OpSync
	Decision *SyncDecision
}

// ServerOpLinkKind tags which message the server replied with.
type ServerOpLinkKind int

const (
	ServerConflict ServerOpLinkKind = iota
	ServerCompleted
	ServerTerminatedSeen
	ServerError
)

type ServerOpLink struct {
	Kind          ServerOpLinkKind
	Conflict      *SyncProcessor
	Completed     *SyncCompletion
	AlreadyDone   bool
	Error         *SyncError
}

// ChainState is the per-chain conversation state named in the spec's
// state-machine diagram (Idle -> Awaiting -> Closed).
type ChainState int

const (
	ChainIdle ChainState = iota
	ChainAwaiting
	ChainClosed
)
