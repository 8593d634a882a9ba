package manager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourneysync/internal/model"
	"tourneysync/internal/oplog"
	"tourneysync/internal/syncproto"
)

// primedManager returns a Manager whose local log already has two active
// ops (Create, then a harmless admin toggle) so tests can name the second
// op as the sync's common ancestor — InitSync's foreignOps only strips
// sync.Ops[0] when it matches an ancestor strictly past the log's first
// entry; when it matches the log's very own first entry, the whole slice
// is treated as foreign instead (an empty local log's convention).
func primedManager(t *testing.T) (mgr *Manager, owner model.AccountID, seed model.TournamentSeed, ancestor model.OpID) {
	t.Helper()
	owner = newAccountID()
	seed = model.TournamentSeed{Name: "Sync Cup", Format: model.FormatSwiss}
	mgr = New(newTournamentID(), owner)

	_, err := mgr.ApplyOp(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), model.Operation{
		Kind:      model.OpCreate,
		Principal: owner,
		Seed:      seed,
	})
	require.NoError(t, err)

	_, err = mgr.ApplyOp(time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC), model.Operation{
		Kind:      model.OpUpdateReg,
		Principal: owner,
		RegOpen:   true,
	})
	require.NoError(t, err)

	ancestor, ok := mgr.Log.LastID()
	require.True(t, ok)
	return mgr, owner, seed, ancestor
}

// Scenario: the client submits ops the server has never seen, past a
// recognized common ancestor — a pure ForeignOnly completion that
// extends the local log in place.
func TestInitSyncForeignOnlyCompletion(t *testing.T) {
	mgr, owner, seed, ancestor := primedManager(t)

	foreignSalt := time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)
	foreignOp := model.Operation{Kind: model.OpStart, Principal: owner}
	full := oplog.NewFullOp(foreignOp, foreignSalt)

	sync := syncproto.OpSync{
		Owner: owner,
		Seed:  seed,
		Ops:   []oplog.FullOp{{ID: ancestor}, full},
	}

	reply, syncErr := mgr.InitSync(sync)
	require.Nil(t, syncErr)
	require.NotNil(t, reply)
	require.Equal(t, syncproto.ServerCompleted, reply.Kind)
	assert.Equal(t, syncproto.CompletionForeignOnly, reply.Completed.Kind)
	assert.Equal(t, model.Started, mgr.Tourn.Status)
	assert.Len(t, mgr.Log.ActiveOps(), 3)
}

// Scenario: two independently-derived guest registrations for the same
// name must converge on one identity instead of producing two players,
// and any later foreign op referencing the foreign-derived id must be
// rewritten onto the local one.
func TestInitSyncConvergesIndependentGuestRegistrations(t *testing.T) {
	mgr, owner, seed, ancestor := primedManager(t)

	localSalt := time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)
	localReg := model.Operation{Kind: model.OpRegisterGuest, Principal: owner, GuestName: "Alice"}
	localData, err := mgr.ApplyOp(localSalt, localReg)
	require.NoError(t, err)
	localPlayerID := localData.PlayerID

	foreignSalt := time.Date(2026, 1, 1, 0, 2, 0, 0, time.UTC)
	foreignReg := model.Operation{Kind: model.OpRegisterGuest, Principal: owner, GuestName: "Alice"}
	foreignRegFull := oplog.NewFullOp(foreignReg, foreignSalt)
	foreignPlayerID := model.DerivePlayerID(foreignSalt, foreignReg)
	require.NotEqual(t, localPlayerID, foreignPlayerID, "different salts must derive different ids")

	readyOp := model.Operation{Kind: model.OpReadyPlayer, Principal: owner, PlayerID: foreignPlayerID}
	readyFull := oplog.NewFullOp(readyOp, foreignSalt.Add(time.Second))

	sync := syncproto.OpSync{
		Owner: owner,
		Seed:  seed,
		Ops:   []oplog.FullOp{{ID: ancestor}, foreignRegFull, readyFull},
	}

	reply, syncErr := mgr.InitSync(sync)
	require.Nil(t, syncErr)
	require.NotNil(t, reply)
	require.Equal(t, syncproto.ServerCompleted, reply.Kind)
	assert.Equal(t, syncproto.CompletionMixed, reply.Completed.Kind)

	assert.Len(t, mgr.Tourn.Players, 1, "the foreign registration must converge onto the existing player, not create a second one")
	local, ok := mgr.Tourn.Players[localPlayerID]
	require.True(t, ok)
	assert.True(t, local.CheckedIn, "the ready op must have been rewritten onto the local player id and applied")
}

func TestInitSyncRejectsWrongOwner(t *testing.T) {
	_, _, seed, ancestor := primedManager(t)
	mgr2, _, _, _ := primedManager(t)
	sync := syncproto.OpSync{
		Owner: newAccountID(),
		Seed:  seed,
		Ops:   []oplog.FullOp{{ID: ancestor}},
	}

	_, syncErr := mgr2.InitSync(sync)
	require.NotNil(t, syncErr)
	assert.Equal(t, syncproto.InvalidRequestWrongOwner, syncErr.Kind)
}

func TestInitSyncRejectsWrongSeed(t *testing.T) {
	mgr, owner, _, ancestor := primedManager(t)
	sync := syncproto.OpSync{
		Owner: owner,
		Seed:  model.TournamentSeed{Name: "Different", Format: model.FormatFluid},
		Ops:   []oplog.FullOp{{ID: ancestor}},
	}

	_, syncErr := mgr.InitSync(sync)
	require.NotNil(t, syncErr)
	assert.Equal(t, syncproto.InvalidRequestWrongSeed, syncErr.Kind)
}

func TestInitSyncRejectsEmptySync(t *testing.T) {
	mgr, owner, seed, _ := primedManager(t)
	_, syncErr := mgr.InitSync(syncproto.OpSync{Owner: owner, Seed: seed})
	require.NotNil(t, syncErr)
	assert.Equal(t, syncproto.EmptySync, syncErr.Kind)
}

func TestInitSyncRejectsUnknownAncestor(t *testing.T) {
	mgr, owner, seed, _ := primedManager(t)
	unknown := model.IDFromItem[model.OpTag](time.Now().Add(time.Hour), model.Operation{})
	sync := syncproto.OpSync{
		Owner: owner,
		Seed:  seed,
		Ops:   []oplog.FullOp{{ID: unknown}},
	}

	_, syncErr := mgr.InitSync(sync)
	require.NotNil(t, syncErr)
	assert.Equal(t, syncproto.UnknownOperation, syncErr.Kind)
}

// Scenario: a foreign op that fails against the sandbox produces a
// Conflict carrying everything from the failing op onward, and must
// leave the live tournament/log completely untouched until a decision
// resolves the chain.
func TestInitSyncConflictLeavesLiveStateUntouched(t *testing.T) {
	mgr, owner, seed, ancestor := primedManager(t)

	base := time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)
	okOp := oplog.NewFullOp(model.Operation{Kind: model.OpStart, Principal: owner}, base)
	// OpStart a second time is illegal once already Started.
	badOp := oplog.NewFullOp(model.Operation{Kind: model.OpStart, Principal: owner}, base.Add(time.Second))

	sync := syncproto.OpSync{
		Owner: owner,
		Seed:  seed,
		Ops:   []oplog.FullOp{{ID: ancestor}, okOp, badOp},
	}

	reply, syncErr := mgr.InitSync(sync)
	require.Nil(t, syncErr)
	require.Equal(t, syncproto.ServerConflict, reply.Kind)
	require.NotNil(t, reply.Conflict)
	assert.Len(t, reply.Conflict.Agreed.Ops, 1)
	assert.Len(t, reply.Conflict.ToProcess.Ops, 1)

	// Nothing committed yet: the live tournament must still be in its
	// pre-sync state, and the log must not have grown.
	assert.Equal(t, model.Planned, mgr.Tourn.Status)
	assert.Len(t, mgr.Log.ActiveOps(), 2)
}

// Scenario: resolving a Conflict with Purge commits only what was
// already agreed and drops the remainder.
func TestHandleDecisionPurgeCommitsAgreedOnly(t *testing.T) {
	mgr, owner, seed, ancestor := primedManager(t)
	base := time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)
	okOp := oplog.NewFullOp(model.Operation{Kind: model.OpStart, Principal: owner}, base)
	badOp := oplog.NewFullOp(model.Operation{Kind: model.OpStart, Principal: owner}, base.Add(time.Second))

	reply, syncErr := mgr.InitSync(syncproto.OpSync{
		Owner: owner, Seed: seed,
		Ops: []oplog.FullOp{{ID: ancestor}, okOp, badOp},
	})
	require.Nil(t, syncErr)
	require.Equal(t, syncproto.ServerConflict, reply.Kind)

	decision := syncproto.SyncDecision{
		Kind:   syncproto.DecisionPurged,
		Purged: &reply.Conflict.Agreed,
	}
	final := mgr.HandleDecision(decision)

	assert.Equal(t, syncproto.ServerCompleted, final.Kind)
	assert.Equal(t, model.Started, mgr.Tourn.Status)
	assert.Len(t, mgr.Log.ActiveOps(), 3)
}

// Scenario: resolving a Conflict with Pluck drops only the offending op
// and resumes processing the rest of the chain.
func TestHandleDecisionPluckSkipsOffendingOp(t *testing.T) {
	mgr, owner, seed, ancestor := primedManager(t)
	base := time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)
	okOp := oplog.NewFullOp(model.Operation{Kind: model.OpStart, Principal: owner}, base)
	// Offending: OpStart again (illegal once Started).
	badOp := oplog.NewFullOp(model.Operation{Kind: model.OpStart, Principal: owner}, base.Add(time.Second))
	// Trailing op that is legal once the offending one is plucked away.
	trailingOp := oplog.NewFullOp(model.Operation{Kind: model.OpFreeze, Principal: owner}, base.Add(2*time.Second))

	reply, syncErr := mgr.InitSync(syncproto.OpSync{
		Owner: owner, Seed: seed,
		Ops: []oplog.FullOp{{ID: ancestor}, okOp, badOp, trailingOp},
	})
	require.Nil(t, syncErr)
	require.Equal(t, syncproto.ServerConflict, reply.Kind)

	plucked := reply.Conflict.Pluck()
	decision := syncproto.SyncDecision{Kind: syncproto.DecisionPlucked, Plucked: &plucked}
	final := mgr.HandleDecision(decision)

	require.Equal(t, syncproto.ServerCompleted, final.Kind)
	assert.Equal(t, model.Frozen, mgr.Tourn.Status)
	assert.Len(t, mgr.Log.ActiveOps(), 4) // create, reg-toggle, start, freeze
}
