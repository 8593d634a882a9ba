package manager

import (
	"time"

	"tourneysync/internal/model"
	"tourneysync/internal/oplog"
	"tourneysync/internal/syncproto"
)

// InitSync runs the server side of the sync protocol's opening message: it
// locates the common ancestor between sync.Ops and the local log, then
// iterates the foreign ops in order against a sandbox copy of the
// tournament, rewriting ids via the alignment pass as it goes. The first
// TournamentError freezes the attempt and is reported as a Conflict; full
// iteration commits the sandbox and extends the local log.
func (m *Manager) InitSync(sync syncproto.OpSync) (*syncproto.ServerOpLink, *syncproto.SyncError) {
	if sync.Owner != m.Log.Owner {
		return nil, syncproto.NewSyncError(syncproto.InvalidRequestWrongOwner)
	}
	if sync.Seed != m.Log.Seed {
		return nil, syncproto.NewSyncError(syncproto.InvalidRequestWrongSeed)
	}
	if len(sync.Ops) == 0 {
		return nil, syncproto.NewSyncError(syncproto.EmptySync)
	}

	foreign, err := m.foreignOps(sync.Ops)
	if err != nil {
		return nil, err
	}

	link, _ := m.applyForeign(foreign)
	return &link, nil
}

// foreignOps locates the common ancestor (sync.Ops[0]'s id in the local
// log) and returns the ops past that point. An empty local log, or a first
// id matching the local log's head, means every op in sync is foreign.
func (m *Manager) foreignOps(ops []oplog.FullOp) ([]oplog.FullOp, *syncproto.SyncError) {
	head := ops[0].ID
	if len(m.Log.Ops) == 0 {
		return ops, nil
	}
	if first, ok := m.Log.FirstID(); ok && first == head {
		return ops, nil
	}
	if _, ok := m.Log.GetSlice(head); ok {
		// head is the ancestor itself; everything strictly after it in
		// sync.Ops is foreign.
		return ops[1:], nil
	}
	return nil, syncproto.UnknownOperationError(head)
}

// applyForeign iterates foreign ops against a sandbox, aligning ids as
// matches are discovered, and returns either a Conflict (with everything
// from the failing op onward still to process) or a Completed reply. ok is
// false only on an internal invariant violation (never expected in
// practice); the caller still gets a best-effort reply.
func (m *Manager) applyForeign(foreign []oplog.FullOp) (syncproto.ServerOpLink, bool) {
	sandbox := cloneTournament(m.Tourn)
	agreed := make([]oplog.FullOp, 0, len(foreign))
	contributedLocal := false
	var updates []syncproto.OpUpdate

	for i, f := range foreign {
		op := f.Op
		salt := f.Salt

		if update, found := syncproto.FindAlignment(m.Log, f); found {
			// f is functionally identical to an op already active in the
			// local log (e.g. two independently-submitted guest
			// registrations with the same name): it must converge onto the
			// existing local id rather than create a second player, so it's
			// recorded as equivalent and never replayed against the
			// sandbox. Every later foreign op still needs its references to
			// f's derived id rewritten onto the local one, so the
			// substitution is accumulated for the rest of the loop.
			updates = append(updates, update)
			contributedLocal = true
			continue
		}

		for _, u := range updates {
			op = syncproto.AlignOp(op, u)
		}

		if _, err := sandbox.ApplyOp(salt, op); err != nil {
			toProcess := make([]oplog.FullOp, 0, len(foreign)-i)
			rest := foreign[i:]
			toProcess = append(toProcess, rest...)
			return syncproto.ServerOpLink{
				Kind: syncproto.ServerConflict,
				Conflict: &syncproto.SyncProcessor{
					Agreed:    oplog.OpSlice{Ops: append([]oplog.FullOp{}, agreed...)},
					ToProcess: oplog.OpSlice{Ops: toProcess},
				},
			}, true
		}
		agreed = append(agreed, oplog.FullOp{Op: op, Salt: salt, ID: f.ID})
	}

	m.commit(agreed)

	kind := syncproto.CompletionForeignOnly
	if contributedLocal {
		kind = syncproto.CompletionMixed
	}
	return syncproto.ServerOpLink{
		Kind: syncproto.ServerCompleted,
		Completed: &syncproto.SyncCompletion{
			Kind: kind,
			Ops:  agreed,
		},
	}, true
}

// commit installs a fully-applied foreign sequence as the new live
// tournament and advances the log/last-sync marker.
func (m *Manager) commit(agreed []oplog.FullOp) {
	if len(agreed) == 0 {
		return
	}
	applied := cloneTournament(m.Tourn)
	for _, f := range agreed {
		applied.ApplyOp(f.Salt, f.Op)
		m.Log.Append(f)
	}
	m.Tourn = applied
	m.LastSync = agreed[len(agreed)-1].ID
}

// HandleDecision resumes a chain after a Conflict reply: Pluck drops the
// offending op and retries from the next one, Purge discards the remainder
// and commits whatever was already agreed.
func (m *Manager) HandleDecision(decision syncproto.SyncDecision) syncproto.ServerOpLink {
	switch decision.Kind {
	case syncproto.DecisionPurged:
		if decision.Purged != nil {
			m.commit(decision.Purged.Ops)
		}
		return syncproto.ServerOpLink{
			Kind: syncproto.ServerCompleted,
			Completed: &syncproto.SyncCompletion{
				Kind: syncproto.CompletionForeignOnly,
				Ops:  nil,
			},
		}
	case syncproto.DecisionPlucked:
		if decision.Plucked == nil || len(decision.Plucked.ToProcess.Ops) == 0 {
			m.commit(decision.Plucked.Agreed.Ops)
			return syncproto.ServerOpLink{
				Kind: syncproto.ServerCompleted,
				Completed: &syncproto.SyncCompletion{
					Kind: syncproto.CompletionForeignOnly,
					Ops:  decision.Plucked.Agreed.Ops,
				},
			}
		}
		// The previous round's Agreed ops already validated cleanly
		// against the sandbox; commit them now so applyForeign resumes
		// ToProcess against the tournament state they produced, instead
		// of silently losing them.
		m.commit(decision.Plucked.Agreed.Ops)
		link, _ := m.applyForeign(decision.Plucked.ToProcess.Ops)
		return link
	}
	return syncproto.ServerOpLink{
		Kind:  syncproto.ServerError,
		Error: syncproto.NewSyncError(syncproto.NotInitialized),
	}
}

// Now is the single place the Manager consults the wall clock — salts for
// freshly-authored (non-replayed, non-foreign) ops are stamped here.
func Now() time.Time {
	return time.Now()
}
