// Package manager implements TournamentManager: the replay/authoring layer
// around a pure model.Tournament, its oplog.OpLog, and the syncproto merge
// algorithm that reconciles two independently-authored logs.
package manager

import (
	"maps"
	"slices"
	"time"

	"tourneysync/internal/model"
	"tourneysync/internal/oplog"
	"tourneysync/internal/syncproto"
)

// Manager owns one tournament's authoritative state: the replayed Tournament,
// the OpLog it was replayed from, and the sync-chain bookkeeping for merges
// against that log. Exactly one Manager exists per tournament at a time,
// held by the Gathering that owns it.
type Manager struct {
	Tourn    *model.Tournament
	Log      *oplog.OpLog
	LastSync model.OpID

	Messages *syncproto.MessageManager
}

// New builds a blank Manager; the first op applied to it MUST be OpCreate.
func New(id model.TournamentID, owner model.AccountID) *Manager {
	return &Manager{
		Tourn:    model.NewTournament(id),
		Log:      oplog.NewOpLog(owner, model.TournamentSeed{}),
		Messages: syncproto.NewMessageManager(0),
	}
}

// ApplyOp stamps op with salt, applies it to the live tournament, and on
// success appends it to the log. A rejected op never touches the log.
func (m *Manager) ApplyOp(salt time.Time, op model.Operation) (model.OpData, error) {
	data, err := m.Tourn.ApplyOp(salt, op)
	if err != nil {
		return model.OpData{}, err
	}
	full := oplog.NewFullOp(op, salt)
	m.Log.Append(full)
	if op.Kind == model.OpCreate {
		m.Log.Seed = op.Seed
	}
	return data, nil
}

// BulkResult reports how far a bulk application got.
type BulkResult struct {
	Applied []model.OpID
	Failed  *model.OpID
	Err     error
}

// BulkApplyOps applies ops to a sandbox clone of the tournament, one at a
// time; on the first failure the whole batch is discarded and the live
// tournament/log are left untouched (the "transactional" decision recorded
// in the design notes). On full success the sandbox becomes the live
// tournament and every op is appended to the log.
func (m *Manager) BulkApplyOps(salts []time.Time, ops []model.Operation) BulkResult {
	sandbox := cloneTournament(m.Tourn)
	fulls := make([]oplog.FullOp, 0, len(ops))
	for i, op := range ops {
		full := oplog.NewFullOp(op, salts[i])
		if _, err := sandbox.ApplyOp(salts[i], op); err != nil {
			return BulkResult{Failed: &full.ID, Err: err}
		}
		fulls = append(fulls, full)
	}
	m.Tourn = sandbox
	ids := make([]model.OpID, 0, len(fulls))
	for _, f := range fulls {
		m.Log.Append(f)
		ids = append(ids, f.ID)
	}
	return BulkResult{Applied: ids}
}

// Snapshot returns an independent copy of m safe to hand to a goroutine
// that outlives this call — e.g. serializing a response body while the
// owning Gathering goes on to process its next message. Messages is
// shared as-is: its own methods are already safe for concurrent read of
// the retained/seen sets it exposes.
func (m *Manager) Snapshot() *Manager {
	return &Manager{
		Tourn:    cloneTournament(m.Tourn),
		Log:      cloneOpLog(m.Log),
		LastSync: m.LastSync,
		Messages: m.Messages,
	}
}

func cloneOpLog(l *oplog.OpLog) *oplog.OpLog {
	clone := &oplog.OpLog{Owner: l.Owner, Seed: l.Seed}
	clone.Ops = append(clone.Ops, l.Ops...)
	return clone
}

// cloneTournament deep-copies a Tournament's mutable maps so a sandbox
// attempt can be discarded without touching the live state. Pairing/
// Scoring/General are plain structs (or a single pointer for Pairing), so
// they're copied by value/shallow-pointer-dup; the maps that matter for
// isolation (Judges, Admins, Players, Rounds) get their own backing storage,
// as do the maps and slices inside each Player, each Round and the Pairing.
func cloneTournament(t *model.Tournament) *model.Tournament {
	clone := *t
	clone.Judges = make(map[model.AccountID]struct{}, len(t.Judges))
	for k, v := range t.Judges {
		clone.Judges[k] = v
	}
	clone.Admins = make(map[model.AccountID]struct{}, len(t.Admins))
	for k, v := range t.Admins {
		clone.Admins[k] = v
	}
	clone.Players = make(map[model.PlayerID]*model.Player, len(t.Players))
	for k, v := range t.Players {
		p := *v
		p.Decks = maps.Clone(v.Decks)
		p.DeckOrder = slices.Clone(v.DeckOrder)
		clone.Players[k] = &p
	}
	clone.Rounds = make(map[model.RoundID]*model.Round, len(t.Rounds))
	for k, v := range t.Rounds {
		r := *v
		r.Players = maps.Clone(v.Players)
		r.Results = maps.Clone(v.Results)
		r.Confirmations = maps.Clone(v.Confirmations)
		clone.Rounds[k] = &r
	}
	pairing := *t.Pairing
	pairing.CheckIns = maps.Clone(t.Pairing.CheckIns)
	pairing.FluidQueue = slices.Clone(t.Pairing.FluidQueue)
	clone.Pairing = &pairing
	return &clone
}
