package model

import "time"

// TournamentStatus is the top-level lifecycle of a Tournament. Legal
// transitions: Planned -> Started -> (Frozen <-> Started) -> Ended, or
// Planned -> Cancelled (and Started/Frozen -> Cancelled).
type TournamentStatus int

const (
	Planned TournamentStatus = iota
	Started
	Frozen
	Ended
	Cancelled
)

func (s TournamentStatus) String() string {
	switch s {
	case Planned:
		return "Planned"
	case Started:
		return "Started"
	case Frozen:
		return "Frozen"
	case Ended:
		return "Ended"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// TournamentSeed is the immutable configuration a Tournament is created
// from; it is part of every OpLog's identity (sync validates seed equality
// before merging two logs).
type TournamentSeed struct {
	Name   string
	Format TournamentFormat
}

// Tournament is the pure, in-memory state machine. The only mutating
// entry point is ApplyOp; every field below is otherwise read-only to
// callers outside this package.
type Tournament struct {
	ID      TournamentID
	Seed    TournamentSeed
	Name    string
	Status  TournamentStatus
	RegOpen bool

	Judges map[AccountID]struct{}
	Admins map[AccountID]struct{}

	Players map[PlayerID]*Player
	Rounds  map[RoundID]*Round

	Pairing *PairingSystem
	Scoring StandardScoring
	General GeneralSettings

	nextMatchNumber int
}

// NewTournament builds the blank, pre-Create state a fresh TournamentManager
// starts from. The first op applied to it MUST be OpCreate.
func NewTournament(id TournamentID) *Tournament {
	return &Tournament{
		ID:      id,
		Judges:  make(map[AccountID]struct{}),
		Admins:  make(map[AccountID]struct{}),
		Players: make(map[PlayerID]*Player),
		Rounds:  make(map[RoundID]*Round),
		Pairing: NewPairingSystem(2, StyleSwiss),
		Scoring: DefaultStandardScoring(),
		General: DefaultGeneralSettings(),
	}
}

func (t *Tournament) isAdmin(principal AccountID) bool {
	_, ok := t.Admins[principal]
	return ok
}

func (t *Tournament) isJudge(principal AccountID) bool {
	if t.isAdmin(principal) {
		return true
	}
	_, ok := t.Judges[principal]
	return ok
}

func inStatus(status TournamentStatus, allowed ...TournamentStatus) bool {
	for _, a := range allowed {
		if status == a {
			return true
		}
	}
	return false
}

// requiredStatuses returns the statuses in which this op kind is legal.
// Every kind gets a non-empty list; kinds not named below are legal in
// Planned, Started and Frozen.
func requiredStatuses(kind OpKind) []TournamentStatus {
	switch kind {
	case OpCreate:
		return []TournamentStatus{Planned} // checked specially: only on a blank tournament
	case OpStart:
		return []TournamentStatus{Planned}
	case OpFreeze:
		return []TournamentStatus{Started}
	case OpThaw:
		return []TournamentStatus{Frozen}
	case OpEnd:
		return []TournamentStatus{Started, Frozen}
	case OpCancel:
		return []TournamentStatus{Planned, Started, Frozen}
	case OpCreateRound, OpCreatePairings, OpPairRound, OpGiveBye, OpRecordResult, OpConfirmResult,
		OpAdminRecordResult, OpAdminConfirmResult, OpAdminOverwriteResult, OpTimeExtension,
		OpRemoveRound, OpCut:
		return []TournamentStatus{Started, Frozen}
	default:
		return []TournamentStatus{Planned, Started, Frozen}
	}
}

// ApplyOp is the sole mutating entry point. salt is used only to derive
// new entity ids; no wall clock or global RNG is consulted here. The
// submitting principal travels inside op itself (op.Principal) rather than
// as a separate parameter, so the op alone fully determines both its id and
// its authorization outcome.
func (t *Tournament) ApplyOp(salt time.Time, op Operation) (OpData, error) {
	if op.Kind == OpCreate {
		return t.applyCreate(salt, op)
	}
	// Before OpCreate the tournament has no lifecycle status yet.
	if t.Name == "" {
		return OpData{}, NewError(IncorrectStatus)
	}

	allowed := requiredStatuses(op.Kind)
	if len(allowed) > 0 && !inStatus(t.Status, allowed...) {
		return OpData{}, NewError(IncorrectStatus)
	}

	switch op.Kind.RequiredRole() {
	case RoleAdmin:
		if !t.isAdmin(op.Principal) {
			return OpData{}, NewError(OfficialLookup)
		}
	case RoleJudge:
		if !t.isJudge(op.Principal) {
			return OpData{}, NewError(OfficialLookup)
		}
	}

	switch op.Kind {
	case OpRegisterPlayer, OpRegisterGuest, OpAdminRegisterPlayer:
		name := ""
		if op.Kind == OpRegisterGuest {
			name = op.GuestName
		} else if op.Account != nil {
			name = op.Account.DisplayName
			if name == "" {
				name = op.Account.UserName
			}
		}
		return t.registerPlayer(DerivePlayerID(salt, op), name)

	case OpAddDeck, OpAdminAddDeck:
		return t.addDeck(op.PlayerID, op.DeckName, op.DeckCards)
	case OpRemoveDeck, OpAdminRemoveDeck:
		return t.removeDeck(op.PlayerID, op.DeckName)
	case OpSetGamerTag:
		return t.setGamerTag(op.PlayerID, op.GamerTag)

	case OpReadyPlayer, OpAdminReadyPlayer:
		return t.setCheckedIn(op.PlayerID, true)
	case OpUnreadyPlayer, OpAdminUnreadyPlayer:
		return t.setCheckedIn(op.PlayerID, false)

	case OpDropSelf, OpAdminDropPlayer:
		return t.dropPlayer(op.PlayerID)

	case OpRecordResult, OpAdminRecordResult:
		return t.recordResult(op.RoundID, op.PlayerID, op.Wins, op.Draws)
	case OpConfirmResult:
		return t.confirmResult(op.RoundID, op.PlayerID)
	case OpAdminConfirmResult:
		return t.confirmResult(op.RoundID, op.PlayerID)
	case OpAdminOverwriteResult:
		return t.overwriteResult(op.RoundID, op.PlayerID, op.Wins, op.Draws)

	case OpTimeExtension:
		return t.extendTime(op.RoundID, op.Duration)

	case OpUpdateReg:
		t.RegOpen = op.RegOpen
		return OpData{}, nil
	case OpStart:
		t.Status = Started
		return OpData{}, nil
	case OpFreeze:
		t.Status = Frozen
		return OpData{}, nil
	case OpThaw:
		t.Status = Started
		return OpData{}, nil
	case OpEnd:
		t.Status = Ended
		return OpData{}, nil
	case OpCancel:
		t.Status = Cancelled
		return OpData{}, nil

	case OpRegisterJudge:
		t.Judges[op.Account.ID] = struct{}{}
		return OpData{}, nil
	case OpRegisterAdmin:
		t.Admins[op.Account.ID] = struct{}{}
		return OpData{}, nil

	case OpRemoveRound:
		return t.removeRound(op.RoundID)

	case OpUpdateTournSetting:
		return t.updateSetting(op.Setting)

	case OpGiveBye:
		return t.giveBye(salt, op.PlayerID)
	case OpCreateRound:
		return t.createRound(salt, op.Players)
	case OpCreatePairings:
		return t.createPairings()
	case OpPairRound:
		return t.pairRound(salt, op.Pairings)

	case OpCut:
		return t.cut(op.CutTo)
	case OpPruneDecks:
		return t.pruneDecks()
	case OpPrunePlayers:
		return t.prunePlayers()
	}

	return OpData{}, NewError(IncorrectStatus)
}

func (t *Tournament) applyCreate(salt time.Time, op Operation) (OpData, error) {
	if t.Name != "" {
		return OpData{}, NewError(IncorrectStatus)
	}
	t.Seed = op.Seed
	t.Name = op.Seed.Name
	t.Status = Planned
	t.RegOpen = true
	t.General.Format = op.Seed.Format
	if op.Seed.Format == FormatFluid {
		t.Pairing.Style = StyleFluid
	}
	if !op.Principal.IsNil() {
		t.Admins[op.Principal] = struct{}{}
	}
	return OpData{}, nil
}

func (t *Tournament) registerPlayer(id PlayerID, name string) (OpData, error) {
	if !inStatus(t.Status, Planned, Started) {
		return OpData{}, NewError(IncorrectStatus)
	}
	if !t.RegOpen {
		return OpData{}, NewError(RegClosed)
	}
	if _, exists := t.Players[id]; exists {
		return OpData{}, NewError(PlayerAlreadyRegistered)
	}
	t.Players[id] = NewPlayer(id, name)
	return OpData{Kind: DataRegisterPlayer, PlayerID: id}, nil
}

func (t *Tournament) lookupPlayer(id PlayerID) (*Player, error) {
	p, ok := t.Players[id]
	if !ok {
		return nil, NewError(PlayerNotFound)
	}
	return p, nil
}

func (t *Tournament) lookupRound(id RoundID) (*Round, error) {
	r, ok := t.Rounds[id]
	if !ok {
		return nil, NewError(RoundLookup)
	}
	return r, nil
}

func (t *Tournament) addDeck(pid PlayerID, name string, cards []string) (OpData, error) {
	p, err := t.lookupPlayer(pid)
	if err != nil {
		return OpData{}, err
	}
	p.AddDeck(name, cards)
	return OpData{}, nil
}

func (t *Tournament) removeDeck(pid PlayerID, name string) (OpData, error) {
	p, err := t.lookupPlayer(pid)
	if err != nil {
		return OpData{}, err
	}
	if !p.RemoveDeck(name) {
		return OpData{}, NewError(DeckLookup)
	}
	return OpData{}, nil
}

func (t *Tournament) setGamerTag(pid PlayerID, tag string) (OpData, error) {
	p, err := t.lookupPlayer(pid)
	if err != nil {
		return OpData{}, err
	}
	p.GamerTag = &tag
	return OpData{}, nil
}

func (t *Tournament) setCheckedIn(pid PlayerID, in bool) (OpData, error) {
	p, err := t.lookupPlayer(pid)
	if err != nil {
		return OpData{}, err
	}
	p.CheckedIn = in
	if in {
		t.Pairing.CheckIns[pid] = struct{}{}
	} else {
		delete(t.Pairing.CheckIns, pid)
	}
	return OpData{}, nil
}

func (t *Tournament) dropPlayer(pid PlayerID) (OpData, error) {
	p, err := t.lookupPlayer(pid)
	if err != nil {
		return OpData{}, err
	}
	p.Status = Dropped
	delete(t.Pairing.CheckIns, pid)
	return OpData{}, nil
}

func (t *Tournament) recordResult(rid RoundID, pid PlayerID, wins, draws int) (OpData, error) {
	r, err := t.lookupRound(rid)
	if err != nil {
		return OpData{}, err
	}
	if r.Status != RoundOpen {
		return OpData{}, NewError(IncorrectRoundStatus)
	}
	if !r.HasPlayer(pid) {
		return OpData{}, NewError(PlayerNotInRound)
	}
	r.Results[pid] = RoundResult{Wins: wins, Draws: draws}
	if len(r.Results) == len(r.Players) {
		r.Status = RoundUncertified
	}
	return OpData{}, nil
}

func (t *Tournament) confirmResult(rid RoundID, pid PlayerID) (OpData, error) {
	r, err := t.lookupRound(rid)
	if err != nil {
		return OpData{}, err
	}
	if r.Status != RoundUncertified {
		return OpData{}, NewError(IncorrectRoundStatus)
	}
	if !r.HasPlayer(pid) {
		return OpData{}, NewError(PlayerNotInRound)
	}
	r.Confirmations[pid] = struct{}{}
	if r.AllConfirmed() {
		r.Status = RoundCertified
	}
	return OpData{Kind: DataConfirmResult, ConfirmStatus: r.Status}, nil
}

func (t *Tournament) overwriteResult(rid RoundID, pid PlayerID, wins, draws int) (OpData, error) {
	r, err := t.lookupRound(rid)
	if err != nil {
		return OpData{}, err
	}
	if !r.HasPlayer(pid) {
		return OpData{}, NewError(PlayerNotInRound)
	}
	r.Results[pid] = RoundResult{Wins: wins, Draws: draws}
	return OpData{}, nil
}

func (t *Tournament) extendTime(rid RoundID, d time.Duration) (OpData, error) {
	r, err := t.lookupRound(rid)
	if err != nil {
		return OpData{}, err
	}
	r.Extension += d
	return OpData{}, nil
}

func (t *Tournament) removeRound(rid RoundID) (OpData, error) {
	r, err := t.lookupRound(rid)
	if err != nil {
		return OpData{}, err
	}
	if r.Status == RoundCertified {
		return OpData{}, NewError(RoundConfirmed)
	}
	r.Status = RoundDead
	return OpData{}, nil
}

func (t *Tournament) updateSetting(s Setting) (OpData, error) {
	if err := t.General.UpdateGeneral(s); err != nil {
		return OpData{}, err
	}
	if err := t.Pairing.UpdatePairing(s); err != nil {
		return OpData{}, err
	}
	if err := t.Scoring.UpdateScoring(s); err != nil {
		return OpData{}, err
	}
	return OpData{}, nil
}

func (t *Tournament) activeRounds() []*Round {
	var out []*Round
	for _, r := range t.Rounds {
		if r.IsActive() {
			out = append(out, r)
		}
	}
	return out
}

func (t *Tournament) allRounds() []*Round {
	out := make([]*Round, 0, len(t.Rounds))
	for _, r := range t.Rounds {
		out = append(out, r)
	}
	return out
}

func (t *Tournament) opponentsMap() OpponentsMap {
	om := make(OpponentsMap)
	for _, r := range t.Rounds {
		if r.IsBye {
			continue
		}
		for a := range r.Players {
			if om[a] == nil {
				om[a] = make(map[PlayerID]struct{})
			}
			for b := range r.Players {
				if a != b {
					om[a][b] = struct{}{}
				}
			}
		}
	}
	return om
}

func (t *Tournament) giveBye(salt time.Time, pid PlayerID) (OpData, error) {
	p, err := t.lookupPlayer(pid)
	if err != nil {
		return OpData{}, err
	}
	if !p.CanPlay() {
		return OpData{}, NewError(InvalidBye)
	}
	return t.createRound(salt, []PlayerID{pid})
}

// createRound materializes one pairing (list of distinct players) into a
// tracked Round, assigning it the next match number and a collision-free
// table number.
func (t *Tournament) createRound(salt time.Time, players []PlayerID) (OpData, error) {
	if len(players) != t.Pairing.MatchSize && len(players) != 1 {
		return OpData{}, NewError(IncorrectMatchSize)
	}
	seen := make(map[PlayerID]struct{}, len(players))
	for _, p := range players {
		if _, ok := t.Players[p]; !ok {
			return OpData{}, NewError(PlayerNotFound)
		}
		if _, dup := seen[p]; dup {
			return OpData{}, NewError(RepeatedPlayerInMatch)
		}
		seen[p] = struct{}{}
	}

	t.nextMatchNumber++
	table := 0
	if t.General.UseTableNumbers {
		table = NextTableNumber(t.allRounds(), t.General.StartingTableNumber)
	}
	id := IDFromItem[RoundTag](salt, players)
	round := NewRound(id, t.nextMatchNumber, table, players, t.General.RoundLength)
	t.Rounds[id] = round
	return OpData{Kind: DataPair, RoundIDs: []RoundID{id}}, nil
}

// createPairings runs the configured driver (Swiss or Fluid) against the
// current player pool and returns the proposed Pairings without yet
// creating Round entities; PairRound commits a chosen subset.
func (t *Tournament) createPairings() (OpData, error) {
	if len(t.activeRounds()) > 0 {
		return OpData{}, NewError(ActiveMatches)
	}

	candidates := make(map[PlayerID]struct{})
	for id, p := range t.Players {
		if !p.CanPlay() {
			continue
		}
		if t.Pairing.Style == StyleSwiss && t.General.RequireCheckIn {
			if _, ok := t.Pairing.CheckIns[id]; !ok {
				continue
			}
		}
		candidates[id] = struct{}{}
	}
	if len(candidates) < t.Pairing.MatchSize {
		return OpData{}, NewError(PlayerNotCheckedIn)
	}

	opponents := t.opponentsMap()
	var pairings Pairings
	switch t.Pairing.Style {
	case StyleFluid:
		pairings = t.Pairing.FluidPair(opponents)
	default:
		standings := t.Scoring.Score(t.playerSlice(), t.allRounds())
		pairings = t.Pairing.SwissPair(standings, candidates, opponents)
	}
	return OpData{Kind: DataCreatePairings, Pairings: pairings}, nil
}

func (t *Tournament) playerSlice() []*Player {
	out := make([]*Player, 0, len(t.Players))
	for _, p := range t.Players {
		out = append(out, p)
	}
	return out
}

// pairRound commits a Pairings result (typically the output of
// createPairings) into tracked Round entities, one per paired group.
func (t *Tournament) pairRound(salt time.Time, pairings Pairings) (OpData, error) {
	ids := make([]RoundID, 0, len(pairings.Paired))
	for _, group := range pairings.Paired {
		data, err := t.createRound(salt, group)
		if err != nil {
			return OpData{}, err
		}
		ids = append(ids, data.RoundIDs...)
	}
	return OpData{Kind: DataPair, RoundIDs: ids}, nil
}

// cut reduces the field to the top n players by standings. Decided
// behavior (spec Open Question): cut players keep their current status
// rather than being force-dropped. The only change is that every
// registered player outside the top n loses their check-in; they stay in
// the fluid queue and remain pairing candidates wherever check-in is not
// required.
func (t *Tournament) cut(n int) (OpData, error) {
	standings := t.Scoring.Score(t.playerSlice(), t.allRounds())
	if n >= len(standings.Entries) {
		return OpData{}, nil
	}
	keep := make(map[PlayerID]struct{}, n)
	for i := 0; i < n; i++ {
		keep[standings.Entries[i].Player] = struct{}{}
	}
	for id, p := range t.Players {
		if _, ok := keep[id]; !ok && p.Status == Registered {
			delete(t.Pairing.CheckIns, id)
		}
	}
	return OpData{}, nil
}

func (t *Tournament) pruneDecks() (OpData, error) {
	for _, p := range t.Players {
		if len(p.DeckOrder) > t.General.MaxDeckCount {
			extra := p.DeckOrder[t.General.MaxDeckCount:]
			for _, name := range extra {
				p.RemoveDeck(name)
			}
		}
	}
	return OpData{}, nil
}

func (t *Tournament) prunePlayers() (OpData, error) {
	for id, p := range t.Players {
		if p.Status == Registered && len(p.DeckOrder) < t.General.MinDeckCount {
			delete(t.Players, id)
		}
	}
	return OpData{}, nil
}
