package gathering

import (
	"context"
	"time"

	"tourneysync/internal/manager"
	"tourneysync/internal/model"
	"tourneysync/internal/oplog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Persister is the contract an idle Gathering uses to durably park its
// manager and a GatheringHall miss uses to reload one. Idempotent upsert
// keyed by tournament id, matching the design notes' resource contract.
type Persister interface {
	Save(ctx context.Context, id model.TournamentID, mgr *manager.Manager) error
	Load(ctx context.Context, id model.TournamentID) (*manager.Manager, bool, error)

	// List returns newest-first tournament summaries, one page at a time.
	List(ctx context.Context, page, pageSize int) ([]Summary, error)

	// Import inserts mgr under id if absent. Returns false without error
	// if id already exists, matching the external-interfaces import
	// route's "true on import, false if the id already exists" contract.
	Import(ctx context.Context, id model.TournamentID, mgr *manager.Manager) (bool, error)
}

// Summary is the reduced view `GET /tournaments/list/:page` returns —
// cheap enough to serve without replaying a tournament's full log.
type Summary struct {
	ID          string `bson:"_id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Format      string `bson:"format" json:"format"`
	Status      string `bson:"status" json:"status"`
	PlayerCount int    `bson:"player_count" json:"player_count"`
	RoundCount  int    `bson:"round_count" json:"round_count"`
}

// snapshotDoc is the document shape stored per tournament: the manager's
// owner/seed/op history flattened to BSON, since model.Tournament itself is
// always rebuilt by replaying Log rather than stored directly — the
// document is the log, not a cache of the derived state.
type snapshotDoc struct {
	ID        string               `bson:"_id"`
	Owner     string               `bson:"owner"`
	Seed      model.TournamentSeed `bson:"seed"`
	Ops       []loggedOpDoc        `bson:"ops"`
	CreatedAt time.Time            `bson:"created_at"`

	// Denormalized summary fields, refreshed on every Save, so List can
	// page without replaying every tournament's log.
	Name        string `bson:"name"`
	Format      string `bson:"format"`
	Status      string `bson:"status"`
	PlayerCount int    `bson:"player_count"`
	RoundCount  int    `bson:"round_count"`
}

type loggedOpDoc struct {
	Op     model.Operation `bson:"op"`
	Salt   time.Time       `bson:"salt"`
	ID     string          `bson:"id"`
	Active bool            `bson:"active"`
}

// MongoPersister stores one document per tournament in a single collection,
// grounded on the teacher's AnalyticsService (services/other_services.go),
// which is the pack's only component that talks to *mongo.Database
// directly rather than through MySQL repositories.
type MongoPersister struct {
	coll *mongo.Collection
}

func NewMongoPersister(db *mongo.Database) *MongoPersister {
	return &MongoPersister{coll: db.Collection("tournament_gatherings")}
}

func (p *MongoPersister) Save(ctx context.Context, id model.TournamentID, mgr *manager.Manager) error {
	doc := toDoc(id, mgr)
	update := bson.M{
		"$set": bson.M{
			"owner":        doc.Owner,
			"seed":         doc.Seed,
			"ops":          doc.Ops,
			"name":         doc.Name,
			"format":       doc.Format,
			"status":       doc.Status,
			"player_count": doc.PlayerCount,
			"round_count":  doc.RoundCount,
		},
		"$setOnInsert": bson.M{"created_at": time.Now()},
	}
	opts := options.Update().SetUpsert(true)
	_, err := p.coll.UpdateOne(ctx, bson.M{"_id": doc.ID}, update, opts)
	return err
}

// Import inserts doc(id, mgr) only if id is not already present —
// InsertOne's duplicate-key error is the absent/present signal rather
// than a failure.
func (p *MongoPersister) Import(ctx context.Context, id model.TournamentID, mgr *manager.Manager) (bool, error) {
	doc := toDoc(id, mgr)
	doc.CreatedAt = time.Now()
	_, err := p.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *MongoPersister) List(ctx context.Context, page, pageSize int) ([]Summary, error) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(page * pageSize)).
		SetLimit(int64(pageSize)).
		SetProjection(bson.M{"name": 1, "format": 1, "status": 1, "player_count": 1, "round_count": 1})
	cur, err := p.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []Summary
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toDoc(id model.TournamentID, mgr *manager.Manager) snapshotDoc {
	doc := snapshotDoc{
		ID:          id.String(),
		Owner:       mgr.Log.Owner.String(),
		Seed:        mgr.Log.Seed,
		Name:        mgr.Tourn.Name,
		Format:      mgr.Tourn.General.Format.String(),
		Status:      mgr.Tourn.Status.String(),
		PlayerCount: len(mgr.Tourn.Players),
		RoundCount:  len(mgr.Tourn.Rounds),
	}
	for _, lo := range mgr.Log.Ops {
		doc.Ops = append(doc.Ops, loggedOpDoc{
			Op:     lo.FullOp.Op,
			Salt:   lo.FullOp.Salt,
			ID:     lo.FullOp.ID.String(),
			Active: lo.Active,
		})
	}
	return doc
}

func (p *MongoPersister) Load(ctx context.Context, id model.TournamentID) (*manager.Manager, bool, error) {
	var doc snapshotDoc
	err := p.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	owner, err := parseAccountID(doc.Owner)
	if err != nil {
		return nil, false, err
	}
	mgr := manager.New(id, owner)
	mgr.Log.Seed = doc.Seed
	mgr.Tourn = model.NewTournament(id)
	for _, d := range doc.Ops {
		full := oplog.FullOp{Op: d.Op, Salt: d.Salt}
		full.ID = model.IDFromItem[model.OpTag](d.Salt, d.Op)
		mgr.Log.Ops = append(mgr.Log.Ops, oplog.LoggedOp{FullOp: full, Active: d.Active})
		if d.Active {
			mgr.Tourn.ApplyOp(d.Salt, d.Op)
		}
	}
	return mgr, true, nil
}

func parseAccountID(s string) (model.AccountID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return model.AccountID{}, err
	}
	return model.IDFrom[model.AccountTag](u), nil
}
