// internal/api/tournament_handlers.go
// Tournament resource handlers: fetch, list, and import — the three
// non-websocket HTTP routes the external interfaces define for the
// TournamentManager resource. (Mutation beyond import happens over the
// websocket subscription, via ProcessOp/sync — see websocket.HandleSubscribe.)

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tourneysync/internal/config"
	"tourneysync/internal/gathering"
	"tourneysync/internal/manager"
	"tourneysync/internal/model"
	"tourneysync/internal/oplog"
	"tourneysync/internal/utils"
)

// HandleGetTournament serves GET /tournaments/:id — the full
// TournamentManager, sourced from the live Gathering if one is running,
// else loaded straight from the Persister.
func HandleGetTournament(hall *gathering.Hall, persist gathering.Persister) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseTournamentID(c)
		if !ok {
			return
		}

		if g, ok := hall.GetGathering(c.Request.Context(), id); ok {
			c.JSON(http.StatusOK, g.GetManager())
			return
		}

		mgr, found, err := persist.Load(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tournament"})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "tournament not found"})
			return
		}
		c.JSON(http.StatusOK, mgr)
	}
}

// HandleListTournaments serves GET /tournaments/list/:page?page_size=N —
// newest-first summaries, defaulting to a page size of 20.
func HandleListTournaments(persist gathering.Persister) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.Param("page"))
		if err != nil || page < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
		pageSize := 20
		if raw := c.Query("page_size"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				pageSize = utils.MaxInt(1, utils.MinInt(n, 100))
			}
		}

		summaries, err := persist.List(c.Request.Context(), page, pageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tournaments"})
			return
		}
		c.JSON(http.StatusOK, summaries)
	}
}

// importRequest is the wire shape of POST /tournaments/: a full
// TournamentManager submitted for adoption as-is. Field names mirror
// manager.Manager's own (unprefixed) JSON encoding so a manager fetched
// from GET /tournaments/:id round-trips straight back through import.
type importRequest struct {
	Tourn *model.Tournament `json:"Tourn" binding:"required"`
	Log   struct {
		Owner model.AccountID      `json:"Owner"`
		Seed  model.TournamentSeed `json:"Seed"`
		Ops   []oplog.LoggedOp     `json:"Ops"`
	} `json:"Log"`
	LastSync model.OpID `json:"LastSync"`
}

// HandleImportTournament serves POST /tournaments/ — requires an
// authenticated session (middleware.RequireSession runs ahead of this
// handler) and reports true on import, false if the id already exists,
// per the external-interfaces contract.
func HandleImportTournament(persist gathering.Persister) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body importRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tournament manager payload"})
			return
		}

		log := oplog.NewOpLog(body.Log.Owner, body.Log.Seed)
		log.Ops = body.Log.Ops
		mgr := &manager.Manager{
			Tourn:    body.Tourn,
			Log:      log,
			LastSync: body.LastSync,
		}

		imported, err := persist.Import(c.Request.Context(), body.Tourn.ID, mgr)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to import tournament"})
			return
		}
		c.JSON(http.StatusOK, imported)
	}
}

// HandleVersion serves GET /version.
func HandleVersion(version config.Version) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": version.Version, "mode": version.Mode})
	}
}

func parseTournamentID(c *gin.Context) (model.TournamentID, bool) {
	raw, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tournament id"})
		return model.TournamentID{}, false
	}
	return model.IDFrom[model.TournamentTag](raw), true
}
