// internal/api/routes.go
// Central route registration for all API endpoints

package api

import (
	"github.com/gin-gonic/gin"

	"tourneysync/internal/accounts"
	"tourneysync/internal/config"
	"tourneysync/internal/gathering"
	"tourneysync/internal/middleware"
	"tourneysync/internal/websocket"
)

// Deps bundles the dependencies route registration wires into handlers —
// the same role the teacher's services.Container played, narrowed to
// this resource model's four concerns: the tournament registry, account
// store, session issuance, and version/mode reporting.
type Deps struct {
	Hall      *gathering.Hall
	Persist   gathering.Persister
	Accounts  *accounts.Store
	Auth      *accounts.AuthService
	Sessions  *accounts.SessionStore
	SyncCfg   config.SyncConfig
	Version   config.Version
}

// RegisterAuthRoutes mounts account registration/login/logout.
func RegisterAuthRoutes(router *gin.RouterGroup, deps *Deps) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", HandleRegister(deps.Auth))
		auth.POST("/login", HandleLogin(deps.Auth))
		auth.POST("/logout", middleware.RequireSession(deps.Sessions), HandleLogout(deps.Sessions))
	}
}

// RegisterTournamentRoutes mounts the four /tournaments routes for
// the TournamentManager resource.
func RegisterTournamentRoutes(router *gin.RouterGroup, deps *Deps) {
	tournaments := router.Group("/tournaments")
	{
		tournaments.GET("/:id", HandleGetTournament(deps.Hall, deps.Persist))
		tournaments.GET("/list/:page", HandleListTournaments(deps.Persist))
		tournaments.POST("/", middleware.RequireSession(deps.Sessions), HandleImportTournament(deps.Persist))
		tournaments.GET("/subscribe/:id", websocket.HandleSubscribe(deps.Hall, deps.Sessions, deps.SyncCfg.HandshakeTimeout))
	}
}

// RegisterVersionRoute mounts GET /version.
func RegisterVersionRoute(router *gin.RouterGroup, deps *Deps) {
	router.GET("/version", HandleVersion(deps.Version))
}
