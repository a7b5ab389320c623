package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/stake-plus/member-gov/src/govd/config"
	"github.com/stake-plus/member-gov/src/govd/engine"
)

func attachRoutes(r *gin.Engine, cfg config.Config, eng *engine.Engine, db *gorm.DB, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	authH := NewAuth(rdb, []byte(cfg.JWTSecret))
	propH := NewProposals(eng, rdb)
	voteH := NewVotes(eng)
	delH := NewDelegations(eng)
	adminH := NewAdmin(eng, db)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/challenge", authH.Challenge)
		v1.POST("/auth/verify", authH.Verify)

		secured := v1.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
		secured.POST("/proposals", propH.Create)
		secured.GET("/proposals", propH.List)
		secured.GET("/proposals/:id", propH.Get)
		secured.PUT("/proposals/:id", propH.Update)
		secured.POST("/proposals/:id/viewers", propH.AuthorizeViewer)
		secured.POST("/proposals/:id/submit", propH.Submit)
		secured.POST("/proposals/:id/sponsor", propH.Sponsor)
		secured.POST("/proposals/:id/cancel", propH.Cancel)
		secured.POST("/proposals/:id/finalize", propH.Finalize)
		secured.POST("/proposals/:id/execute", propH.Execute)
		secured.GET("/proposals/:id/tally", propH.Tally)
		secured.GET("/proposals/:id/audit", propH.Audit)
		secured.GET("/proposals/:id/sponsors", propH.SponsorList)
		secured.POST("/votes", voteH.Cast)
		secured.POST("/delegations", delH.Set)
		secured.DELETE("/delegations", delH.Remove)
	}

	admin := v1.Group("/admin")
	admin.Use(JWTMiddleware([]byte(cfg.JWTSecret)), AdminOnly(db))
	{
		admin.POST("/members", adminH.UpsertMember)
		admin.POST("/members/:addr/credits", adminH.SetCredits)
		admin.POST("/members/:addr/deactivate", adminH.Deactivate)
		admin.POST("/roleweights", adminH.SetRoleWeight)
	}
}
