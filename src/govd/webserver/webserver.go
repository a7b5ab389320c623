package webserver

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/stake-plus/member-gov/src/govd/config"
	"github.com/stake-plus/member-gov/src/govd/engine"
)

func New(cfg config.Config, eng *engine.Engine, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, cfg, eng, db, rdb)
	return g
}
