package data

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/stake-plus/member-gov/src/govd/types"
)

var allModels = []interface{}{
	&types.Member{},
	&types.Proposal{},
	&types.ProposalSponsor{},
	&types.Vote{},
	&types.Delegation{},
	&types.RoleWeight{},
	&types.ProposalViewer{},
	&types.AuditEvent{},
	&types.TreasuryAction{},
	&types.Setting{},
}

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}

// Migrate brings the schema up to date. On failure the schema is dropped and
// recreated; audit history survives only a clean migration.
func Migrate(db *gorm.DB) {
	err := db.AutoMigrate(allModels...)
	if err == nil {
		return
	}

	log.Printf("auto-migrate failed (%v) - dropping & recreating schema", err)
	_ = db.Migrator().DropTable(
		"settings", "treasury_actions", "audit_events", "proposal_viewers",
		"role_weights", "delegations", "votes", "proposal_sponsors",
		"proposals", "members",
	)
	if err := db.AutoMigrate(allModels...); err != nil {
		log.Fatalf("migrate after drop: %v", err)
	}
}
