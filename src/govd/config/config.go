package config

import (
	"log"
	"os"
	"strconv"

	"gorm.io/gorm"

	"github.com/stake-plus/member-gov/src/govd/data"
)

type Config struct {
	MySQLDSN      string
	RedisURL      string
	JWTSecret     string
	Port          string
	SweepInterval int // seconds between finalizer sweeps
	BlockSeconds  int64
	GenesisUnix   int64
	DefaultQuorum uint64
	EnableSSL     bool
	SSLCert       string
	SSLKey        string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

// Load reads configuration from the environment, with operational values
// falling back to the settings table.
func Load(db *gorm.DB) Config {
	if err := data.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	defaultQuorum := data.GetSetting("default_quorum")
	if defaultQuorum == "" {
		defaultQuorum = getenv("DEFAULT_QUORUM", "10")
	}
	quorum, err := strconv.ParseUint(defaultQuorum, 10, 64)
	if err != nil {
		log.Fatalf("bad default quorum %q: %v", defaultQuorum, err)
	}

	sweep, _ := strconv.Atoi(getenv("SWEEP_INTERVAL", "30"))
	blockSecs, _ := strconv.ParseInt(getenv("BLOCK_SECONDS", "6"), 10, 64)
	genesis, _ := strconv.ParseInt(getenv("GENESIS_UNIX", "1735689600"), 10, 64)

	return Config{
		MySQLDSN:      getenv("MYSQL_DSN", "membergov:membergov@tcp(127.0.0.1:3306)/membergov"),
		RedisURL:      getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:     getenv("JWT_SECRET", ""),
		Port:          getenv("PORT", "8080"),
		SweepInterval: sweep,
		BlockSeconds:  blockSecs,
		GenesisUnix:   genesis,
		DefaultQuorum: quorum,
		EnableSSL:     os.Getenv("SSL_CERT") != "" && os.Getenv("SSL_KEY") != "",
		SSLCert:       os.Getenv("SSL_CERT"),
		SSLKey:        os.Getenv("SSL_KEY"),
	}
}
