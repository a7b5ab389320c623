package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stake-plus/member-gov/src/govd/config"
	"github.com/stake-plus/member-gov/src/govd/data"
	"github.com/stake-plus/member-gov/src/govd/engine"
	"github.com/stake-plus/member-gov/src/govd/finalizer"
	"github.com/stake-plus/member-gov/src/govd/store"
	"github.com/stake-plus/member-gov/src/govd/webserver"
)

func main() {
	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "membergov:membergov@tcp(127.0.0.1:3306)/membergov"
	}
	db := data.MustMySQL(mysqlDSN)
	data.Migrate(db)

	cfg := config.Load(db)
	if cfg.JWTSecret == "" {
		log.Fatalf("JWT_SECRET is not set")
	}
	rdb := data.MustRedis(cfg.RedisURL)

	clock := data.BlockClock{GenesisUnix: cfg.GenesisUnix, BlockSeconds: cfg.BlockSeconds}
	st := store.New(db)
	eng := engine.New(st, st, st, clock, engine.Config{DefaultQuorum: cfg.DefaultQuorum})

	ctx, cancel := context.WithCancel(context.Background())

	go finalizer.Service(ctx, eng, rdb, time.Duration(cfg.SweepInterval)*time.Second)

	router := webserver.New(cfg, eng, db, rdb)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		var err error
		if cfg.EnableSSL {
			log.Printf("Starting HTTPS server on port %s", cfg.Port)
			err = httpSrv.ListenAndServeTLS(cfg.SSLCert, cfg.SSLKey)
		} else {
			log.Printf("Starting HTTP server on port %s", cfg.Port)
			err = httpSrv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	log.Printf("MemberGov API listening on %s (height %d)", cfg.Port, clock.Height())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
