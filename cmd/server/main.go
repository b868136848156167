package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"arena-fps/internal/api"
	"arena-fps/internal/config"
	"arena-fps/internal/game"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	_ "go.uber.org/automaxprocs"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  ARENA FPS - GAME SERVER")
	log.Println("🎮  Authoritative state over WS")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	serverCfg := appConfig.Server
	gameCfg := appConfig.Game
	obsCfg := appConfig.Observability

	// automaxprocs already clamped GOMAXPROCS to the container CPU limit.
	log.Printf("🎮 Config: env=%s, tick %d Hz, broadcast %d Hz, GOMAXPROCS=%d",
		serverCfg.Env, gameCfg.TickRate, gameCfg.BroadcastRate, runtime.GOMAXPROCS(0))

	match := game.NewMatch(game.MatchConfig{
		MaxPlayers:   gameCfg.MaxPlayers,
		TickRate:     gameCfg.TickRate,
		RespawnDelay: gameCfg.RespawnDelay,
	})
	log.Printf("🛡️ Resource limits: %d players, respawn after %s",
		gameCfg.MaxPlayers, gameCfg.RespawnDelay)

	if obsCfg.EventLogPath != "" {
		if err := match.StartEventLog(obsCfg.EventLogPath); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", obsCfg.EventLogPath)
		}
	}

	if obsCfg.DebugPort > 0 {
		debugCfg := api.DebugConfig{
			Enabled:       true,
			ListenAddr:    fmt.Sprintf("127.0.0.1:%d", obsCfg.DebugPort),
			BasicAuthUser: obsCfg.DebugUser,
			BasicAuthPass: obsCfg.DebugPass,
		}
		if err := api.StartDebugServer(debugCfg, match); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	server := api.NewServer(match, api.Options{
		BroadcastRate:  gameCfg.BroadcastRate,
		CORSOrigins:    serverCfg.CORSOrigins,
		MaxPlayers:     gameCfg.MaxPlayers,
		DisableLogging: serverCfg.IsProduction(),
		Verbose:        !serverCfg.IsProduction(),
	})

	// Prometheus hooks ride the match callbacks so the game package stays
	// free of metrics imports.
	match.SetCallbacks(game.Callbacks{
		OnTick: api.RecordTick,
		OnShot: api.RecordShot,
		OnKill: func(killerID, victimID string) { api.RecordKill() },
	})

	match.Start()
	log.Println("✅ Match loop started")

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", serverCfg.Port)
		if serverCfg.UseTLS() {
			errCh <- server.StartTLS(addr, serverCfg.TLSCertFile, serverCfg.TLSKeyFile)
			return
		}
		errCh <- server.Start(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ %+v", errors.Wrap(err, "server failed"))
		}
	case sig := <-quit:
		log.Printf("🛑 Received %s, shutting down...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Shutdown incomplete: %v", err)
	}

	match.Stop()
	match.StopEventLog()
	log.Println("👋 Goodbye!")
}
