package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"holdemroom/internal/broadcast"
	"holdemroom/internal/gateway"
	"holdemroom/internal/lobby"
	"holdemroom/internal/store"
	"holdemroom/poker"
)

// CLI holds every option the server recognizes on the command line, each
// except Debug also readable from its upper-cased env-var equivalent via
// kong's env tag.
type CLI struct {
	ListenPort int    `kong:"env='LISTEN_PORT',default='3001',help='HTTP/WebSocket listen port'"`
	BrokerURL  string `kong:"env='BROKER_URL',help='Optional pub/sub broker URL for multi-node broadcast'"`

	SmallBlind    int64 `kong:"env='SMALL_BLIND',default='10',help='Small blind amount'"`
	BigBlind      int64 `kong:"env='BIG_BLIND',default='20',help='Big blind amount'"`
	StartingTiles int64 `kong:"env='STARTING_TILES',default='1000',help='Starting chip count per seat'"`

	TurnTimeoutMs     int64 `kong:"name='turn-timeout-ms',env='TURN_TIMEOUT_MS',default='30000',help='Per-turn timeout in milliseconds'"`
	RevealDelayMs     int64 `kong:"name='reveal-delay-ms',env='REVEAL_DELAY_MS',default='5000',help='REVEAL to CLEANUP delay in milliseconds'"`
	DisconnectGraceMs int64 `kong:"name='disconnect-grace-ms',env='DISCONNECT_GRACE_MS',default='60000',help='Disconnect grace window in milliseconds'"`

	Debug bool `kong:"help='Enable debug logging'"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("holdemroom-server"),
		kong.Description("Multi-room realtime Texas Hold'em server"),
		kong.UsageOnError(),
	)

	if cli.Debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg := poker.Config{
		MaxPlayers:      9,
		SmallBlind:      cli.SmallBlind,
		BigBlind:        cli.BigBlind,
		StartingTiles:   cli.StartingTiles,
		TurnTimeout:     time.Duration(cli.TurnTimeoutMs) * time.Millisecond,
		RevealDelay:     time.Duration(cli.RevealDelayMs) * time.Millisecond,
		DisconnectGrace: time.Duration(cli.DisconnectGraceMs) * time.Millisecond,
	}

	st, storeMode, err := store.NewFromEnv()
	kctx.FatalIfErrorf(err)
	log.Info("store adapter ready", "mode", storeMode)

	brokerCtx, cancelBroker := context.WithTimeout(context.Background(), 5*time.Second)
	fabric := broadcast.NewFromEnv(brokerCtx, cli.BrokerURL)
	cancelBroker()

	lby := lobby.New(cfg, st, fabric)
	gw := gateway.New(lby)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := ":" + strconv.Itoa(cli.ListenPort)
	srv := &http.Server{Addr: addr, Handler: withCORS(mux)}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "small_blind", cli.SmallBlind, "big_blind", cli.BigBlind,
			"starting_tiles", cli.StartingTiles, "broker_url", cli.BrokerURL)
		serverErr <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("server exited", "err", err)
		}
	case sig := <-sigCh:
		log.Info("received signal, shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
		lby.Stop()
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
