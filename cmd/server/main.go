package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"presence-lab/cache"
	"presence-lab/gateway"
	"presence-lab/httpapi"
	"presence-lab/internal"
	"presence-lab/registry"
	"presence-lab/runtime"
	"presence-lab/server"
	"presence-lab/storage"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the servers and background workers.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Cache (Redis)
	// The cache is a soft dependency: presence snapshots and room counters
	// degrade gracefully when it is unreachable.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, presence cache degraded", "addr", config.RedisAddr, "error", err)
	}

	// 5. Collaborators
	messages := storage.NewMessageRepository(db, log)
	roomInfos := storage.NewRoomRepository(db, log)
	presence := cache.NewPresenceCache(redisClient, log)
	store := gateway.NewStore(messages, roomInfos, presence, log)

	// 6. Core engine
	peers := registry.NewPeers()
	rooms := registry.NewRooms()
	dispatcher := server.NewDispatcher(peers, rooms, store, log, config.HistoryLimit)
	wsServer := server.NewServer(dispatcher, config.Origins(), config.ConnectionBufferSize, config.MaxMessageSize, log)
	api := httpapi.NewAPI(roomInfos, messages, presence, log, config.ActiveRoomWindow)

	// 7. Supervision
	sup := runtime.NewSupervisor(log)
	sup.Add(
		runtime.NewHTTPWorker("websocket", config.WebSocketAddr, wsServer, log, config.ShutdownTimeout),
		runtime.NewHTTPWorker("http-api", config.HTTPAddr, api, log, config.ShutdownTimeout),
		runtime.NewStatsWorker(log, peers, rooms, store, config.StatsInterval),
	)

	log.Info("Starting presence server",
		"websocket_addr", config.WebSocketAddr,
		"http_addr", config.HTTPAddr,
		"history_limit", config.HistoryLimit,
	)
	sup.Run(ctx)

	log.Info("Shutdown complete")
	return exitOK, nil
}
