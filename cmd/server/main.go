package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/tileworld/assets"
	"github.com/cbodonnell/tileworld/pkg/config"
	"github.com/cbodonnell/tileworld/pkg/dialogue"
	"github.com/cbodonnell/tileworld/pkg/game"
	"github.com/cbodonnell/tileworld/pkg/log"
	"github.com/cbodonnell/tileworld/pkg/network"
	"github.com/cbodonnell/tileworld/pkg/queue"
	"github.com/cbodonnell/tileworld/pkg/state"
	"github.com/cbodonnell/tileworld/pkg/version"
	"github.com/cbodonnell/tileworld/pkg/workers"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	port := flag.Int("port", 8080, "HTTP port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	logFormat := flag.String("log-format", "json", "Log format (json or text)")
	worldPath := flag.String("world", "", "Path to a world definition (defaults to the embedded world)")
	assetsDir := flag.String("assets", "", "Directory holding the maps named by the world (defaults to the embedded assets)")
	tickInterval := flag.Duration("tick-interval", 16*time.Millisecond, "Simulation tick interval")
	broadcastInterval := flag.Duration("broadcast-interval", workers.DefaultBroadcastInterval, "Snapshot broadcast interval")
	seed := flag.Int64("seed", 0, "Random seed (0 picks one from the clock)")
	dialogueRate := flag.Float64("dialogue-rate", 1, "Language model requests per second (0 for unlimited)")
	tlsCert := flag.String("tls-cert", "", "TLS certificate file")
	tlsKey := flag.String("tls-key", "", "TLS key file")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, parsedLogLevel)
	logger.SetFormat(log.Format(*logFormat))
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())

	world, err := loadWorld(*worldPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load world: %v", err))
	}

	var assetFS fs.FS = assets.FS
	if *assetsDir != "" {
		assetFS = os.DirFS(*assetsDir)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	log.Info("Using seed %d", *seed)

	commandQueue := queue.NewInMemoryQueue(1024)
	stateManager := state.NewInMemoryStateManager()

	gameManager, err := game.NewGameManager(game.NewGameManagerOptions{
		World:        world,
		Assets:       assetFS,
		CommandQueue: commandQueue,
		StateManager: stateManager,
		TickInterval: *tickInterval,
		Rand:         rand.New(rand.NewSource(*seed)),
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create game manager: %v", err))
	}

	dialogueService := dialogue.NewService(dialogue.NewServiceOptions{
		Generator: newGenerator(world.Dialogue),
		Fallback:  dialogue.NewFallbackGenerator(rand.New(rand.NewSource(*seed))),
		RateLimit: rate.Limit(*dialogueRate),
		Burst:     1,
	})

	var tlsConfig *network.TLSConfig
	if *tlsCert != "" && *tlsKey != "" {
		tlsConfig = &network.TLSConfig{CertFile: *tlsCert, KeyFile: *tlsKey}
	}
	server := network.NewServer(network.NewServerOptions{
		Port:     *port,
		TLS:      tlsConfig,
		Commands: commandQueue,
		State:    stateManager,
		Maps:     gameManager,
		Dialogue: dialogueService,
	})

	broadcastWorker := workers.NewBroadcastWorker(workers.NewBroadcastWorkerOptions{
		StateManager: stateManager,
		Broadcaster:  server.Clients(),
		Interval:     *broadcastInterval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting game manager")
		return gameManager.Start(ctx)
	})
	g.Go(func() error {
		broadcastWorker.Start(ctx)
		return nil
	})
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error: %v", err)
		os.Exit(1)
	}
}

func loadWorld(path string) (*config.World, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

// newGenerator builds the language model client. Environment variables override the world file.
func newGenerator(cfg config.DialogueConfig) dialogue.Generator {
	opts := dialogue.NewOllamaGeneratorOptions{
		BaseURL: cfg.OllamaURL,
		Model:   cfg.Model,
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	if url := os.Getenv("OLLAMA_URL"); url != "" {
		opts.BaseURL = url
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		opts.Model = model
	}
	return dialogue.NewOllamaGenerator(opts)
}
