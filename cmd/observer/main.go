package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cbodonnell/tileworld/pkg/client"
	"github.com/cbodonnell/tileworld/pkg/log"
	"github.com/cbodonnell/tileworld/pkg/queue"
	"github.com/cbodonnell/tileworld/pkg/version"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	serverURL := flag.String("server", client.DefaultServerURL, "World server URL")
	name := flag.String("name", "", "Name to join the world with (defaults to the world's player name)")
	logLevel := flag.String("log-level", "info", "Log level")
	logFile := flag.String("log-file", "observer.log", "File to write logs to")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	// the terminal belongs to the renderer
	out, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		panic(fmt.Sprintf("Failed to open log file: %v", err))
	}
	defer out.Close()
	log.SetDefaultLogger(log.New(out, parsedLogLevel))
	log.Info("Starting observer version %s", version.Get())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewAPIClient(client.NewAPIClientOptions{BaseURL: *serverURL})
	snapshots := queue.NewInMemoryQueue(8)
	stream := client.NewStream(client.NewStreamOptions{URL: api.StreamURL(), Snapshots: snapshots})
	if err := stream.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", *serverURL, err)
		os.Exit(1)
	}
	defer stream.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		panic(fmt.Sprintf("Failed to create screen: %v", err))
	}
	if err := screen.Init(); err != nil {
		panic(fmt.Sprintf("Failed to initialize screen: %v", err))
	}
	defer screen.Fini()

	o := newObserver(api, stream, snapshots, screen, *name)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return stream.HandleMessages(ctx)
	})
	g.Go(func() error {
		stream.StartPinging(ctx)
		return nil
	})
	g.Go(func() error {
		return o.run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Observer stopped: %v\n", err)
		os.Exit(1)
	}
}
