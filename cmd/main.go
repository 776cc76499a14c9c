package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"baatchit/api"
	"baatchit/imaging"
	"baatchit/internal"
	"baatchit/projection"
	"baatchit/repositories"
	"baatchit/runtime"
	"baatchit/runtime/workers"
	"baatchit/services"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the process lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	indexWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = indexWriter.Close()
	}()

	// 3. Repositories & Directory
	messageRepository := repositories.NewMessageRepository(db, log)
	userRepository := repositories.NewUserRepository(db)
	directoryIndex := repositories.NewDirectoryIndex(indexWriter, log)
	directory := services.NewDirectory(userRepository, directoryIndex, log)
	if err := directory.Refresh(); err != nil {
		return fmt.Errorf("directory load failed: %w", err)
	}

	// 4. Supervision & Orchestration
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(
		log, sup, registry,
		config.BufferSize, config.SinkTimeout, config.MetricInterval,
	)

	contactHub := projection.NewContactHub(messageRepository, directory, nil, log)
	orchestrator.Add(contactHub)

	// 5. Services
	codec := imaging.NewCodec(config.MaxImageWidth, config.MaxImageHeight, config.ImageQuality, log)
	chatService := services.NewChatService(messageRepository, directory, codec, orchestrator, contactHub, log)
	authService := services.NewAuthService(userRepository, directory, config.AuthTokenDuration)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Start the Engine
	if err = orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("orchestrator failed to start: %w", err)
	}

	// 8. HTTP API
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:    address,
		Handler: api.NewServer(log, authService, chatService, directory).Router(),
	}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 9. Debug surface
	stats := func() map[string]any {
		return map[string]any{
			"Users":    len(directory.Users()),
			"Sessions": registry.SessionCount(),
			"Time":     time.Now().Format(time.RFC822),
		}
	}
	internal.StartDebugServer(db, config.DebugPort, "/inspect", MessageMapper, stats)
	log.Info("Debug server started", "port", config.DebugPort)

	// 10. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 11. Final Cleanup
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(shutdownCtx)
	orchestrator.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// MessageMapper renders one stored document as an inspector row.
func MessageMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	message, err := repositories.DecodeDocument(val)
	if err != nil {
		return row
	}

	row.Kind = "TEXT"
	detail := message.Text
	if len(message.Attachments) > 0 {
		row.Kind = "IMAGE"
		detail = fmt.Sprintf("%s (%d bytes)", message.Attachments[0].Filename, message.Attachments[0].SizeBytes)
	}
	if message.IsDeleted {
		row.Kind = "DELETED"
	}
	if len(detail) > 60 {
		detail = detail[:60] + "..."
	}
	row.Detail = fmt.Sprintf("%s: %s", message.SenderName, detail)
	return row
}
