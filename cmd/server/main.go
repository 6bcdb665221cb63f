package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"duo-chat/auth"
	"duo-chat/infrastructure/api"
	"duo-chat/infrastructure/ws"
	"duo-chat/internal"
	"duo-chat/moderation"
	"duo-chat/observability"
	"duo-chat/repositories"
	"duo-chat/runtime"
	"duo-chat/runtime/workers"
	"duo-chat/services"
	"duo-chat/storage"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper. Its only responsibility is
	// to call run() and hand the exit code to the OS.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle and
// centralizes error reporting. Keeping the logic out of main ensures the
// deferred cleanups (database close, index close) execute before exit.
func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + Bluge index + uploads dir)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	blobs, err := storage.NewDiskBlobStore(config.UploadsDir, logger)
	if err != nil {
		return exitRuntime, err
	}

	// 3. Moderation
	censoredWords, err := loadCensoredWords(config.CensoredWordsPath)
	if err != nil {
		return exitConfig, err
	}
	censor, err := moderation.NewCensor(censoredWords, charReplacement)
	if err != nil {
		return exitConfig, fmt.Errorf("censor init failed: %w", err)
	}

	// 4. Core wiring
	monitor := observability.NewMonitor()
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewPresenceBroadcaster(logger, registry, monitor)

	messageRepository := repositories.NewMessageRepository(db, blugeWriter, logger, config.LimitMessages)
	userRepository := repositories.NewUserRepository(db)

	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(userRepository, tokens)
	chatService := services.NewChatService(logger, registry, messageRepository, blobs, censor, monitor)

	wsServer := ws.NewServer(
		logger, registry, broadcaster, chatService, tokens, monitor,
		config.HeartbeatInterval, config.HeartbeatTimeout,
		config.ConnectionBufferSize,
	)
	restAPI := api.New(logger, authService, chatService, tokens, blobs.Dir())

	// 5. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Background workers under supervision
	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(
		workers.NewReporterWorker(logger, registry, monitor, config.ReportInterval),
		workers.NewBadgerGCWorker(logger, db, config.GCInterval),
	)
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	// 7. HTTP + websocket listener
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:    address,
		Handler: restAPI.Router(wsServer.Handle),
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Listening", "address", address)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Graceful shutdown: stop accepting, then drain workers.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Forced listener close", "err", err)
	}
	supervisor.Stop()
	<-supervisorDone

	return exitOK, nil
}

// loadCensoredWords reads the moderation word list, one word per line,
// ignoring blanks and '#' comments.
func loadCensoredWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("censored words: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		words = append(words, word)
	}
	return words, scanner.Err()
}
