// ================== cmd/crimewatch/main.go ==================
//
// Demo consumer for the CrimeWatch client SDK: wires the backend clients
// from the environment and tails one of the live feeds until interrupted.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/communitysafe/crimewatch/internal/config"
	"github.com/communitysafe/crimewatch/internal/features/crimereports"
	"github.com/communitysafe/crimewatch/internal/features/missingpersons"
	"github.com/communitysafe/crimewatch/internal/features/tips"
	"github.com/communitysafe/crimewatch/internal/pkg/identity"
	"github.com/communitysafe/crimewatch/internal/pkg/logger"
	"github.com/communitysafe/crimewatch/internal/pkg/store"
	"github.com/communitysafe/crimewatch/internal/pkg/upload"
)

func main() {
	feedName := flag.String("feed", "crime", "feed to watch: crime, missing, tips")
	flag.Parse()

	// Load config
	cfg := config.Load()
	log := logger.New(logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to the record store
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to record store: %v", err)
	}
	defer closeStore()

	idClient, err := identity.NewFirebaseClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile, cfg.FirebaseAPIKey, log)
	if err != nil {
		log.Fatal("Failed to initialize identity client: %v", err)
	}

	uploader, err := upload.NewCloudinaryUploader(
		cfg.CloudinaryCloudName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
		cfg.CloudinaryUploadFolder,
	)
	if err != nil {
		log.Warn("Uploader unavailable, submissions disabled: %v", err)
	}

	go watchFeed(ctx, *feedName, st, uploader, idClient, log, cfg)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	cancel()
	log.Info("Exited")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.Backend == "mongo" {
		ms, err := store.NewMongoStore(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		return ms, func() { _ = ms.Close(context.Background()) }, nil
	}

	fs, err := store.NewFirestoreStore(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() { _ = fs.Close() }, nil
}

func watchFeed(ctx context.Context, name string, st store.Store, up upload.Uploader, id identity.Client, log *logger.Logger, cfg *config.Config) {
	switch name {
	case "missing":
		vm := missingpersons.New(st, up, id, log, cfg.RequestTimeout)
		for state := range vm.MissingPersons(ctx) {
			logState(log, "missing persons", len(state.Items), state.Loading, state.Err)
		}
	case "tips":
		vm := tips.New(st, up, id, log, cfg.RequestTimeout)
		for state := range vm.Tips(ctx) {
			logState(log, "community tips", len(state.Items), state.Loading, state.Err)
		}
	default:
		vm := crimereports.New(st, up, id, log, cfg.RequestTimeout)
		for state := range vm.Reports(ctx) {
			logState(log, "crime reports", len(state.Items), state.Loading, state.Err)
		}
	}
}

func logState(log *logger.Logger, feed string, n int, loading bool, err error) {
	switch {
	case err != nil:
		log.Error("%s: subscription error (showing %d stale items): %v", feed, n, err)
	case loading:
		log.Info("%s: loading...", feed)
	default:
		log.Info("%s: %d items", feed, n)
	}
}
