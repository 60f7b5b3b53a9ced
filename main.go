package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dcode-github/property_listing_search/config"
	"github.com/dcode-github/property_listing_search/events"
	"github.com/dcode-github/property_listing_search/favorites"
	"github.com/dcode-github/property_listing_search/logger"
	"github.com/dcode-github/property_listing_search/metrics"
	"github.com/dcode-github/property_listing_search/repository"
	"github.com/dcode-github/property_listing_search/routes"
	"github.com/dcode-github/property_listing_search/search"
	"github.com/dcode-github/property_listing_search/utils"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type listingStore interface {
	search.ListingRepository
	favorites.ListingLookup
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml or its directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New(logger.Config{}).Fatal("loading config failed", zap.Error(err))
	}

	log := logger.New(cfg.Log)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mongoDB *mongo.Database
	if cfg.NeedsMongo() {
		client, err := config.ConnectDB(ctx, cfg.Mongo)
		if err != nil {
			log.Fatal("failed to connect to the database", zap.Error(err))
		}
		defer func() {
			if err := config.CloseDBConnection(context.Background(), client); err != nil {
				log.Error("closing MongoDB connection failed", zap.Error(err))
				return
			}
			log.Info("MongoDB connection closed")
		}()
		log.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))

		mongoDB = client.Database(cfg.Mongo.Database)
		if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
			log.Fatal("creating indexes failed", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = config.InitRedis(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		log.Info("connected to Redis", zap.String("address", cfg.Redis.Address))
	}

	listings, err := newListingStore(cfg, mongoDB)
	if err != nil {
		log.Fatal("building listing store failed", zap.Error(err))
	}

	var publisher favorites.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.ConnectTimeout, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	m := metrics.NewManager("listings")
	searchService := search.NewService(listings, log, m)
	savedService := favorites.NewService(
		newSavedStore(cfg, mongoDB, redisClient),
		listings,
		log,
		m,
		favorites.Options{
			Ledger:    newLedger(cfg, redisClient),
			Publisher: publisher,
			ClaimWait: cfg.Idempotency.ClaimWait,
		},
	)

	router := mux.NewRouter()
	routes.Routes(router, routes.Deps{
		Search:        searchService,
		Saved:         savedService,
		Validator:     utils.NewTokenValidator(cfg.JWT.Secret, cfg.JWT.Issuer),
		Log:           log,
		Metrics:       m,
		SearchTimeout: cfg.Search.RequestTimeout,
	})

	corsOptions := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        corsOptions.Handler(router),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("server running",
			zap.String("port", cfg.Server.Port),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("saved", cfg.Saved.Backend),
			zap.String("idempotency", cfg.Idempotency.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error during server shutdown", zap.Error(err))
		return
	}
	log.Info("server gracefully stopped")
}

func newListingStore(cfg *config.Config, db *mongo.Database) (listingStore, error) {
	if cfg.Storage.Driver == "mongo" {
		return repository.NewMongoListingRepository(db, cfg.Search.MaxResults), nil
	}
	if cfg.Storage.SeedFile != "" {
		repo, err := repository.LoadListingsFile(cfg.Storage.SeedFile)
		if err != nil {
			return nil, err
		}
		return repo.WithMaxResults(cfg.Search.MaxResults), nil
	}
	return repository.NewMemoryListingRepository().WithMaxResults(cfg.Search.MaxResults), nil
}

func newSavedStore(cfg *config.Config, db *mongo.Database, rdb *redis.Client) favorites.SavedListingStore {
	switch cfg.Saved.Backend {
	case "mongo":
		return repository.NewMongoSavedStore(db)
	case "redis":
		return repository.NewRedisSavedStore(rdb, cfg.Saved.KeyPrefix)
	}
	return repository.NewMemorySavedStore()
}

func newLedger(cfg *config.Config, rdb *redis.Client) favorites.Ledger {
	if cfg.Idempotency.Backend == "redis" {
		return repository.NewRedisLedger(rdb, cfg.Idempotency.TTL)
	}
	return repository.NewMemoryLedger(cfg.Idempotency.TTL)
}
