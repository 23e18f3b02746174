package main

import (
	"context"
	"log"
	"time"

	"golang-rehabtrack/config"
	controller "golang-rehabtrack/controllers"
	"golang-rehabtrack/database"
	"golang-rehabtrack/helpers"
	"golang-rehabtrack/inference"
	routes "golang-rehabtrack/routes"
)

func main() {
	cfg := config.LoadServer()
	ctx := context.Background()

	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY must be set")
	}

	var store database.Store
	switch cfg.Store {
	case "memory":
		log.Print("Using in-memory store; data is lost on restart")
		store = database.NewMemoryStore()
	default:
		client, err := database.DBInstance(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatalf("Error connecting to MongoDB: %v", err)
		}
		defer client.Disconnect(context.Background())

		mongoStore := database.NewMongoStore(client, cfg.MongoDatabase)
		indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := mongoStore.EnsureIndexes(indexCtx); err != nil {
			log.Fatalf("Error creating indexes: %v", err)
		}
		cancel()
		store = mongoStore
	}

	var videos helpers.VideoStorage
	if cfg.VideoBucket != "" {
		s3Storage, err := helpers.NewS3Storage(ctx, helpers.S3Options{
			Bucket:    cfg.VideoBucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Key:       cfg.S3Key,
			Secret:    cfg.S3Secret,
			PublicURL: cfg.VideoPublicURL,
		})
		if err != nil {
			log.Fatalf("Error creating S3 session: %v", err)
		}
		videos = s3Storage
	} else {
		diskStorage, err := helpers.NewDiskStorage(cfg.VideoDir, cfg.VideoPublicURL)
		if err != nil {
			log.Fatalf("Error preparing video dir: %v", err)
		}
		log.Printf("No VIDEO_BUCKET set; storing videos in %s", cfg.VideoDir)
		videos = diskStorage
	}

	var predictor inference.Predictor
	if cfg.InferenceURL != "" {
		predictor = inference.NewHTTPPredictor(cfg.InferenceURL)
	} else {
		log.Print("No INFERENCE_URL set; /predict/ will return 503")
	}

	tokens := helpers.NewTokenManager(cfg.SecretKey, cfg.TokenTTL)
	handler := controller.NewHandler(store, tokens, videos, predictor, cfg.MaxVideoBytes)

	router := routes.NewRouter(handler, cfg.CORSOrigins)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
