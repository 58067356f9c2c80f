package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/prepview/prepview/config"
	"github.com/prepview/prepview/internal/api/handlers"
	"github.com/prepview/prepview/internal/api/middleware"
	"github.com/prepview/prepview/internal/api/routes"
	"github.com/prepview/prepview/internal/avatar"
	"github.com/prepview/prepview/internal/cache"
	"github.com/prepview/prepview/internal/capture"
	"github.com/prepview/prepview/internal/logger"
	mongorepo "github.com/prepview/prepview/internal/repositories/mongo"
	pgrepo "github.com/prepview/prepview/internal/repositories/postgres"
	"github.com/prepview/prepview/internal/services"
	"github.com/prepview/prepview/internal/storage"
	"github.com/prepview/prepview/internal/workers"
)

func main() {
	_ = godotenv.Load()

	lg := logger.New()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	lg.Info("MongoDB connected")

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	lg.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	lg.Info("Redis connected")

	ctx := context.Background()

	mongoDBName := os.Getenv("MONGO_DB")
	if mongoDBName == "" {
		mongoDBName = "prepview"
	}
	mongoDB := config.MongoClient.Database(mongoDBName)

	// Repositories
	sessionRepo := mongorepo.NewSessionRepo(mongoDB)
	recordRepo := pgrepo.NewRecordRepo(config.PostgresDB)
	transcriptRepo := pgrepo.NewTranscriptRepo(config.PostgresDB)
	resumeRepo := pgrepo.NewResumeRepo(config.PostgresDB)

	// Providers
	avatarClient := avatar.NewClient(config.LoadAvatarConfig(), lg)
	if !avatarClient.Configured() {
		lg.Warn("TAVUS_API_KEY not set, sessions will use the mock conversation")
	}
	capability := capture.Detect(ctx, lg)

	var uploader storage.Uploader
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		gcs, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			lg.WithError(err).Warn("GCS init failed, resume upload disabled")
		} else {
			uploader = gcs
		}
	} else {
		lg.Warn("GCS_BUCKET not set, resume upload disabled")
	}

	redisCache := cache.NewRedisCache(config.RedisClient)
	events := services.NewSessionEvents(config.RedisClient, lg)

	// Services
	interviewSvc := services.NewInterviewService(avatarClient, capability, sessionRepo, recordRepo, events, redisCache, lg)
	historySvc := services.NewHistoryService(recordRepo, transcriptRepo, redisCache, lg)
	resumeSvc := services.NewResumeService(resumeRepo, uploader)

	// Archive workers
	archiver := &workers.ArchiverPool{
		Redis:       config.RedisClient,
		Transcripts: transcriptRepo,
		Logger:      lg,
	}
	if err := archiver.Start(ctx); err != nil {
		log.Fatalf("archiver init error: %v", err)
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(lg))

	routes.RegisterRoutes(r, routes.Deps{
		Interview: handlers.NewInterviewHandler(interviewSvc),
		History:   handlers.NewHistoryHandler(historySvc),
		Resume:    handlers.NewResumeHandler(resumeSvc),
		WS:        handlers.NewWSHandler(interviewSvc, events),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
