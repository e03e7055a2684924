package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"blogbot/api"
	"blogbot/config"
	"blogbot/covers"
	"blogbot/events"
	"blogbot/llm"
	"blogbot/news"
	"blogbot/orchestrator"
	"blogbot/publisher"
	"blogbot/store"
	"blogbot/topicindex"
	"blogbot/uniqueness"
)

// Exit codes distinguish pipeline outcomes for the scheduler wrapping us.
const (
	exitOK            = 0
	exitNoUniqueTopic = 2
	exitGeneration    = 3
	exitPublish       = 4
	exitNoCategories  = 5
	exitInterrupted   = 130
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	runOnce := flag.Bool("once", false, "run a single pipeline cycle and exit")
	serve := flag.Bool("serve", false, "start the HTTP API alongside the scheduler")
	flag.Parse()

	os.Exit(run(*runOnce, *serve))
}

// run exists so deferred cleanup executes before the process exit code is set.
func run(runOnce, serve bool) int {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, mongo, cleanup, err := buildPipeline(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}
	defer cleanup()

	if runOnce {
		return runPipeline(ctx, pipeline)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.CronSchedule, func() {
		code := runPipeline(ctx, pipeline)
		if code != exitOK {
			log.Printf("Scheduled run finished with exit code %d", code)
		}
	}); err != nil {
		log.Fatalf("Invalid cron schedule %q: %v", cfg.CronSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Printf("Scheduler started with schedule %q", cfg.CronSchedule)

	if serve {
		router := api.NewRouter(&api.Handlers{
			Store:  mongo,
			Engine: pipeline.Engine,
			Run:    runHandler(pipeline),
		})
		server := &http.Server{Addr: ":" + cfg.APIPort, Handler: router}
		go func() {
			log.Printf("Starting API server on :%s", cfg.APIPort)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("server error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")
	return exitInterrupted
}

// buildPipeline wires every collaborator from configuration. Optional pieces
// (covers, topic index, event producer) are skipped when unconfigured.
func buildPipeline(ctx context.Context, cfg config.Config) (*orchestrator.Pipeline, *store.Mongo, func(), error) {
	mongo, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, nil, nil, err
	}

	pipeline := &orchestrator.Pipeline{
		Store:          mongo,
		News:           news.NewFetcher(),
		Generator:      llm.NewCohere(cfg.CohereAPIKey, cfg.CohereModel),
		Publisher:      publisher.NewHashnode(cfg.HashnodeToken, cfg.HashnodePublicationID),
		Engine:         uniqueness.NewEngine(uniqueness.Config{Threshold: config.SimilarityThreshold}),
		CoverSourceURL: cfg.CoverImageURL,
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongo.Close(disconnectCtx)
	}

	if cfg.S3Bucket != "" {
		coverStorage, err := covers.New(ctx, covers.Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Prefix:       cfg.S3Prefix,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			log.Printf("Warning: failed to init cover storage: %v (covers disabled)", err)
		} else {
			pipeline.Covers = coverStorage
		}
	} else {
		log.Println("S3 not configured; publishing without covers")
	}

	if cfg.RedisAddr != "" {
		index, err := topicindex.New(topicindex.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      config.HistoryLookback,
		})
		if err != nil {
			log.Printf("Warning: failed to init topic index: %v (fast path disabled)", err)
		} else {
			pipeline.Index = index
			closers = append(closers, func() { _ = index.Close() })
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewProducer(events.ProducerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			log.Printf("Warning: failed to init event producer: %v (events disabled)", err)
		} else {
			pipeline.Emitter = producer
			closers = append(closers, func() { _ = producer.Close() })
		}
	}

	return pipeline, mongo, cleanup, nil
}

// runPipeline executes one cycle and maps the outcome to an exit code.
func runPipeline(ctx context.Context, pipeline *orchestrator.Pipeline) int {
	log.Println("=== Blog Pipeline Run ===")
	report, err := pipeline.RunOnce(ctx)
	if err != nil {
		return classifyRunError(err)
	}

	log.Println("=== Run Summary ===")
	log.Printf("Category:       %s", report.Category)
	log.Printf("Topic:          %s", report.Title)
	log.Printf("Topic attempts: %d", report.TopicAttempts)
	log.Printf("Published at:   %s", report.PostURL)
	log.Println("===================")
	return exitOK
}

func classifyRunError(err error) int {
	log.Printf("Pipeline run failed: %v", err)

	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	if errors.Is(err, store.ErrNoCategories) {
		return exitNoCategories
	}

	var noTopic *orchestrator.NoUniqueTopicError
	if errors.As(err, &noTopic) {
		return exitNoUniqueTopic
	}

	var stageErr *orchestrator.StageError
	if errors.As(err, &stageErr) {
		switch stageErr.Stage {
		case orchestrator.StagePublish:
			return exitPublish
		default:
			return exitGeneration
		}
	}
	return exitGeneration
}

// runHandler adapts RunOnce to the manual-trigger endpoint.
func runHandler(pipeline *orchestrator.Pipeline) func(c *gin.Context) {
	return func(c *gin.Context) {
		report, err := pipeline.RunOnce(c.Request.Context())
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, store.ErrNoCategories) {
				status = http.StatusConflict
			}
			var noTopic *orchestrator.NoUniqueTopicError
			if errors.As(err, &noTopic) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"category":       report.Category,
			"title":          report.Title,
			"topic_attempts": report.TopicAttempts,
			"url":            report.PostURL,
		})
	}
}
