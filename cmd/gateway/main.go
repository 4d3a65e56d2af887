package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/mind-engage/studyhub/internal/api/http"
	"github.com/mind-engage/studyhub/internal/auth"
	authmw "github.com/mind-engage/studyhub/internal/auth/middleware"
	"github.com/mind-engage/studyhub/internal/chat"
	"github.com/mind-engage/studyhub/internal/config"
	"github.com/mind-engage/studyhub/internal/db"
	"github.com/mind-engage/studyhub/internal/events"
	"github.com/mind-engage/studyhub/internal/exam"
	"github.com/mind-engage/studyhub/internal/llm"
	"github.com/mind-engage/studyhub/internal/questionbank"
	"github.com/mind-engage/studyhub/internal/results"
	"github.com/mind-engage/studyhub/internal/scheduler"
	"github.com/mind-engage/studyhub/internal/storage"
	"github.com/mind-engage/studyhub/internal/study"
	"github.com/mind-engage/studyhub/internal/textbook"
)

func main() {
	cfg := config.Load()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	driver := db.Driver(cfg.DBDriver)
	dbh, err := db.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()
	x := db.X(dbh, driver)

	// --- Auth ---
	authSvc := authmw.NewAuthService(cfg.AuthHMACSecret, cfg.AccessTokenTTL)
	users := auth.NewUsers(x)
	if cfg.AdminEmail != "" {
		if err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
	}

	// --- Events ---
	pubs := events.Multi{events.NewEventLog(dbh, string(cfg.Mode))}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("amqp disabled: %v", err)
		} else {
			defer amqpPub.Close()
			pubs = append(pubs, amqpPub)
		}
	}

	// --- Question bank and exam engine ---
	bank := questionbank.NewSQLSource(dbh)
	if n, err := bank.EnsureSeed(ctx); err != nil {
		log.Printf("questionbank: seed database: %v", err)
	} else if n > 0 {
		log.Printf("questionbank: seeded %d built-in questions", n)
	}
	var sources []questionbank.Source
	if cfg.QuestionBankPath != "" {
		sources = append(sources, questionbank.FileSource{Path: cfg.QuestionBankPath})
	}
	pool := questionbank.Resolve(ctx, append(sources, bank)...)
	resultStore := results.NewStore(dbh)
	registry := exam.NewRegistry(cfg.ExamRetention)
	exams := exam.NewService(pool, exam.NewComposer(pool), exam.NewGrader(pool), registry, resultStore, pubs)

	// --- Blob storage ---
	var blobs storage.BlobStore
	switch cfg.BlobDriver {
	case "minio":
		blobs, err = storage.NewMinIOStore(ctx, storage.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
	default:
		blobs, err = storage.NewFSStore(cfg.BlobBasePath)
	}
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- LLM tutor ---
	llmClient := llm.NewClient(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.OllamaTimeout, nil)
	tutor := llm.NewTutor(llmClient, "")
	studyRepo := study.NewRepository(x)
	textbooks := textbook.NewService(blobs, textbook.Options{
		Prefix:    cfg.TextbooksPrefix,
		Materials: studyRepo,
		Content:   studyRepo,
		Tutor:     tutor,
		Bank:      bank,
		Model:     cfg.OllamaModel,
	})

	// --- Housekeeping ---
	sched := scheduler.New(registry, time.Minute)
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	defer sched.Stop()

	// --- Router ---
	h := api.NewRouter(api.Deps{
		Auth:      authSvc,
		DB:        dbh,
		Users:     users,
		Study:     studyRepo,
		Textbooks: textbooks,
		Exams:     exams,
		TopicOf:   exams.TopicOf,
		Results:   resultStore,
		AI: api.AI{
			Tutor:     tutor,
			Status:    llmClient,
			Chats:     chat.NewRepository(x),
			Content:   studyRepo,
			Materials: studyRepo,
			Model:     cfg.OllamaModel,
		},
		CORSOrigins: cfg.CORSOrigins(),
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Printf("listening on %s (mode=%s, db=%s, blobs=%s, questions=%d)",
			cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.BlobDriver, exams.QuestionCount())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
