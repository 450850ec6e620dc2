package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/policylens/internal/application"
	appai "github.com/bryanwahyu/policylens/internal/application/ai"
	appclauses "github.com/bryanwahyu/policylens/internal/application/clauses"
	appinsights "github.com/bryanwahyu/policylens/internal/application/insights"
	apppolicies "github.com/bryanwahyu/policylens/internal/application/policies"
	appsessions "github.com/bryanwahyu/policylens/internal/application/sessions"
	appusers "github.com/bryanwahyu/policylens/internal/application/users"
	"github.com/bryanwahyu/policylens/internal/config"
	domai "github.com/bryanwahyu/policylens/internal/domain/ai"
	"github.com/bryanwahyu/policylens/internal/infra/ai/openai"
	"github.com/bryanwahyu/policylens/internal/infra/auth"
	"github.com/bryanwahyu/policylens/internal/infra/db"
	"github.com/bryanwahyu/policylens/internal/infra/httpserver"
	"github.com/bryanwahyu/policylens/internal/infra/pdf"
	minioStore "github.com/bryanwahyu/policylens/internal/infra/storage"
	"github.com/bryanwahyu/policylens/internal/middleware"
)

func main() {
	// load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()
	clock := application.SystemClock{}

	// storage backend
	store, err := db.Open(ctx, cfg, clock)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer store.Close()

	// ai gateway; no key = mock mode
	var client domai.Client
	if cfg.AIEnabled() {
		c := openai.NewClient(cfg.AI.Provider, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL)
		log.Printf("ai provider=%s model=%s", cfg.AI.Provider, c.Model)
		client = c
	} else {
		log.Printf("ai provider=mock (no API key configured, serving canned results)")
	}
	gateway := appai.NewGateway(client, cfg.AITimeout())
	gateway.OnFallback = middleware.RecordAIFallback

	required := map[string]middleware.HealthChecker{"storage": store}
	optional := map[string]middleware.HealthChecker{}

	// optional object storage for exports
	policiesSvc := &apppolicies.Service{Repo: store, Clock: clock}
	if cfg.MinioEnabled() {
		objects, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		policiesSvc.Artifacts = objects
		optional["object_storage"] = objects
		log.Printf("analysis export enabled bucket=%s", cfg.Minio.BucketName)
	}

	// auth
	secret := cfg.Auth.SessionSecret
	if secret == "" {
		secret = randomSecret()
		log.Printf("auth: SESSION_SECRET not set, using a random one (sessions end on restart)")
	}
	var google *auth.Google
	if cfg.GoogleEnabled() {
		google = auth.NewGoogle(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret)
	} else {
		log.Printf("auth: google login disabled (GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set)")
	}

	handler := httpserver.NewRouter(httpserver.Deps{
		Users:    &appusers.Service{Repo: store, Clock: clock},
		Policies: policiesSvc,
		Clauses:  &appclauses.Service{Repo: store},
		Insights: &appinsights.Service{Repo: store, Policies: store},
		Sessions: &appsessions.Service{Repo: store, Clock: clock},
		AI:       gateway,
		PDF:      pdf.New(),
		Auth:     auth.NewManager(secret, cfg.Auth.SecureCookie),
		State:    auth.NewStateSigner(secret),
		Google:   google,
		Options: httpserver.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AdminKey:       cfg.Server.AdminKey,
			RateCapacity:   cfg.Server.RateLimit.Capacity,
			RateRefill:     cfg.Server.RateLimit.RefillPerSecond,
			UploadMaxBytes: cfg.Upload.MaxBytes,
			CallbackURL:    cfg.Auth.CallbackURL,
			RequiredHealth: required,
			OptionalHealth: optional,
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 60 * time.Second,
		// AI calls take up to ai.timeoutSeconds
		WriteTimeout: cfg.AITimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("random secret: %v", err)
	}
	return hex.EncodeToString(b)
}
