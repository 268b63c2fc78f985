package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"user-account-backend/internal/auth/handler"
	authservice "user-account-backend/internal/auth/service"
	"user-account-backend/internal/config"
	"user-account-backend/internal/db"
	"user-account-backend/internal/events"
	"user-account-backend/internal/mail"
	"user-account-backend/internal/security"
	"user-account-backend/internal/server"
	sessionhandler "user-account-backend/internal/session/handler"
	sessionrepo "user-account-backend/internal/session/repository"
	sessionservice "user-account-backend/internal/session/service"
	userhandler "user-account-backend/internal/user/handler"
	userrepo "user-account-backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider(cfg.AccessSecret, cfg.AccessTTL(), nil)
	links := security.NewLinkTokenCodec(cfg.EmailSecret, cfg.EmailTokenTTL(), cfg.ResetSecret, cfg.ResetTokenTTL(), nil)

	users := userrepo.NewPostgresRepository(conn)
	sessions := sessionservice.NewService(sessionrepo.NewPostgresRepository(conn))

	var notifier mail.Notifier
	if cfg.MailHost != "" {
		mailer, err := mail.NewMailer(mail.Config{
			Host:      cfg.MailHost,
			Port:      cfg.MailPort,
			Username:  cfg.MailUsername,
			Password:  cfg.MailPassword,
			From:      cfg.MailFrom,
			ClientURL: cfg.ClientURL,
		})
		if err != nil {
			log.Fatalf("mail: %v", err)
		}
		notifier = mailer
	} else {
		log.Println("MAIL_HOST not set; outgoing mail disabled")
	}

	var producer events.Producer
	if brokers := cfg.EventsKafkaBrokersList(); len(brokers) > 0 {
		kp, err := events.NewKafkaProducer(brokers, cfg.EventsKafkaTopic)
		if err != nil {
			log.Fatalf("events: %v", err)
		}
		defer kp.Close()
		producer = kp
	}

	auth := authservice.NewAuthService(users, sessions, notifier, producer, hasher, tokens, links, nil)

	router := server.NewRouter(tokens, server.Handlers{
		Auth:     handler.NewHandler(auth),
		Sessions: sessionhandler.NewHandler(sessions),
		Users:    userhandler.NewHandler(users),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
