// Package main our entry point.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/pressly/goose/v3"

	"github.com/wook219/pyeonjip-support/internal"
	"github.com/wook219/pyeonjip-support/internal/broker"
	"github.com/wook219/pyeonjip-support/internal/database"
	"github.com/wook219/pyeonjip-support/internal/handler"
	hb "github.com/wook219/pyeonjip-support/internal/hub"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %+v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:              "0.0.0.0:" + port,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	// Init NATS
	log.Println("Starting application...")
	log.Println("Initializing NATS connection...")

	var natsCredentials []nats.Option

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		log.Fatal("NATS_URL environment variable is not set")
	}

	if cred := os.Getenv("NATS_CRED"); cred != "" {
		natsCredentials = append(natsCredentials, nats.UserCredentials(cred))
	} else if user, pass := os.Getenv("NATS_USER"), os.Getenv("NATS_PASSWORD"); user != "" && pass != "" {
		natsCredentials = append(natsCredentials, nats.UserInfo(user, pass))
	}

	natsCredentials = append(natsCredentials, nats.Timeout(5*time.Second))

	conn, err := nats.Connect(natsURL, natsCredentials...)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		log.Fatalf("failed to create jetstream instance: %v", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     broker.StreamName,
		Subjects: []string{broker.SubjectAll},
		MaxBytes: 1 << 30, // 1GB max storage
	})
	if err != nil {
		log.Fatalf("failed to create/update stream: %v", err)
	}

	// Init DB
	log.Println("Initializing Database connection...")

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL environment variable is not set")
	}

	dbPool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("could not connect to the postgresql database: %v", err)
	}

	// Run pending migrations on boot.
	_ = goose.SetDialect("postgres")
	dbForGoose := stdlib.OpenDBFromPool(dbPool)
	if err := goose.Up(dbForGoose, "sql/schema"); err != nil {
		log.Fatalf("goose.Up() error = %+v", err)
	}
	if err := dbForGoose.Close(); err != nil {
		log.Printf("failed to close migration connection: %v", err)
	}

	dbQueries := database.New(dbPool)

	// hub.Run is our central hub that is always listening for client
	// related events.
	hub := hb.NewHub(js, dbQueries)
	go hub.Run(ctx, stream)

	r := chi.NewRouter()

	r.Post("/api/account/signup", handler.Signup(dbQueries))
	r.Post("/api/account/login", handler.Login(dbQueries))

	r.Group(func(r chi.Router) {
		r.Use(internal.Auth)

		r.Post("/api/chat/waiting-room", handler.CreateWaitingRoom(dbQueries))
		r.Get("/api/chat/chat-room/{roomID}", handler.GetRoom(dbQueries))
		r.Get("/api/chat/chat-room-list", handler.ListRoomsByUser(dbQueries))
		r.Post("/api/chat/close-room/{roomID}", handler.CloseRoom(dbQueries))
		r.Get("/api/chat/chat-message-history/{roomID}", handler.MessageHistory(dbQueries))
		r.Get("/ws", handler.ServeWs(hub, dbQueries))

		r.Group(func(r chi.Router) {
			r.Use(internal.AdminOnly)

			r.Get("/api/chat/waiting-rooms", handler.ListWaitingRooms(dbQueries))
			r.Post("/api/chat/activate-room/{roomID}", handler.ActivateRoom(dbQueries, js))
		})
	})

	server.Handler = r

	go func() {
		log.Printf("Server starting at 0.0.0.0:%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received; shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println(err)
	}

	// Drain NATS connection.
	if err := conn.Drain(); err != nil {
		log.Printf("couldn't drain NATS conn: %+v", err)
	}

	// Close DB connection.
	dbPool.Close()

	log.Println("Server stopped")
}
