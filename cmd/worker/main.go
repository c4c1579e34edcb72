package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"carrental/internal/queue"
	"carrental/internal/repository"
	"carrental/internal/service"
)

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	fleetRepo := repository.NewFleetRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	confirmSvc := service.NewConfirmService(fleetRepo, fleetRepo, taskRepo, service.NewNotifyService())

	consumer := queue.NewConsumer(queue.ConfigFromEnv(), confirmSvc.Execute)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Confirmation worker running")
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Consumer stopped: %v", err)
	}
	log.Println("Confirmation worker stopped")
}
