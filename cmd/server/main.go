package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/robfig/cron/v3"

	"carrental/internal/api"
	"carrental/internal/queue"
	"carrental/internal/repository"
	"carrental/internal/service"
	"carrental/migrations"
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

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Failed to set goose dialect: %v", err)
	}
	if err := goose.Up(db, "."); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	fleetRepo := repository.NewFleetRepository(db)

	loader := service.NewLoaderService(fleetRepo)
	if err := seedFleets(ctx, loader); err != nil {
		log.Fatalf("Failed to seed fleets: %v", err)
	}

	producer := queue.NewProducer(queue.ConfigFromEnv())
	defer producer.Close()

	svc := service.NewRentalService(fleetRepo, producer)
	rentalHandler := api.NewRentalHandler(svc)

	jobSvc := service.NewJobService(repository.NewJobRepository(db))
	c := cron.New()
	c.AddFunc("@daily", func() {
		if err := jobSvc.PurgeOldAttempts(); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
		if err := jobSvc.ReportExpiredReservations(); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
	})
	c.Start()
	defer c.Stop()

	r := mux.NewRouter()
	r.HandleFunc("/api/availability", rentalHandler.CheckAvailability).Methods("POST")
	r.HandleFunc("/api/quotes", rentalHandler.CreateQuote).Methods("POST")
	r.HandleFunc("/api/quotes/confirm", rentalHandler.ConfirmQuotes).Methods("POST")
	r.HandleFunc("/api/reservations", rentalHandler.GetReservations).Methods("GET")
	r.HandleFunc("/api/reservations/{id}", rentalHandler.CancelReservation).Methods("DELETE")
	r.HandleFunc("/api/companies", rentalHandler.ListCompanies).Methods("GET")
	r.HandleFunc("/api/companies/{company}/cartypes", rentalHandler.ListCarTypes).Methods("GET")

	handler := handlers.LoggingHandler(os.Stdout, handlers.CORS(
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(r))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}

// seedFleets loads every *.csv in the seed directory as a company fleet,
// skipping companies already present. The company name is the file name
// with the first letter upper-cased, so hertz.csv seeds "Hertz".
func seedFleets(ctx context.Context, loader *service.LoaderService) error {
	dir := os.Getenv("SEED_DATA_DIR")
	if dir == "" {
		dir = "data"
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return err
	}
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".csv")
		company := strings.ToUpper(name[:1]) + name[1:]
		if err := loader.LoadCompanyIfAbsent(ctx, company, file); err != nil {
			return err
		}
	}
	return nil
}
