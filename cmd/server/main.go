package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"medmind/internal/adherence"
	"medmind/internal/config"
	"medmind/internal/database"
	"medmind/internal/handlers"
	"medmind/internal/middleware"
	"medmind/internal/services"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	// Load environment variables
	if err := loadEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Prescription analysis is optional; the handler answers 503 until an
	// API key is configured.
	analyzer := services.NewModelAnalyzer(cfg.Analysis)
	if !analyzer.Configured() {
		log.Printf("Prescription analysis disabled: no API key configured")
	}

	// Background sweep flips stale pending doses to missed
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Sweep.Enabled {
		sweeper := services.NewSweepService(db, cfg.Sweep.Interval, cfg.Sweep.GracePeriod, nil)
		go sweeper.Run(ctx)
	}

	clock := adherence.Clock(time.Now)

	// Initialize router
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders(cfg.Security.CSPEnabled, cfg.Security.HSTSEnabled))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Profile routes
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", handlers.HandleListProfiles(db))
			r.Post("/", handlers.HandleCreateProfile(db))
			r.Get("/{userID}", handlers.HandleGetProfile(db))
			r.Put("/{userID}", handlers.HandleUpdateProfile(db))
			r.Post("/{userID}/complete-onboarding", handlers.HandleCompleteOnboarding(db))
		})

		// Medication routes
		r.Route("/medications", func(r chi.Router) {
			r.Post("/", handlers.HandleCreateMedication(db))
			r.Get("/{userID}", handlers.HandleGetUserMedications(db))
			r.Put("/{medicationID}", handlers.HandleUpdateMedication(db))
			r.Delete("/{medicationID}", handlers.HandleDeleteMedication(db))
		})

		// Dose log routes
		r.Route("/medication-logs", func(r chi.Router) {
			r.Post("/", handlers.HandleCreateDoseLog(db))
			r.Get("/{userID}", handlers.HandleGetUserDoseLogs(db))
			r.Put("/{logID}", handlers.HandleUpdateDoseLog(db))
			r.Post("/{logID}/taken", handlers.HandleMarkDoseTaken(db))
		})

		// Health journal routes
		r.Route("/health-journal", func(r chi.Router) {
			r.Post("/", handlers.HandleCreateJournalEntry(db))
			r.Get("/{userID}", handlers.HandleGetJournalEntries(db))
			r.Get("/{userID}/{date}", handlers.HandleGetJournalEntryByDate(db))
			r.Put("/entries/{entryID}", handlers.HandleUpdateJournalEntry(db))
		})

		// Dashboard route
		r.Get("/dashboard/{userID}", handlers.HandleGetDashboard(db, clock, cfg.Adherence.LookbackDays))

		// Prescription analysis route
		r.Post("/analyze-prescription", handlers.HandleAnalyzePrescription(analyzer))

		// Export routes
		r.Get("/export/{userID}/csv", handlers.HandleExportCSV(db))
		r.Get("/export/{userID}/pdf", handlers.HandleExportPDF(db))
	})

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server starting on http://localhost%s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// loadEnv loads environment variables from .env file
func loadEnv() error {
	data, err := os.ReadFile(".env")
	if err != nil {
		return err
	}

	lines := splitLines(string(data))
	for _, line := range lines {
		if line == "" || line[0] == '#' {
			continue
		}

		parts := splitOnce(line, '=')
		if len(parts) == 2 {
			os.Setenv(parts[0], parts[1])
		}
	}

	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func splitOnce(s string, sep byte) []string {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return []string{s[:i], s[i+1:]}
		}
	}
	return []string{s}
}
