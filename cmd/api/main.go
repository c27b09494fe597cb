package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/config"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/db"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/forecast"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/handlers"
	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/planner"
)

func main() {
	config.LoadDotEnv()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid line parameters: %v", err)
	}
	log.Printf("Config loaded: port=%s, retention=%v", cfg.Port, cfg.RetentionDuration)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := db.Open(ctx, cfg.DatabaseURL, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	forecaster, err := forecast.NewForecaster(forecast.Line10Tables())
	if err != nil {
		log.Fatalf("Invalid reference tables: %v", err)
	}
	p := planner.New(store, forecaster, cfg.DailyParams())

	router := handlers.NewRouter(
		handlers.NewEstimateHandler(cfg.HourlyParams()),
		handlers.NewForecastHandler(p, cfg.ForecastCacheSize),
		handlers.NewHealthHandler(store),
		cfg.CORSOrigins,
	)

	// Daily run-log cleanup
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			if err := store.Cleanup(ctx, cfg.RetentionDuration); err != nil {
				log.Printf("Cleanup error: %v", err)
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				log.Println("Cleanup loop stopped")
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("API server starting on :%s", cfg.Port)
		log.Println("  POST   /api/estimate")
		log.Println("  GET    /api/forecast/{day}")
		log.Println("  POST   /api/forecast/{day}")
		log.Println("  GET    /api/forecast/runs")
		log.Println("  GET    /api/lines/{lineId}/multiplier")
		log.Println("  DELETE /api/lines/{lineId}/multiplier")
		log.Println("  GET    /health, /metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Goodbye!")
}
