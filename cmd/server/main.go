/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the wage liquidation server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Open the SQLite schedule store and load the wage-scale index
  3. Create the liquidation engine over the index
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite schedule database path (default: escalas.db)
           Use ":memory:" for an empty in-memory database
  -seed    JSON schedule bundle to load before serving (optional;
           idempotent, rows replace same-key rows)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/escalas.db"

  # Load a new paritaria round, then serve
  ./server -db="./data/escalas.db" -seed="./data/2026-04.json"

  # Run on different port
  ./server -port=3000

ENVIRONMENT:
  No environment variables currently. All config via flags.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Schedule store
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mercantil/wage-engine/api"
	"github.com/mercantil/wage-engine/factory"
	"github.com/mercantil/wage-engine/liquidation"
	"github.com/mercantil/wage-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "escalas.db", "SQLite schedule database path")
	seedPath := flag.String("seed", "", "JSON schedule bundle to load before serving")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open schedule database: %v", err)
	}
	defer store.Close()

	// Seed before the index is built: Index() memoizes its first load.
	if *seedPath != "" {
		data, err := os.ReadFile(*seedPath)
		if err != nil {
			log.Fatalf("Failed to read seed file: %v", err)
		}
		bundle, err := factory.ParseSchedule(data)
		if err != nil {
			log.Fatalf("Failed to parse seed file: %v", err)
		}
		if err := factory.Seed(store, bundle); err != nil {
			log.Fatalf("Failed to seed schedule: %v", err)
		}
		log.Printf("Seeded %d scale rows from %s", len(bundle.Scales), *seedPath)
	}

	// Load the wage-scale index once; the engine reads it for every
	// liquidation, so a broken schedule should fail at startup.
	index, err := store.Index()
	if err != nil {
		log.Fatalf("Failed to load wage scales: %v", err)
	}

	engine := liquidation.NewEngine(index)
	handler := api.NewHandler(engine, index)

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
