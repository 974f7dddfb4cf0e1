/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the rotation engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment); missing anchors are fatal
  2. Parse command-line flags (override port/db)
  3. Open SQLite store
  4. Build the shift clock and domain services
  5. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides ROTA_DB; ":memory:" allowed)
  -roster  Path to a roster snapshot JSON file (overrides ROTA_ROSTER)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, drain active requests
  (30s timeout), close the database, exit.
*/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/rota-engine/api"
	"github.com/warp/rota-engine/attendance"
	"github.com/warp/rota-engine/billing"
	"github.com/warp/rota-engine/booking"
	"github.com/warp/rota-engine/config"
	"github.com/warp/rota-engine/roster"
	"github.com/warp/rota-engine/rota"
	"github.com/warp/rota-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	rosterPath := flag.String("roster", os.Getenv("ROTA_ROSTER"), "roster snapshot JSON file")
	flag.Parse()

	shift, err := rota.NewShiftClock(cfg.Anchors)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	staff, err := loadRoster(*rosterPath)
	if err != nil {
		log.Fatalf("Failed to load roster: %v", err)
	}

	clock := rota.SystemClock{}
	ledger := attendance.NewLedger(store, shift, clock)
	reconciler := billing.NewReconciler(shift, store, store, store, cfg.QuotaPrice)
	bookings := booking.NewService(store.Bookings(), clock)

	handler := api.NewHandler(shift, ledger, reconciler, bookings, clock, staff)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("Day anchor: %s group %s; rest anchor: %s group %s sub-group %d",
			cfg.Anchors.DayAnchorDate, cfg.Anchors.DayAnchorGroup,
			cfg.Anchors.RestAnchorDate, cfg.Anchors.RestAnchorGroup,
			cfg.Anchors.RestAnchorSubGroup)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

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

// loadRoster reads a roster snapshot from a JSON file. The roster is
// supplied data, not managed state; an empty path yields an empty roster.
func loadRoster(path string) (roster.Roster, error) {
	if path == "" {
		return roster.Roster{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Group    string `json:"group"`
		SubGroup int    `json:"subgroup"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	staff := make(roster.Roster, 0, len(raw))
	for _, m := range raw {
		g, err := rota.ParseGroup(m.Group)
		if err != nil {
			return nil, fmt.Errorf("roster member %s: %w", m.ID, err)
		}
		role := roster.Role(m.Role)
		if role == "" {
			role = roster.RoleStaff
		}
		staff = append(staff, roster.Member{
			ID:       m.ID,
			Name:     m.Name,
			Group:    g,
			SubGroup: m.SubGroup,
			Role:     role,
		})
	}
	return staff, nil
}
