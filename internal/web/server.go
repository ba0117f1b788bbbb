// Package web provides the HTTP JSON API for the listing marketplace.
package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/estate/internal/booking"
	"github.com/evcraddock/estate/internal/config"
	"github.com/evcraddock/estate/internal/identity"
	"github.com/evcraddock/estate/internal/listing"
	"github.com/evcraddock/estate/internal/logging"
	"github.com/evcraddock/estate/internal/report"
)

// Server is the marketplace HTTP server.
type Server struct {
	listings *listing.Service
	bookings *booking.Lifecycle
	reporter *report.Reporter
	users    *identity.UserStore
	pageSize int
	router   chi.Router
}

// NewServer wires the stores and services over db.
func NewServer(db *sql.DB, cfg config.Config) (*Server, error) {
	listingRepo := listing.NewRepository(db)
	bookingRepo := booking.NewRepository(db)
	users := identity.NewUserStore(db)

	reporter, err := report.New(listingRepo, bookingRepo, users, report.Options{
		RecentListings: cfg.RecentListings,
		TTL:            cfg.StatsTTL,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		listings: listing.NewService(listingRepo),
		bookings: booking.NewLifecycle(bookingRepo, listingRepo),
		reporter: reporter,
		users:    users,
		pageSize: cfg.PageSize,
		router:   chi.NewRouter(),
	}
	if s.pageSize < 1 {
		s.pageSize = listing.DefaultPageSize
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(logging.RequestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.resolvePrincipal)

		r.Get("/listings", s.apiQueryListings)
		r.Post("/listings", s.apiCreateListing)
		r.Get("/listings/{id}", s.apiGetListing)
		r.Delete("/listings/{id}", s.apiDeleteListing)
		r.Patch("/listings/{id}/status", s.apiSetListingStatus)

		r.Get("/bookings", s.apiListBookings)
		r.Post("/bookings", s.apiCreateBooking)
		r.Patch("/bookings/{id}", s.apiSetBookingStatus)
		r.Delete("/bookings/{id}", s.apiDeleteBooking)

		r.Get("/stats", s.apiStats)

		r.Get("/users", s.apiListUsers)
		r.Patch("/users/{id}", s.apiUpdateUser)
		r.Delete("/users/{id}", s.apiDeleteUser)
	})
}

// resolvePrincipal attaches the caller identity supplied by the upstream
// authentication proxy to the request context.
func (s *Server) resolvePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.users.Resolve(r.Context(), r.Header.Get(identity.EmailHeader), r.Header.Get(identity.NameHeader))
		if err != nil {
			writeErr(w, fmt.Errorf("resolving principal: %w", err))
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), p)))
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases resources held by the server.
func (s *Server) Close() {
	s.reporter.Close()
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
