package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/estate/internal/apperr"
	"github.com/evcraddock/estate/internal/booking"
	"github.com/evcraddock/estate/internal/identity"
	"github.com/evcraddock/estate/internal/listing"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrListingNotFound),
		errors.Is(err, apperr.ErrBookingNotFound),
		errors.Is(err, apperr.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeErr reports err with its mapped status and wire code. Internal errors
// are logged and hidden from the client.
func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		apiError(w, "internal error", status)
		return
	}
	apiJSON(w, map[string]string{"error": err.Error(), "code": apperr.Code(err)}, status)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// apiQueryListings runs the catalog query pipeline.
func (s *Server) apiQueryListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("pageSize") == "" {
		q.Set("pageSize", strconv.Itoa(s.pageSize))
	}

	params, err := listing.ParseParams(q)
	if err != nil {
		writeErr(w, err)
		return
	}

	res, err := s.listings.Query(r.Context(), params)
	if err != nil {
		writeErr(w, err)
		return
	}
	apiJSON(w, res, http.StatusOK)
}

// apiGetListing returns a single listing.
func (s *Server) apiGetListing(w http.ResponseWriter, r *http.Request) {
	l, err := s.listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	apiJSON(w, l, http.StatusOK)
}

// apiCreateListing adds a listing (admin).
func (s *Server) apiCreateListing(w http.ResponseWriter, r *http.Request) {
	var req listing.Listing
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = ""
	req.CreatedAt = time.Time{}

	l, err := s.listings.Create(r.Context(), identity.FromContext(r.Context()), &req)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.reporter.Invalidate()
	apiJSON(w, l, http.StatusCreated)
}

// apiDeleteListing removes a listing (admin).
func (s *Server) apiDeleteListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.listings.Delete(r.Context(), identity.FromContext(r.Context()), id); err != nil {
		writeErr(w, err)
		return
	}
	s.reporter.Invalidate()
	apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
}

// apiSetListingStatus marks a listing Available or Unavailable (admin).
func (s *Server) apiSetListingStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status listing.Status `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.listings.SetStatus(r.Context(), identity.FromContext(r.Context()), id, req.Status); err != nil {
		writeErr(w, err)
		return
	}
	s.reporter.Invalidate()
	apiJSON(w, map[string]interface{}{"id": id, "status": req.Status}, http.StatusOK)
}

// apiListBookings returns the caller's bookings, or every booking for an
// admin passing ?all=true. Admins may also pass ?email= to inspect one user.
func (s *Server) apiListBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := identity.FromContext(ctx)

	var (
		views []*booking.View
		err   error
	)
	switch email := r.URL.Query().Get("email"); {
	case r.URL.Query().Get("all") == "true":
		views, err = s.bookings.ListAll(ctx, actor)
	case email != "":
		views, err = s.bookings.ListForRequester(ctx, actor, email)
	default:
		views, err = s.bookings.ListForRequester(ctx, actor, actor.Email)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	apiJSON(w, views, http.StatusOK)
}

// apiCreateBooking requests a booking for the caller.
func (s *Server) apiCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ListingID string `json:"listing_id"`
		Notes     string `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := s.bookings.Request(r.Context(), identity.FromContext(r.Context()), req.ListingID, req.Notes)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.reporter.Invalidate()
	apiJSON(w, b, http.StatusCreated)
}

// apiSetBookingStatus approves or cancels a booking.
func (s *Server) apiSetBookingStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	target, err := booking.ParseStatus(req.Status)
	if err != nil {
		writeErr(w, err)
		return
	}

	b, err := s.bookings.SetStatus(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "id"), target)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.reporter.Invalidate()
	apiJSON(w, b, http.StatusOK)
}

// apiDeleteBooking cancels a booking so it leaves every booking list.
func (s *Server) apiDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.bookings.Delete(r.Context(), identity.FromContext(r.Context()), id); err != nil {
		writeErr(w, err)
		return
	}
	s.reporter.Invalidate()
	apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
}

// apiStats returns the dashboard snapshot (admin).
func (s *Server) apiStats(w http.ResponseWriter, r *http.Request) {
	if err := identity.FromContext(r.Context()).RequireAdmin(); err != nil {
		writeErr(w, err)
		return
	}

	snap, err := s.reporter.Snapshot(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	apiJSON(w, snap, http.StatusOK)
}

// apiListUsers returns the user directory (admin), optionally filtered by
// a case-insensitive search over name and email.
func (s *Server) apiListUsers(w http.ResponseWriter, r *http.Request) {
	if err := identity.FromContext(r.Context()).RequireAdmin(); err != nil {
		writeErr(w, err)
		return
	}

	users, err := s.users.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeErr(w, err)
		return
	}
	apiJSON(w, users, http.StatusOK)
}

// apiUpdateUser bans, reactivates, promotes or demotes a user (admin).
func (s *Server) apiUpdateUser(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())
	if err := actor.RequireAdmin(); err != nil {
		writeErr(w, err)
		return
	}
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req struct {
		Status identity.Status `json:"status"`
		Role   identity.Role   `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" && req.Role == "" {
		writeErr(w, apperr.Invalid("", "status or role is required"))
		return
	}
	if req.Status != "" && !req.Status.IsValid() {
		writeErr(w, apperr.Invalid("status", "must be active or banned, got %q", req.Status))
		return
	}
	if req.Role != "" && !req.Role.IsValid() {
		writeErr(w, apperr.Invalid("role", "must be user or admin, got %q", req.Role))
		return
	}
	if id == actor.ID && req.Status == identity.StatusBanned {
		apiError(w, "admins cannot ban themselves", http.StatusBadRequest)
		return
	}
	if id == actor.ID && req.Role == identity.RoleUser {
		apiError(w, "admins cannot demote themselves", http.StatusBadRequest)
		return
	}

	var u *identity.User
	var err error
	if req.Status != "" {
		if u, err = s.users.SetStatus(r.Context(), id, req.Status); err != nil {
			writeErr(w, err)
			return
		}
	}
	if req.Role != "" {
		if u, err = s.users.SetRole(r.Context(), id, req.Role); err != nil {
			writeErr(w, err)
			return
		}
	}
	apiJSON(w, u, http.StatusOK)
}

// apiDeleteUser removes a user from the directory (admin).
func (s *Server) apiDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())
	if err := actor.RequireAdmin(); err != nil {
		writeErr(w, err)
		return
	}
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if id == actor.ID {
		apiError(w, "admins cannot remove themselves", http.StatusBadRequest)
		return
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	s.reporter.Invalidate()
	apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apiError(w, "invalid user ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
