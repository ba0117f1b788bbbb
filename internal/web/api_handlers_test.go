package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/estate/internal/booking"
	"github.com/evcraddock/estate/internal/config"
	"github.com/evcraddock/estate/internal/db"
	"github.com/evcraddock/estate/internal/identity"
	"github.com/evcraddock/estate/internal/listing"
	"github.com/evcraddock/estate/internal/report"
)

const (
	adminEmail = "admin@example.com"
	userEmail  = "ada@example.com"
)

// testAPIServerWithDB creates a test server over a fresh database with one
// admin in the user directory.
func testAPIServerWithDB(t *testing.T) (*Server, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	cfg := config.Default()
	cfg.PageSize = 2
	srv, err := NewServer(d, cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(srv.Close)

	if _, err := identity.NewUserStore(d).Add(context.Background(), identity.Profile{Email: adminEmail, Name: "Admin", Role: identity.RoleAdmin}); err != nil {
		t.Fatalf("add admin: %v", err)
	}

	return srv, d
}

func apiRequest(t *testing.T, srv *Server, method, path, email string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	r := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if email != "" {
		r.Header.Set(identity.EmailHeader, email)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

var apiTestListingCounter int

func insertAPITestListing(t *testing.T, d *sql.DB, category listing.Category, price int64) *listing.Listing {
	t.Helper()
	apiTestListingCounter++
	l, err := listing.NewRepository(d).Insert(context.Background(), &listing.Listing{
		Title:    fmt.Sprintf("Listing %d", apiTestListingCounter),
		Location: "Springfield",
		Category: category,
		Price:    price,
	})
	if err != nil {
		t.Fatalf("insert listing: %v", err)
	}
	return l
}

func TestHealth(t *testing.T) {
	srv, _ := testAPIServerWithDB(t)

	w := apiRequest(t, srv, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestAPIQueryListings(t *testing.T) {
	srv, d := testAPIServerWithDB(t)
	insertAPITestListing(t, d, listing.CategoryVilla, 300_000)
	insertAPITestListing(t, d, listing.CategoryVilla, 800_000)
	insertAPITestListing(t, d, listing.CategoryHouse, 600_000)

	t.Run("anonymous browse uses configured page size", func(t *testing.T) {
		w := apiRequest(t, srv, "GET", "/api/listings", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		res := decode[listing.Result](t, w)
		if res.TotalMatches != 3 || res.TotalPages != 2 || len(res.Listings) != 2 {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("filters", func(t *testing.T) {
		w := apiRequest(t, srv, "GET", "/api/listings?category=Villa&priceRange=mid&sortBy=price-low", "", nil)
		res := decode[listing.Result](t, w)
		if res.TotalMatches != 1 || res.Listings[0].Price != 800_000 {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("page past the end", func(t *testing.T) {
		w := apiRequest(t, srv, "GET", "/api/listings?page=9", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		res := decode[listing.Result](t, w)
		if len(res.Listings) != 0 || res.TotalMatches != 3 {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("invalid parameters", func(t *testing.T) {
		for _, q := range []string{"page=abc", "pageSize=0", "category=Castle", "sortBy=oldest"} {
			w := apiRequest(t, srv, "GET", "/api/listings?"+q, "", nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", q, w.Code)
			}
		}
	})
}

func TestAPIGetListing(t *testing.T) {
	srv, d := testAPIServerWithDB(t)
	l := insertAPITestListing(t, d, listing.CategoryHouse, 100)

	w := apiRequest(t, srv, "GET", "/api/listings/"+l.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[listing.Listing](t, w); got.ID != l.ID {
		t.Errorf("ID = %s, want %s", got.ID, l.ID)
	}

	w = apiRequest(t, srv, "GET", "/api/listings/missing", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", w.Code)
	}
	if body := decode[map[string]string](t, w); body["code"] != "listing_not_found" {
		t.Errorf("missing: code = %q, want listing_not_found", body["code"])
	}

	w = apiRequest(t, srv, "PATCH", "/api/bookings/missing", adminEmail, map[string]string{"status": "Confirmed"})
	if body := decode[map[string]string](t, w); w.Code != http.StatusNotFound || body["code"] != "booking_not_found" {
		t.Errorf("missing booking: %d %v, want 404 booking_not_found", w.Code, body)
	}
}

func TestAPIListingAdmin(t *testing.T) {
	srv, _ := testAPIServerWithDB(t)
	body := map[string]interface{}{
		"title":    "Sea View",
		"price":    1_500_000,
		"location": "Malibu",
		"category": "Villa",
		"id":       "chosen-by-client",
	}

	if w := apiRequest(t, srv, "POST", "/api/listings", "", body); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create: status = %d, want 401", w.Code)
	}
	if w := apiRequest(t, srv, "POST", "/api/listings", userEmail, body); w.Code != http.StatusForbidden {
		t.Errorf("user create: status = %d, want 403", w.Code)
	}

	w := apiRequest(t, srv, "POST", "/api/listings", adminEmail, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("admin create: status = %d: %s", w.Code, w.Body.String())
	}
	created := decode[listing.Listing](t, w)
	if created.ID == "chosen-by-client" || created.ID == "" {
		t.Errorf("ID = %q, want server-generated", created.ID)
	}

	w = apiRequest(t, srv, "PATCH", "/api/listings/"+created.ID+"/status", adminEmail, map[string]string{"status": "Unavailable"})
	if w.Code != http.StatusOK {
		t.Errorf("set status: %d: %s", w.Code, w.Body.String())
	}
	w = apiRequest(t, srv, "PATCH", "/api/listings/"+created.ID+"/status", adminEmail, map[string]string{"status": "Sold"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad status: %d, want 400", w.Code)
	}

	if w := apiRequest(t, srv, "DELETE", "/api/listings/"+created.ID, adminEmail, nil); w.Code != http.StatusOK {
		t.Errorf("delete: %d", w.Code)
	}
	if w := apiRequest(t, srv, "DELETE", "/api/listings/"+created.ID, adminEmail, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete: %d, want 404", w.Code)
	}

	if w := apiRequest(t, srv, "POST", "/api/listings", adminEmail, map[string]string{"title": ""}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid create: %d, want 400", w.Code)
	}
}

func TestAPIBookingLifecycle(t *testing.T) {
	srv, d := testAPIServerWithDB(t)
	l := insertAPITestListing(t, d, listing.CategoryHouse, 250_000)

	if w := apiRequest(t, srv, "POST", "/api/bookings", "", map[string]string{"listing_id": l.ID}); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous booking: %d, want 401", w.Code)
	}

	w := apiRequest(t, srv, "POST", "/api/bookings", userEmail, map[string]string{"listing_id": l.ID, "notes": "weekends"})
	if w.Code != http.StatusCreated {
		t.Fatalf("request booking: %d: %s", w.Code, w.Body.String())
	}
	b := decode[booking.Booking](t, w)
	if b.Status != booking.StatusPending {
		t.Errorf("Status = %s", b.Status)
	}

	if w := apiRequest(t, srv, "POST", "/api/bookings", userEmail, map[string]string{"listing_id": "missing"}); w.Code != http.StatusNotFound {
		t.Errorf("booking unknown listing: %d, want 404", w.Code)
	}

	confirm := map[string]string{"status": "Confirmed"}
	if w := apiRequest(t, srv, "PATCH", "/api/bookings/"+b.ID, userEmail, confirm); w.Code != http.StatusForbidden {
		t.Errorf("user approve: %d, want 403", w.Code)
	}
	if w := apiRequest(t, srv, "PATCH", "/api/bookings/"+b.ID, adminEmail, confirm); w.Code != http.StatusOK {
		t.Fatalf("admin approve: %d: %s", w.Code, w.Body.String())
	}
	if w := apiRequest(t, srv, "PATCH", "/api/bookings/"+b.ID, adminEmail, confirm); w.Code != http.StatusConflict {
		t.Errorf("second approve: %d, want 409", w.Code)
	}
	if w := apiRequest(t, srv, "PATCH", "/api/bookings/"+b.ID, adminEmail, map[string]string{"status": "Archived"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown status: %d, want 400", w.Code)
	}

	w = apiRequest(t, srv, "GET", "/api/bookings", userEmail, nil)
	views := decode[[]booking.View](t, w)
	if len(views) != 1 || views[0].Status != booking.StatusConfirmed || views[0].Listing.Title != l.Title {
		t.Errorf("user bookings = %+v", views)
	}

	if w := apiRequest(t, srv, "GET", "/api/bookings?all=true", userEmail, nil); w.Code != http.StatusForbidden {
		t.Errorf("user all bookings: %d, want 403", w.Code)
	}
	if w := apiRequest(t, srv, "GET", "/api/bookings?email="+adminEmail, userEmail, nil); w.Code != http.StatusForbidden {
		t.Errorf("user reading other bookings: %d, want 403", w.Code)
	}

	if w := apiRequest(t, srv, "DELETE", "/api/bookings/"+b.ID, "eve@example.com", nil); w.Code != http.StatusForbidden {
		t.Errorf("stranger cancel: %d, want 403", w.Code)
	}
	if w := apiRequest(t, srv, "DELETE", "/api/bookings/"+b.ID, userEmail, nil); w.Code != http.StatusOK {
		t.Fatalf("owner cancel: %d: %s", w.Code, w.Body.String())
	}

	w = apiRequest(t, srv, "GET", "/api/bookings?all=true", adminEmail, nil)
	if views := decode[[]booking.View](t, w); len(views) != 0 {
		t.Errorf("cancelled booking still listed: %+v", views)
	}
}

func TestAPIBookingOfDeletedListing(t *testing.T) {
	srv, d := testAPIServerWithDB(t)
	l := insertAPITestListing(t, d, listing.CategoryHouse, 250_000)

	w := apiRequest(t, srv, "POST", "/api/bookings", userEmail, map[string]string{"listing_id": l.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("request booking: %d", w.Code)
	}
	if w := apiRequest(t, srv, "DELETE", "/api/listings/"+l.ID, adminEmail, nil); w.Code != http.StatusOK {
		t.Fatalf("delete listing: %d", w.Code)
	}

	w = apiRequest(t, srv, "GET", "/api/bookings?all=true", adminEmail, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list all: %d", w.Code)
	}
	views := decode[[]booking.View](t, w)
	if len(views) != 1 || views[0].Listing.Known || views[0].Listing.Title != booking.UnknownListingTitle {
		t.Errorf("views = %+v", views)
	}
}

func TestAPIStats(t *testing.T) {
	srv, d := testAPIServerWithDB(t)
	insertAPITestListing(t, d, listing.CategoryVilla, 1_000_000)

	if w := apiRequest(t, srv, "GET", "/api/stats", userEmail, nil); w.Code != http.StatusForbidden {
		t.Errorf("user stats: %d, want 403", w.Code)
	}

	w := apiRequest(t, srv, "GET", "/api/stats", adminEmail, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d", w.Code)
	}
	if s := decode[report.Snapshot](t, w); s.TotalListings != 1 || s.TotalUsers != 1 {
		t.Errorf("snapshot = %+v", s)
	}

	// Mutations through the API invalidate the cached snapshot.
	body := map[string]interface{}{"title": "Second", "category": "House", "price": 10}
	if w := apiRequest(t, srv, "POST", "/api/listings", adminEmail, body); w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}
	w = apiRequest(t, srv, "GET", "/api/stats", adminEmail, nil)
	if s := decode[report.Snapshot](t, w); s.TotalListings != 2 {
		t.Errorf("TotalListings after create = %d, want 2", s.TotalListings)
	}
}

func TestAPIUsers(t *testing.T) {
	srv, d := testAPIServerWithDB(t)
	ctx := context.Background()
	users := identity.NewUserStore(d)

	ada, err := users.Add(ctx, identity.Profile{Email: userEmail, Name: "Ada"})
	if err != nil {
		t.Fatal(err)
	}
	admin, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		t.Fatal(err)
	}

	if w := apiRequest(t, srv, "GET", "/api/users", userEmail, nil); w.Code != http.StatusForbidden {
		t.Errorf("user list: %d, want 403", w.Code)
	}

	w := apiRequest(t, srv, "GET", "/api/users?search=ADA", adminEmail, nil)
	if got := decode[[]identity.User](t, w); len(got) != 1 || got[0].Email != userEmail {
		t.Errorf("search = %+v", got)
	}

	adaPath := fmt.Sprintf("/api/users/%d", ada.ID)
	if w := apiRequest(t, srv, "PATCH", adaPath, adminEmail, map[string]string{"status": "banned"}); w.Code != http.StatusOK {
		t.Fatalf("ban: %d: %s", w.Code, w.Body.String())
	}

	l := insertAPITestListing(t, d, listing.CategoryHouse, 1)
	if w := apiRequest(t, srv, "POST", "/api/bookings", userEmail, map[string]string{"listing_id": l.ID}); w.Code != http.StatusForbidden {
		t.Errorf("banned booking: %d, want 403", w.Code)
	}

	adminPath := fmt.Sprintf("/api/users/%d", admin.ID)
	if w := apiRequest(t, srv, "PATCH", adminPath, adminEmail, map[string]string{"status": "banned"}); w.Code != http.StatusBadRequest {
		t.Errorf("self ban: %d, want 400", w.Code)
	}
	if w := apiRequest(t, srv, "DELETE", adminPath, adminEmail, nil); w.Code != http.StatusBadRequest {
		t.Errorf("self delete: %d, want 400", w.Code)
	}
	if w := apiRequest(t, srv, "DELETE", "/api/users/abc", adminEmail, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: %d, want 400", w.Code)
	}
	if w := apiRequest(t, srv, "DELETE", adaPath, adminEmail, nil); w.Code != http.StatusOK {
		t.Errorf("delete: %d", w.Code)
	}
	if w := apiRequest(t, srv, "DELETE", adaPath, adminEmail, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete: %d, want 404", w.Code)
	}
}

func TestAPIUpdateUserRole(t *testing.T) {
	srv, d := testAPIServerWithDB(t)
	ctx := context.Background()
	users := identity.NewUserStore(d)

	ada, err := users.Add(ctx, identity.Profile{Email: userEmail, Name: "Ada"})
	if err != nil {
		t.Fatal(err)
	}
	admin, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		t.Fatal(err)
	}
	adaPath := fmt.Sprintf("/api/users/%d", ada.ID)

	if w := apiRequest(t, srv, "PATCH", adaPath, userEmail, map[string]string{"role": "admin"}); w.Code != http.StatusForbidden {
		t.Errorf("self promote by user: %d, want 403", w.Code)
	}

	w := apiRequest(t, srv, "PATCH", adaPath, adminEmail, map[string]string{"role": "admin"})
	if w.Code != http.StatusOK {
		t.Fatalf("promote: %d: %s", w.Code, w.Body.String())
	}
	if got := decode[identity.User](t, w); got.Role != identity.RoleAdmin {
		t.Errorf("role = %s, want admin", got.Role)
	}
	if w := apiRequest(t, srv, "GET", "/api/users", userEmail, nil); w.Code != http.StatusOK {
		t.Errorf("promoted user list: %d, want 200", w.Code)
	}

	adminPath := fmt.Sprintf("/api/users/%d", admin.ID)
	if w := apiRequest(t, srv, "PATCH", adminPath, adminEmail, map[string]string{"role": "user"}); w.Code != http.StatusBadRequest {
		t.Errorf("self demote: %d, want 400", w.Code)
	}
	if w := apiRequest(t, srv, "PATCH", adminPath, userEmail, map[string]string{"role": "user"}); w.Code != http.StatusOK {
		t.Errorf("demote other admin: %d, want 200", w.Code)
	}

	w = apiRequest(t, srv, "PATCH", adaPath, userEmail, map[string]string{"status": "banned", "role": "owner"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad role: %d, want 400", w.Code)
	}
	if got, err := users.GetByID(ctx, ada.ID); err != nil || got.Status != identity.StatusActive {
		t.Errorf("status after rejected update = %+v, %v; want unchanged", got, err)
	}
	if w := apiRequest(t, srv, "PATCH", adaPath, userEmail, map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty update: %d, want 400", w.Code)
	}
	if w := apiRequest(t, srv, "PATCH", "/api/users/9999", userEmail, map[string]string{"role": "user"}); w.Code != http.StatusNotFound {
		t.Errorf("missing user: %d, want 404", w.Code)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	srv, _ := testAPIServerWithDB(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, 0) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
