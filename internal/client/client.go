// Package client provides an HTTP client for the estate JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/evcraddock/estate/internal/apperr"
	"github.com/evcraddock/estate/internal/booking"
	"github.com/evcraddock/estate/internal/identity"
	"github.com/evcraddock/estate/internal/listing"
	"github.com/evcraddock/estate/internal/report"
)

// Client is an HTTP client for the estate API. Requests carry the acting
// email in the identity header, as the authenticating proxy would.
type Client struct {
	baseURL    string
	email      string
	httpClient *http.Client
}

// New creates a new API client acting as email. An empty email is anonymous.
func New(baseURL, email string) *Client {
	return &Client{
		baseURL:    baseURL,
		email:      email,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response. It unwraps to the matching apperr sentinel
// so callers can use errors.Is the same way as against local services.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap maps the wire code, or failing that the status code, back onto the
// error taxonomy.
func (e *APIError) Unwrap() error {
	if err := apperr.FromCode(e.Code, e.Message); err != nil {
		return err
	}
	switch e.StatusCode {
	case http.StatusBadRequest:
		return &apperr.ValidationError{Reason: e.Message}
	case http.StatusUnauthorized:
		return apperr.ErrUnauthenticated
	case http.StatusForbidden:
		return apperr.ErrPermissionDenied
	case http.StatusConflict:
		return apperr.ErrInvalidStateTransition
	case http.StatusServiceUnavailable:
		return apperr.ErrStoreUnavailable
	}
	return nil
}

// QueryListings runs a catalog query on the server.
func (c *Client) QueryListings(ctx context.Context, p listing.Params) (listing.Result, error) {
	q := url.Values{}
	q.Set("search", p.SearchText)
	q.Set("category", p.Category)
	q.Set("priceRange", string(p.PriceRange))
	q.Set("type", p.Type)
	q.Set("sortBy", string(p.SortBy))
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("pageSize", strconv.Itoa(p.PageSize))

	var res listing.Result
	if err := c.get(ctx, "/api/listings?"+q.Encode(), &res); err != nil {
		return listing.Result{}, err
	}
	return res, nil
}

// GetListing returns a single listing.
func (c *Client) GetListing(ctx context.Context, id string) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.get(ctx, "/api/listings/"+url.PathEscape(id), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// RequestBooking requests a booking for listingID.
func (c *Client) RequestBooking(ctx context.Context, listingID, notes string) (*booking.Booking, error) {
	body := map[string]string{"listing_id": listingID, "notes": notes}
	var b booking.Booking
	if err := c.send(ctx, "POST", "/api/bookings", body, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBookings returns the caller's bookings, every booking when all is
// set, or the bookings of email.
func (c *Client) ListBookings(ctx context.Context, all bool, email string) ([]*booking.View, error) {
	q := url.Values{}
	if all {
		q.Set("all", "true")
	} else if email != "" {
		q.Set("email", email)
	}
	path := "/api/bookings"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var views []*booking.View
	if err := c.get(ctx, path, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// SetBookingStatus approves or cancels a booking.
func (c *Client) SetBookingStatus(ctx context.Context, id string, status booking.Status) (*booking.Booking, error) {
	body := map[string]string{"status": string(status)}
	var b booking.Booking
	if err := c.send(ctx, "PATCH", "/api/bookings/"+url.PathEscape(id), body, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Stats returns the dashboard snapshot.
func (c *Client) Stats(ctx context.Context) (*report.Snapshot, error) {
	var s report.Snapshot
	if err := c.get(ctx, "/api/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Close is a no-op; the client holds no resources.
func (c *Client) Close() {}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// send performs a request with a JSON body and decodes the response.
func (c *Client) send(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// do executes an HTTP request with the identity header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if email := identity.NormalizeEmail(c.email); email != "" {
		req.Header.Set(identity.EmailHeader, email)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if json.Unmarshal(respBody, &errResp) == nil {
			if errResp.Error != "" {
				apiErr.Message = errResp.Error
			}
			apiErr.Code = errResp.Code
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
