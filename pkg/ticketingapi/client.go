package ticketingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
)

const (
	tenantHeader                = "tenant-id"
	responseBodyReadLimit int64 = 1024
)

// Client wraps the external Ticketing API: event catalog, server-side cart
// reservations, and issued tickets. Order completion is owned by the
// surrounding platform and is not exposed here.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tenantID   string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the Ticketing API client for one tenant.
func NewClient(baseURL, tenantID string, opts ...Option) (*Client, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, errors.New("ticketing api base url is required")
	}
	trimmedTenant := strings.TrimSpace(tenantID)
	if trimmedTenant == "" {
		return nil, errors.New("tenant id is required")
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    trimmedURL,
		tenantID:   trimmedTenant,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Event is a published event with its sections and ticket batches.
type Event struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	BannerImage string        `json:"bannerImage,omitempty"`
	StartsAt    time.Time     `json:"startsAt"`
	IsPublished bool          `json:"isPublished"`
	IsCancelled bool          `json:"isCancelled"`
	Address     *EventAddress `json:"address,omitempty"`
	Sections    []Section     `json:"sections,omitempty"`
}

// EventAddress locates the venue.
type EventAddress struct {
	Address    string `json:"address"`
	AddressNum string `json:"addressNum"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// Section groups batches inside a venue area.
type Section struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Batches []Batch `json:"batches,omitempty"`
}

// Batch is a named, priced ticket allocation within a section.
type Batch struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	TicketsLimit int             `json:"ticketsLimit"`
}

// CartTicket is one batch/quantity pair sent on cart creation. The server
// recomputes price and naming; the storefront never sends them.
type CartTicket struct {
	BatchID  string `json:"batchId"`
	Quantity int    `json:"quantity"`
}

// RemoteCart is the server-side reservation created from local line items.
type RemoteCart struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssuedTicket is a ticket already bought by the authenticated user.
type IssuedTicket struct {
	ID          string    `json:"id"`
	EventName   string    `json:"eventName"`
	BatchName   string    `json:"batchName"`
	SectionName string    `json:"sectionName"`
	HolderName  string    `json:"holderName"`
	HolderEmail string    `json:"holderEmail"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// ListEvents returns the event catalog for the tenant.
func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := c.do(ctx, http.MethodGet, "/events", "", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent returns one event with sections and batches.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	trimmed := strings.TrimSpace(eventID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}

	var event Event
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(trimmed), "", nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateCart reserves the given batch/quantity pairs server-side and returns
// the reservation identifier with its expiry.
func (c *Client) CreateCart(ctx context.Context, accessToken string, tickets []CartTicket) (*RemoteCart, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token is required")
	}
	if len(tickets) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one ticket is required")
	}
	for _, ticket := range tickets {
		if strings.TrimSpace(ticket.BatchID) == "" || ticket.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "every ticket needs a batch id and a positive quantity")
		}
	}

	body := map[string][]CartTicket{"tickets": tickets}
	var cart RemoteCart
	if err := c.do(ctx, http.MethodPost, "/cart", accessToken, body, &cart); err != nil {
		return nil, err
	}
	if cart.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ticketing api returned a cart without an id")
	}
	return &cart, nil
}

// GetUserTickets lists tickets already issued to the authenticated user.
func (c *Client) GetUserTickets(ctx context.Context, accessToken string) ([]IssuedTicket, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token is required")
	}

	var tickets []IssuedTicket
	if err := c.do(ctx, http.MethodGet, "/tickets/me", accessToken, nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal ticketing api request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build ticketing api request")
	}
	req.Header.Set(tenantHeader, c.tenantID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute ticketing api request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return mapStatusError(resp, path)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode ticketing api response")
	}
	return nil
}

func mapStatusError(resp *http.Response, path string) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, "ticketing api rejected credentials")
	case http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, "ticketing api resource not found")
	case http.StatusGone:
		return pkgerrors.Wrap(pkgerrors.CodeExpired, cause, "ticketing api reservation expired")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, "ticketing api rejected request")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, fmt.Sprintf("ticketing api %s failed", path))
}
