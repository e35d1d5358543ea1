// Package client is the REST client for the supplier portal API. It is the
// network collaborator behind draft.Manager and review.Desk, and maps HTTP
// failures back onto the apperr taxonomy.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"supplierportal/internal/apperr"
	"supplierportal/internal/model"
	"supplierportal/internal/workflow/draft"
	"supplierportal/internal/workflow/fileref"
	"supplierportal/internal/workflow/review"
)

const defaultTimeout = 30 * time.Second

// Client talks to one API base URL on behalf of one bearer token.
type Client struct {
	http *resty.Client
}

var (
	_ draft.Collaborator  = (*Client)(nil)
	_ draft.Uploader      = (*Client)(nil)
	_ review.Collaborator = (*Client)(nil)
)

// Option customizes a Client.
type Option func(*resty.Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithTransport replaces the underlying round tripper. It is still wrapped
// for tracing.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *resty.Client) { c.SetTransport(otelhttp.NewTransport(rt)) }
}

// New returns a client for baseURL. token may be empty for the probes.
func New(baseURL, token string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetHeader("Accept", "application/json")
	if token != "" {
		rc.SetAuthToken(token)
	}
	for _, opt := range opts {
		opt(rc)
	}
	return &Client{http: rc}
}

// ApplicationPage is one page of applications.
type ApplicationPage struct {
	Items []model.Application `json:"data"`
	Total int                 `json:"total"`
}

// errorBody mirrors the API's error payload.
type errorBody struct {
	RequestID string `json:"request_id"`
	Error     struct {
		Code     string            `json:"code"`
		Message  string            `json:"message"`
		Fields   map[string]string `json:"fields"`
		Expected string            `json:"expected"`
		Actual   string            `json:"actual"`
	} `json:"error"`
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&errorBody{})
}

// check converts a transport failure or an error status into the taxonomy.
func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &apperr.TransportError{Op: op, Err: err}
	}
	if !resp.IsError() {
		return nil
	}

	var body errorBody
	if eb, ok := resp.Error().(*errorBody); ok && eb != nil {
		body = *eb
	}
	msg := body.Error.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}

	switch resp.StatusCode() {
	case http.StatusUnprocessableEntity:
		return &apperr.ValidationError{Message: msg, Fields: body.Error.Fields}
	case http.StatusConflict:
		return &apperr.ConflictError{Message: msg, Expected: body.Error.Expected, Actual: body.Error.Actual}
	case http.StatusForbidden:
		return &apperr.PolicyError{Message: msg}
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return &apperr.TransportError{
		Op:         op,
		StatusCode: resp.StatusCode(),
		Err:        fmt.Errorf("%s (%s)", msg, body.Error.Code),
	}
}

// CreateDraft stores a new draft and returns its id.
func (c *Client) CreateDraft(ctx context.Context, payload model.ApplicationPayload) (string, error) {
	var out model.Application
	resp, err := c.request(ctx).SetBody(payload).SetResult(&out).Post("/applications")
	if err := check("create draft", resp, err); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &apperr.TransportError{Op: "create draft", StatusCode: resp.StatusCode(), Err: errors.New("response has no id")}
	}
	return out.ID, nil
}

// UpdateDraft replaces the stored draft with payload.
func (c *Client) UpdateDraft(ctx context.Context, id string, payload model.ApplicationPayload) error {
	resp, err := c.request(ctx).
		SetPathParam("id", id).
		SetBody(payload).
		Put("/applications/{id}")
	return check("update draft", resp, err)
}

// Submit asks for the submit transition and returns the status the server
// moved the application to.
func (c *Client) Submit(ctx context.Context, id string, payload model.ApplicationPayload) (model.Status, error) {
	var out model.Application
	resp, err := c.request(ctx).
		SetPathParam("id", id).
		SetBody(payload).
		SetResult(&out).
		Post("/applications/{id}/submit")
	if err := check("submit", resp, err); err != nil {
		return "", err
	}
	return out.Status, nil
}

// GetByID fetches one application with its history and documents.
func (c *Client) GetByID(ctx context.Context, id string) (*model.Application, error) {
	var out model.Application
	resp, err := c.request(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		Get("/applications/{id}")
	if err := check("get application", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMine returns the caller's applications.
func (c *Client) ListMine(ctx context.Context, limit, offset int) (*ApplicationPage, error) {
	return c.list(ctx, "/applications/mine", limit, offset)
}

// ListTasks returns the applications awaiting the caller's role.
func (c *Client) ListTasks(ctx context.Context, limit, offset int) (*ApplicationPage, error) {
	return c.list(ctx, "/applications/tasks", limit, offset)
}

func (c *Client) list(ctx context.Context, path string, limit, offset int) (*ApplicationPage, error) {
	var out ApplicationPage
	resp, err := c.request(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetQueryParam("offset", strconv.Itoa(offset)).
		SetResult(&out).
		Get(path)
	if err := check("list applications", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadFile sends one pending upload as multipart form data.
func (c *Client) UploadFile(ctx context.Context, applicationID, slot string, upload fileref.Upload) error {
	ct := upload.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	resp, err := c.request(ctx).
		SetPathParams(map[string]string{"id": applicationID, "slot": slot}).
		SetMultipartField("file", upload.Name, ct, bytes.NewReader(upload.Data)).
		Post("/applications/{id}/files/{slot}")
	return check("upload "+slot, resp, err)
}

// Approve advances the application out of the caller's review status.
func (c *Client) Approve(ctx context.Context, id string, in model.TransitionInput) error {
	return c.transition(ctx, id, "approve", in)
}

// Reject closes the application. in.Comments is mandatory.
func (c *Client) Reject(ctx context.Context, id string, in model.TransitionInput) error {
	return c.transition(ctx, id, "reject", in)
}

// RequestInfo returns the application to the applicant.
func (c *Client) RequestInfo(ctx context.Context, id string, in model.TransitionInput) error {
	return c.transition(ctx, id, "request-info", in)
}

// AssignVendorNumber records the vendor number on an approved application.
func (c *Client) AssignVendorNumber(ctx context.Context, id string, in model.TransitionInput) error {
	return c.transition(ctx, id, "vendor-number", in)
}

func (c *Client) transition(ctx context.Context, id, action string, in model.TransitionInput) error {
	resp, err := c.request(ctx).
		SetPathParams(map[string]string{"id": id, "action": action}).
		SetBody(in).
		Post("/applications/{id}/{action}")
	return check(action, resp, err)
}
