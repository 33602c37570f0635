// Package client is a typed HTTP client for the cross-sell API. Every response
// passes through decode, which accepts the {success, data} envelope as well as
// bare array or object payloads, so callers only ever see typed values.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/wondrlab/crosssell-api/internal/csvtransform"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/matrix"
	"github.com/wondrlab/crosssell-api/internal/service"
	"go.uber.org/zap"
)

const apiPrefix = "/api/v1"

// APIError is a non-success response from the API
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Errors) > 0 {
		return fmt.Sprintf("api error (%d): %s: %s", e.StatusCode, msg, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, msg)
}

// Client calls the cross-sell API
type Client struct {
	baseURL    string
	token      string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithToken authenticates requests with a bearer token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithAPIKey authenticates requests with the x-api-key header
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the API at baseURL, e.g. http://localhost:8080
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, typically after Login
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login exchanges credentials for a token and keeps it for later calls
func (c *Client) Login(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	var out domain.TokenResponse
	body := domain.LoginRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return &out, nil
}

// Lookups fetches the name resolution tables
func (c *Client) Lookups(ctx context.Context) (*domain.Lookups, error) {
	var out domain.Lookups
	if err := c.doJSON(ctx, http.MethodGet, "/lookups", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateClient creates a client account
func (c *Client) CreateClient(ctx context.Context, req *domain.CreateClientRequest) (*domain.ClientDTO, error) {
	var out domain.ClientDTO
	if err := c.doJSON(ctx, http.MethodPost, "/clients", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListClients returns one page of clients
func (c *Client) ListClients(ctx context.Context, page, pageSize int) ([]domain.ClientDTO, error) {
	var out []domain.ClientDTO
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("pageSize", fmt.Sprint(pageSize))
	if err := c.doJSON(ctx, http.MethodGet, "/clients", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateService adds a service to the catalog
func (c *Client) CreateService(ctx context.Context, req *domain.CreateServiceRequest) (*domain.ServiceDTO, error) {
	var out domain.ServiceDTO
	if err := c.doJSON(ctx, http.MethodPost, "/services", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOpportunity creates an opportunity
func (c *Client) CreateOpportunity(ctx context.Context, req *domain.CreateOpportunityRequest) (*domain.OpportunityDTO, error) {
	var out domain.OpportunityDTO
	if err := c.doJSON(ctx, http.MethodPost, "/opportunities", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTask creates a task
func (c *Client) CreateTask(ctx context.Context, req *domain.CreateTaskRequest) (*domain.TaskDTO, error) {
	var out domain.TaskDTO
	if err := c.doJSON(ctx, http.MethodPost, "/tasks", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Matrix fetches the client by service matrix
func (c *Client) Matrix(ctx context.Context) (*matrix.Matrix, error) {
	var out matrix.Matrix
	if err := c.doJSON(ctx, http.MethodGet, "/opportunities/matrix", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateFromCell creates an opportunity for an empty matrix cell
func (c *Client) CreateFromCell(ctx context.Context, req *domain.CreateFromCellRequest) (*service.CellResult, error) {
	var out service.CellResult
	if err := c.doJSON(ctx, http.MethodPost, "/opportunities/matrix", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Import uploads a CSV or XLSX file for server-side import
func (c *Client) Import(ctx context.Context, entity csvtransform.Entity, filename string, r io.Reader) (*service.ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/"+string(entity)+"/import", nil, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out service.ImportResult
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export downloads every record of the entity as CSV. mode is import or display.
func (c *Client) Export(ctx context.Context, entity csvtransform.Entity, mode string) ([]byte, error) {
	q := url.Values{}
	if mode != "" {
		q.Set("mode", mode)
	}
	return c.download(ctx, "/"+string(entity)+"/export", q)
}

// Template downloads the header-only import file for the entity
func (c *Client) Template(ctx context.Context, entity csvtransform.Entity) ([]byte, error) {
	return c.download(ctx, "/"+string(entity)+"/import/template", nil)
}

// ExportMatrix downloads the matrix as an XLSX workbook
func (c *Client) ExportMatrix(ctx context.Context) ([]byte, error) {
	return c.download(ctx, "/opportunities/matrix/export", nil)
}

func (c *Client) download(ctx context.Context, path string, query url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, query, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	} else if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s %s: %w", req.Method, req.URL.Path, err)
	}
	c.logger.Debug("api request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	return decode(resp.StatusCode, data, out)
}

// envelope mirrors domain.APIResponse with deferred payload decoding
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

// decode is the single deserialization boundary. Enveloped payloads are
// unwrapped; anything else is decoded into out as is.
func decode(status int, data []byte, out interface{}) error {
	if status >= http.StatusBadRequest {
		return decodeError(status, data)
	}

	payload := bytes.TrimSpace(data)
	if len(payload) > 0 && payload[0] == '{' {
		var env envelope
		if err := json.Unmarshal(payload, &env); err == nil && env.Success != nil {
			if !*env.Success {
				return &APIError{StatusCode: status, Message: env.Message, Errors: flattenErrors(env.Errors)}
			}
			payload = env.Data
		}
	}

	if out == nil || len(payload) == 0 || string(payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	apiErr := &APIError{StatusCode: status}
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil {
		apiErr.Message = env.Message
		apiErr.Errors = flattenErrors(env.Errors)
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// flattenErrors accepts a list of strings or a list of field errors
func flattenErrors(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var messages []string
	if err := json.Unmarshal(raw, &messages); err == nil {
		return messages
	}
	// A failed decode into []string can leave partial elements behind
	var fields []domain.ValidationFieldError
	if err := json.Unmarshal(raw, &fields); err == nil {
		flat := make([]string, 0, len(fields))
		for _, f := range fields {
			flat = append(flat, f.Field+": "+f.Message)
		}
		return flat
	}
	return []string{string(raw)}
}
