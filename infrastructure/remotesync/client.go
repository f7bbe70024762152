package remotesync

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

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"notegraph/domain/core/aggregates"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
	pkgerrors "notegraph/pkg/errors"
	"notegraph/pkg/observability"
	"notegraph/pkg/utils"
)

const (
	serviceName = "graph service"

	// RequestIDHeader carries a unique id per request
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 10 << 20
)

// Client is the REST client of the graph service. Every method issues exactly
// one request; nothing is retried. The response status is checked before any
// body is decoded.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMetrics records request counts and latencies
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracer sets the tracer used for request spans
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid API URL").WithCause(err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("invalid API URL %q: must be http(s)://host", baseURL))
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		tracer:     otel.Tracer("notegraph/remotesync"),
		propagator: otel.GetTextMapPropagator(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchSnapshot retrieves the whole graph
func (c *Client) FetchSnapshot(ctx context.Context) (*aggregates.Snapshot, error) {
	body, err := c.do(ctx, "fetch_snapshot", http.MethodGet, "/api/graph", nil)
	if err != nil {
		return nil, err
	}
	snapshot, err := decodeSnapshot(body)
	if err != nil {
		return nil, pkgerrors.NewExternalError(serviceName, err)
	}
	return snapshot, nil
}

// CreateEntity creates a note with the given title
func (c *Client) CreateEntity(ctx context.Context, title string) (*entities.Entity, error) {
	body, err := c.do(ctx, "create_entity", http.MethodPost, "/api/notes", createEntityRequest{Title: title})
	if err != nil {
		return nil, err
	}
	entity, err := decodeEntity(body)
	if err != nil {
		return nil, pkgerrors.NewExternalError(serviceName, err)
	}
	return entity, nil
}

// UpdateEntity pushes the content, color, cloud and position fields of the
// patch. Title and size are not part of the update contract.
func (c *Client) UpdateEntity(ctx context.Context, patch entities.EntityPatch) (*entities.Entity, error) {
	if !patch.ID.Valid() {
		return nil, pkgerrors.NewValidationError("entity id is required")
	}
	req := updateRequestFrom(patch)
	if req.empty() {
		return nil, pkgerrors.NewValidationError("update changes nothing")
	}

	body, err := c.do(ctx, "update_entity", http.MethodPut, "/api/notes/"+patch.ID.String(), req)
	if err != nil {
		return nil, err
	}
	entity, err := decodeEntity(body)
	if err != nil {
		return nil, pkgerrors.NewExternalError(serviceName, err)
	}
	return entity, nil
}

// CreateConnection links two notes. The server rejects invalid pairs and may
// reject or return an existing connection for a known pair.
func (c *Client) CreateConnection(ctx context.Context, sourceID, targetID valueobjects.EntityID) (*entities.Connection, error) {
	req := createConnectionRequest{SourceID: int64(sourceID), TargetID: int64(targetID)}
	body, err := c.do(ctx, "create_connection", http.MethodPost, "/api/connections", req)
	if err != nil {
		return nil, err
	}
	conn, err := decodeConnection(body)
	if err != nil {
		return nil, pkgerrors.NewExternalError(serviceName, err)
	}
	return conn, nil
}

// DeleteConnection removes a connection by id
func (c *Client) DeleteConnection(ctx context.Context, id valueobjects.ConnectionID) error {
	_, err := c.do(ctx, "delete_connection", http.MethodDelete, "/api/connections", deleteConnectionRequest{ID: int64(id)})
	return err
}

// CreateGroup creates a cloud
func (c *Client) CreateGroup(ctx context.Context, name string) (*entities.Group, error) {
	body, err := c.do(ctx, "create_group", http.MethodPost, "/api/clouds", createGroupRequest{Name: name})
	if err != nil {
		return nil, err
	}
	group, err := decodeGroup(body)
	if err != nil {
		return nil, pkgerrors.NewExternalError(serviceName, err)
	}
	return group, nil
}

// DeleteGroup removes a cloud; its notes survive without a cloud
func (c *Client) DeleteGroup(ctx context.Context, id valueobjects.GroupID) error {
	if !id.Valid() {
		return pkgerrors.NewValidationError("cloud id is required")
	}
	_, err := c.do(ctx, "delete_group", http.MethodDelete, "/api/clouds/"+id.String(), nil)
	return err
}

// do sends one request and returns the body of a 2xx response. Any other
// status becomes an AppError without the body being decoded as a payload.
func (c *Client) do(ctx context.Context, operation, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		if err := utils.ValidateStruct(payload); err != nil {
			return nil, err
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.NewInternalError("failed to encode request").WithCause(err)
		}
		reqBody = bytes.NewReader(b)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := c.tracer.Start(ctx, "remotesync."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()

	requestID := uuid.NewString()
	span.SetAttributes(attribute.String("request.id", requestID))

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reqBody)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, requestID)
	c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRemoteCall(operation, 0, time.Since(start))
		appErr := transportError(ctx, operation, err)
		span.RecordError(appErr)
		span.SetStatus(codes.Error, appErr.Message)
		c.logger.Warn("Request failed",
			zap.String("operation", operation),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, appErr
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	duration := time.Since(start)
	c.metrics.RecordRemoteCall(operation, resp.StatusCode, duration)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		appErr := pkgerrors.FromStatus(resp.StatusCode, errorMessage(body)).
			WithDetails(map[string]interface{}{"operation": operation, "request_id": requestID})
		span.SetStatus(codes.Error, appErr.Message)
		c.logger.Info("Request rejected",
			zap.String("operation", operation),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.String("message", appErr.Message))
		return nil, appErr
	}
	if readErr != nil {
		appErr := transportError(ctx, operation, readErr)
		span.RecordError(appErr)
		span.SetStatus(codes.Error, appErr.Message)
		return nil, appErr
	}

	c.logger.Debug("Request completed",
		zap.String("operation", operation),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration))
	return body, nil
}

// transportError classifies a failure that produced no usable response
func transportError(ctx context.Context, operation string, err error) *pkgerrors.AppError {
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return pkgerrors.NewCanceledError(operation).WithCause(err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.As(err, &urlErr) && urlErr.Timeout():
		return pkgerrors.NewTimeoutError(operation).WithCause(err)
	default:
		return pkgerrors.NewNetworkError(fmt.Sprintf("%s: %s unreachable", operation, serviceName), err)
	}
}
