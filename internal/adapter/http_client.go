package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/go-push-sync/internal/config"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/utils"
)

// Request headers understood by the push backend.
const (
	HeaderAuthorization      = "Authorization"
	HeaderPushRegistrationID = "pushregistrationid"
	HeaderTraceID            = "X-Trace-ID"
	HeaderUserAgent          = "User-Agent"

	SchemeApp = "App"
	SchemeJWT = "JWT"
)

// JWTSupplier returns the user token for user data calls. An empty token
// means application code authorization is used.
type JWTSupplier func(ctx context.Context) (string, error)

// StaticJWT returns a supplier of a fixed token.
func StaticJWT(token string) JWTSupplier {
	return func(context.Context) (string, error) {
		return token, nil
	}
}

// Opt configures the HTTP adapter.
type Opt func(*httpRemoteAPI)

// WithJWTSupplier enables JWT authorization of user data calls.
func WithJWTSupplier(fn JWTSupplier) Opt {
	return func(h *httpRemoteAPI) {
		h.jwt = fn
	}
}

// WithClock sets the clock used to check JWT expiry.
func WithClock(clock clockwork.Clock) Opt {
	return func(h *httpRemoteAPI) {
		h.clock = clock
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Opt {
	return func(h *httpRemoteAPI) {
		h.client.SetHeader(HeaderUserAgent, ua)
	}
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyBaseURL
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// newRequest builds a request authorized with the application code.
func (h *httpRemoteAPI) newRequest(ctx context.Context, appCode, pushRegID string) *resty.Request {
	traceID, ok := utils.GetTraceIDFromContext(ctx)
	if !ok {
		traceID = h.ids.Generate()
	}

	req := h.client.R().
		SetContext(ctx).
		SetHeader(HeaderAuthorization, SchemeApp+" "+appCode).
		SetHeader(HeaderTraceID, traceID)
	if pushRegID != "" {
		req.SetHeader(HeaderPushRegistrationID, pushRegID)
	}
	return req
}

// newUserRequest is like newRequest but prefers the user JWT when one is
// supplied. Expired or malformed tokens are rejected without a round trip.
func (h *httpRemoteAPI) newUserRequest(ctx context.Context, appCode, pushRegID string) (*resty.Request, error) {
	req := h.newRequest(ctx, appCode, pushRegID)
	if h.jwt == nil {
		return req, nil
	}

	token, err := h.jwt(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJWT, err)
	}
	if token == "" {
		return req, nil
	}
	if err = utils.CheckJWTExpiry(token, h.clock.Now()); err != nil {
		h.logger.Warn().Err(err).Str("func", "httpRemoteAPI.newUserRequest").Msg("user jwt rejected locally")
		return nil, fmt.Errorf("%w: %w", ErrInvalidJWT, err)
	}

	return req.SetHeader(HeaderAuthorization, SchemeJWT+" "+token), nil
}

// NewHTTPRemoteAPI constructs the resty implementation of [RemoteAPI].
// It normalises the base URL from cfg and applies the request timeout.
func NewHTTPRemoteAPI(cfg config.EngineAdapter, log *logger.Logger, opts ...Opt) (RemoteAPI, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter base url: %w", err)
	}

	h := &httpRemoteAPI{
		client: utils.NewHTTPClient(baseURL, cfg.RequestTimeout),
		clock:  clockwork.NewRealClock(),
		ids:    utils.NewUUIDGenerator(),
		logger: log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}
