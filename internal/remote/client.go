package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"installment-tracker/internal/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Client is the HTTP implementation of Store. It holds the bearer token for
// the session; token state is the only mutable field and is guarded so the
// client is safe to share.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger

	mu    sync.RWMutex
	token string
}

// NewClient builds a client for the given API base URL. A zero timeout falls
// back to 30s. log may be nil.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SetToken installs a previously obtained bearer token (e.g. from config).
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// SignOut drops the session credential. Subsequent calls fail with an auth
// error until SignIn succeeds again.
func (c *Client) SignOut() {
	c.SetToken("")
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SignIn exchanges credentials for a bearer token and retains it.
func (c *Client) SignIn(ctx context.Context, username, password string) (string, error) {
	var resp signInResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/sign-in", signInRequest{
		Username: username,
		Password: password,
	}, &resp, false); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", &RemoteError{Kind: KindRejected, Message: "sign-in response carried no access token"}
	}
	c.SetToken(resp.AccessToken)
	c.log.Info("signed in", zap.String("username", username))
	return resp.AccessToken, nil
}

func (c *Client) CreateSale(ctx context.Context, terms core.SaleTerms) (*core.Sale, error) {
	var dto saleDTO
	if err := c.do(ctx, http.MethodPost, "/api/sales", termsToDTO(terms), &dto, true); err != nil {
		return nil, err
	}
	return c.normalizeSale(dto)
}

func (c *Client) ListSales(ctx context.Context, page, size int, sort string) ([]core.Sale, error) {
	path := fmt.Sprintf("/api/sales?page=%d&size=%d", page, size)
	if sort != "" {
		path += "&sort=" + sort
	}
	var resp pageResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	sales := make([]core.Sale, 0, len(resp.sales))
	for _, dto := range resp.sales {
		sale, err := c.normalizeSale(dto)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	return sales, nil
}

func (c *Client) GetSale(ctx context.Context, id int64) (*core.Sale, error) {
	var dto saleDTO
	if err := c.do(ctx, http.MethodGet, "/api/sales/"+strconv.FormatInt(id, 10), nil, &dto, true); err != nil {
		return nil, err
	}
	return c.normalizeSale(dto)
}

func (c *Client) UpdateSale(ctx context.Context, sale *core.Sale) (*core.Sale, error) {
	var dto saleDTO
	if err := c.do(ctx, http.MethodPut, "/api/sales", saleToDTO(sale), &dto, true); err != nil {
		return nil, err
	}
	return c.normalizeSale(dto)
}

func (c *Client) DeleteSale(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/sales/"+strconv.FormatInt(id, 10), nil, nil, true)
}

func (c *Client) CreateInstallment(ctx context.Context, inst core.Installment) (*core.Installment, error) {
	var dto installmentDTO
	if err := c.do(ctx, http.MethodPost, "/api/installments", installmentToDTO(inst), &dto, true); err != nil {
		return nil, err
	}
	return c.normalizeInstallment(dto, inst.SaleID)
}

func (c *Client) UpdateInstallment(ctx context.Context, inst core.Installment) (*core.Installment, error) {
	var dto installmentDTO
	if err := c.do(ctx, http.MethodPut, "/api/installments", installmentToDTO(inst), &dto, true); err != nil {
		return nil, err
	}
	return c.normalizeInstallment(dto, inst.SaleID)
}

func (c *Client) normalizeSale(dto saleDTO) (*core.Sale, error) {
	sale, err := dto.toCore()
	if err != nil {
		return nil, &RemoteError{Kind: KindUnavailable, Message: "malformed sale in response: " + err.Error()}
	}
	return sale, nil
}

func (c *Client) normalizeInstallment(dto installmentDTO, saleID int64) (*core.Installment, error) {
	inst, err := dto.toCore(saleID)
	if err != nil {
		return nil, &RemoteError{Kind: KindUnavailable, Message: "malformed installment in response: " + err.Error()}
	}
	return &inst, nil
}

// do performs one JSON round-trip and maps every failure to a RemoteError,
// except context cancellation which passes through untouched so callers can
// distinguish an abandoned view from a network fault.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var token string
	if authed {
		token = c.currentToken()
		if token == "" {
			return &RemoteError{Kind: KindAuth, Message: "not signed in"}
		}
		if tokenExpired(token) {
			return &RemoteError{Kind: KindAuth, Message: "session expired"}
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Kind: KindRejected, Message: "unencodable request: " + err.Error()}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &RemoteError{Kind: KindRejected, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return context.Canceled
		}
		c.log.Warn("remote call failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &RemoteError{Kind: KindUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	c.log.Debug("remote call",
		zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RemoteError{Kind: KindUnavailable, Message: "malformed response: " + err.Error()}
	}
	return nil
}

// statusError maps an HTTP failure status to the error taxonomy, preferring
// the server's own message when the body carries one.
func (c *Client) statusError(status int, body []byte) *RemoteError {
	message := serverMessage(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if message == "" {
			message = "authentication required"
		}
		return &RemoteError{Kind: KindAuth, StatusCode: status, Message: message}
	case status >= 500:
		if message == "" {
			message = http.StatusText(status)
		}
		return &RemoteError{Kind: KindUnavailable, StatusCode: status, Message: message}
	default:
		if message == "" {
			message = strings.TrimSpace(string(body))
		}
		if message == "" {
			message = http.StatusText(status)
		}
		return &RemoteError{Kind: KindRejected, StatusCode: status, Message: message}
	}
}

func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// tokenExpired inspects the bearer token's exp claim without verifying the
// signature (the signing key lives on the server). Opaque or claimless
// tokens pass; only a definitely-past expiry is treated as expired.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
