// Package fintech is the HTTP client for the fintech API under test.
//
// Each operation issues exactly one request and hands back the raw
// *http.Response: no retries, no status translation, no body parsing. Business
// failures (duplicate CPF, insufficient balance, unknown account) arrive as
// ordinary responses and are for the caller to assert on.
package fintech

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

	"github.com/ccastromar/qa-forge-fintech/internal/config"
	"github.com/ccastromar/qa-forge-fintech/internal/logx"
	"github.com/ccastromar/qa-forge-fintech/internal/report"
)

// ScenarioHeader tells the mock server which canned response to return.
const ScenarioHeader = "x-mock-response-name"

// ScenarioAttachment is the report attachment name for the scenario in use.
const ScenarioAttachment = "QA Forge Fintech"

const (
	PathRegistration = "/registration"
	PathBalance      = "/balance/"
	PathTransfer     = "/transfer"
)

var ErrUnsupportedMethod = errors.New("unsupported HTTP method")

type RegistrationRequest struct {
	Name     string `json:"name"`
	TaxID    string `json:"taxId"`
	Password string `json:"password"`
}

type TransferRequest struct {
	SourceAccountID      string  `json:"sourceAccountId"`
	DestinationAccountID string  `json:"destinationAccountId"`
	Amount               float64 `json:"amount"`
}

type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Reporter report.Reporter
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client (no timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTP = hc
		}
	}
}

// WithReporter sets the fallback reporter used when the request context
// carries none (see report.NewContext).
func WithReporter(r report.Reporter) Option {
	return func(c *Client) {
		if r != nil {
			c.Reporter = r
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{},
		Reporter: report.Nop,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Register issues POST /registration.
func (c *Client) Register(ctx context.Context, name, taxID, password string, scenario config.Scenario) (*http.Response, error) {
	payload := RegistrationRequest{Name: name, TaxID: taxID, Password: password}
	return c.send(ctx, http.MethodPost, PathRegistration, payload, scenario)
}

// GetBalance issues GET /balance/{accountId}.
func (c *Client) GetBalance(ctx context.Context, accountID string, scenario config.Scenario) (*http.Response, error) {
	return c.send(ctx, http.MethodGet, PathBalance+url.PathEscape(accountID), nil, scenario)
}

// Transfer issues POST /transfer.
func (c *Client) Transfer(ctx context.Context, source, destination string, amount float64, scenario config.Scenario) (*http.Response, error) {
	payload := TransferRequest{SourceAccountID: source, DestinationAccountID: destination, Amount: amount}
	return c.send(ctx, http.MethodPost, PathTransfer, payload, scenario)
}

func (c *Client) send(ctx context.Context, method, path string, payload any, scenario config.Scenario) (*http.Response, error) {
	var body io.Reader
	switch method {
	case http.MethodGet:
	case http.MethodPost:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s payload: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if scenario != "" {
		req.Header.Set(ScenarioHeader, scenario.String())
		report.AttachText(report.FromContext(ctx, c.Reporter), ScenarioAttachment, scenario.String())
	}

	timer := logx.Start(scenario.String(), "Client", method+" "+path)
	resp, err := c.HTTP.Do(req)
	elapsed := timer.End()
	if err != nil {
		logx.Error("Client", "%s %s failed after %v: %v", method, path, elapsed, err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	logx.Info("Client", "%s %s scenario=%q -> %d (%v)", method, path, scenario, resp.StatusCode, elapsed)
	return resp, nil
}
