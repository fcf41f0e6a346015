// Package client implements the two untrusted sides of a signature session:
// the owner (create, poll, decrypt) and the signer (fetch info, encrypt,
// submit). Both talk only to the relay - never to each other.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/inkwell-health/signature-relay/internal/crypto"
	"github.com/inkwell-health/signature-relay/internal/session"
	"github.com/inkwell-health/signature-relay/internal/signatures"
)

// Client is an HTTP client for the signature session API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the relay at baseURL. If httpClient is nil
// a default client with no overall timeout is used - poll requests block
// server-side for up to the poll window, so a short client timeout would cut
// them off.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// CreateSession creates a new signature session on the relay.
func (c *Client) CreateSession(ctx context.Context, req *signatures.CreateSessionRequest) (*signatures.CreateSessionResponse, error) {
	var resp signatures.CreateSessionResponse
	if err := c.do(ctx, http.MethodPost, "/signatures/sessions", req, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSessionInfo fetches the public key and instructions for a session.
// This is the signer-side entry point.
func (c *Client) GetSessionInfo(ctx context.Context, sessionID string) (*signatures.SessionInfoResponse, error) {
	var resp signatures.SessionInfoResponse
	path := "/signatures/sessions/" + sessionID + "/info"
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Poll performs a single long-poll request with the given timeout.
func (c *Client) Poll(ctx context.Context, sessionID string, timeout time.Duration) (*signatures.PollResponse, error) {
	var resp signatures.PollResponse
	path := "/signatures/sessions/" + sessionID + "/poll?timeout=" + strconv.Itoa(int(timeout.Seconds()))
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AwaitCompletion polls repeatedly until the session leaves the waiting
// state or ctx is cancelled.
func (c *Client) AwaitCompletion(ctx context.Context, sessionID string, pollTimeout time.Duration) (*signatures.PollResponse, error) {
	for {
		resp, err := c.Poll(ctx, sessionID, pollTimeout)
		if err != nil {
			return nil, err
		}
		if resp.Status != session.StatusWaiting {
			return resp, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// Submit uploads an already-sealed envelope for a session.
func (c *Client) Submit(ctx context.Context, sessionID string, envelope *crypto.Envelope) (*signatures.SubmitResponse, error) {
	var resp signatures.SubmitResponse
	path := "/signatures/sessions/" + sessionID + "/submit"
	if err := c.do(ctx, http.MethodPost, path, envelope, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitSignature performs the complete signer-side flow: fetch the session
// info, generate an ephemeral key pair, encrypt the payload against the
// owner's public key, and upload the envelope.
func (c *Client) SubmitSignature(ctx context.Context, sessionID string, payload *crypto.SignaturePayload) (*signatures.SubmitResponse, error) {
	info, err := c.GetSessionInfo(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	envelope, err := crypto.SealSignaturePayload(payload, info.PublicKeyJWK)
	if err != nil {
		return nil, err
	}

	return c.Submit(ctx, sessionID, envelope)
}

// APIError is returned when the relay responds with a non-success status.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("relay returned %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
}

// do executes one request/response cycle with JSON bodies.
func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var errResp signatures.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: "unparseable error response"}
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  errResp.ErrorCode,
			Message:    errResp.Message,
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}

	return nil
}
