package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/nexus-erp/nexusctl/internal/errors"
)

// LoginRequest is the control-panel login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the subset of the token response the client uses.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	UserName    string `json:"user_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

// Login exchanges staff credentials for a bearer token.
// Any non-2xx status is an ErrAuth failure carrying the server's detail.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	payload, err := json.Marshal(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrAuth, "Failed to encode login request", "")
	}

	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(LoginPath), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, readErr := readBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := ""
		if readErr == nil {
			detail = errorDetail(body)
		}
		return nil, errors.WrapWithCode(&StatusError{Status: resp.StatusCode, Detail: detail},
			errors.ErrAuth, "Access denied",
			"Check your staff email and password")
	}
	if readErr != nil {
		return nil, errors.WrapWithCode(readErr, errors.ErrNetwork, "Connection dropped during login", "")
	}

	var out LoginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrMalformed, "Login response is not valid JSON", "")
	}
	if out.AccessToken == "" {
		return nil, errors.New(errors.ErrMalformed, "Login response has no access_token", "")
	}
	return &out, nil
}
