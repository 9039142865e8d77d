package apiclient

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// Client sends authenticated requests against the billing API.
type Client struct {
	base    string
	httpc   *http.Client
	session *SessionManager
}

// New builds a client for the API rooted at base. A nil httpc falls back to
// http.DefaultClient.
func New(base string, session *SessionManager, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), httpc: httpc, session: session}
}

// Session exposes the session manager, e.g. to install tokens after login.
func (c *Client) Session() *SessionManager { return c.session }

// Get issues an authenticated GET against path (relative to the base URL).
func (c *Client) Get(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// PostJSON issues an authenticated POST with a JSON body.
func (c *Client) PostJSON(path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(req)
}

// Do sends req with the current access token attached. On a token-expiry 401
// it joins the shared refresh and retries the request once with the new
// token; a second 401 tears the session down instead of looping. Non-token
// 401s and every 403 are surfaced without touching the session.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := bufferBody(req); err != nil {
		return nil, err
	}

	token := c.session.AccessToken()
	resp, err := c.send(req, token)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusForbidden:
		resp.Body.Close()
		return nil, ErrForbidden
	case http.StatusUnauthorized:
		// handled below
	default:
		return resp, nil
	}

	msg := drainAuthMessage(resp)
	switch {
	case isSessionExpiredMessage(msg):
		c.session.teardown()
		return nil, ErrSessionExpired
	case !isTokenExpiredMessage(msg):
		return nil, &AuthError{Message: msg}
	}

	newToken, err := c.session.Refresh(req.Context(), token)
	if err != nil {
		return nil, err
	}

	retry, err := c.send(req, newToken)
	if err != nil {
		return nil, err
	}
	if retry.StatusCode == http.StatusUnauthorized {
		// already retried once; give up rather than loop
		retry.Body.Close()
		c.session.teardown()
		return nil, ErrSessionExpired
	}
	if retry.StatusCode == http.StatusForbidden {
		retry.Body.Close()
		return nil, ErrForbidden
	}
	return retry, nil
}

func (c *Client) send(req *http.Request, token string) (*http.Response, error) {
	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return c.httpc.Do(r)
}

// bufferBody makes the request body replayable so a refresh retry can resend
// it.
func bufferBody(req *http.Request) error {
	if req.Body == nil || req.GetBody != nil {
		return nil
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return err
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return nil
}

// drainAuthMessage pulls the error message out of a 401 body ({"error": ...}
// or {"message": ...}) and closes it.
func drainAuthMessage(resp *http.Response) string {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

// isTokenExpiredMessage matches the server's expired-access-token wording.
func isTokenExpiredMessage(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "token expired") ||
		strings.Contains(m, "expired token") ||
		strings.Contains(m, "jwt expired") ||
		strings.Contains(m, "token is expired")
}

// isSessionExpiredMessage matches wording that means the whole session is
// dead and a refresh would be pointless.
func isSessionExpiredMessage(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "session expired") ||
		strings.Contains(m, "login again") ||
		strings.Contains(m, "re-login")
}
