// Package api implements the HTTP client for the LinkStash backend.
//
// The client keeps the bearer token obtained at login and attaches it to
// every subsequent request. Server error bodies are translated back into
// the shared sentinel errors, so callers can match with errors.Is.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ymatrosov/linkstash/internal/common"
)

// User mirrors the account representation returned by the server.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Link mirrors the bookmark representation returned by the server.
type Link struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"ownerId"`
	URL        string     `json:"url"`
	Title      string     `json:"title"`
	Host       string     `json:"host"`
	Notes      string     `json:"notes"`
	ArchivedAt *time.Time `json:"archivedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Identity is the subject of the presented token, as reported by the server.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to one LinkStash server.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewClient builds a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken stores the bearer token used for authenticated calls.
func (c *Client) SetToken(token string) { c.token = token }

// ClearToken drops the stored bearer token.
func (c *Client) ClearToken() { c.token = "" }

// Authenticated reports whether a bearer token is currently set.
func (c *Client) Authenticated() bool { return c.token != "" }

// do performs one JSON round trip. A nil body sends no payload; a nil out
// discards the response body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// decodeError maps an HTTP error response back onto a sentinel error,
// keeping the server message for display.
func decodeError(resp *http.Response) error {
	var body errorBody
	msg := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		msg = body.Message
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, msg)
	default:
		return fmt.Errorf("%w: %s", common.ErrorInternal, msg)
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, email string, password []byte) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/auth/register", credentialsRequest{Email: email, Password: string(password)}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token and stores it on the client.
func (c *Client) Login(ctx context.Context, email string, password []byte) error {
	var tok tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", credentialsRequest{Email: email, Password: string(password)}, &tok)
	if err != nil {
		return err
	}
	c.token = tok.AccessToken
	return nil
}

// Whoami returns the identity baked into the current token.
func (c *Client) Whoami(ctx context.Context) (*Identity, error) {
	var id Identity
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Me fetches the current account record.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type updateMeRequest struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UpdateMe changes the account email and/or password. Nil fields are left
// untouched.
func (c *Client) UpdateMe(ctx context.Context, email, password *string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPatch, "/users/me", updateMeRequest{Email: email, Password: password}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteMe removes the account together with all of its links, then drops
// the stored token.
func (c *Client) DeleteMe(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/users/me", nil, nil); err != nil {
		return err
	}
	c.ClearToken()
	return nil
}

type createLinkRequest struct {
	URL   string  `json:"url"`
	Title *string `json:"title,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

type updateLinkRequest struct {
	Title *string `json:"title,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

type randomLinkResponse struct {
	Link *Link `json:"link"`
}

// CreateLink saves a bookmark. Title and notes are optional.
func (c *Client) CreateLink(ctx context.Context, rawURL string, title, notes *string) (*Link, error) {
	var link Link
	if err := c.do(ctx, http.MethodPost, "/links", createLinkRequest{URL: rawURL, Title: title, Notes: notes}, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// ListLinks fetches bookmarks, newest first. An empty search means no text
// filter; a nil archived means both archived and active links.
func (c *Client) ListLinks(ctx context.Context, search string, archived *bool) ([]*Link, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if archived != nil {
		q.Set("archived", strconv.FormatBool(*archived))
	}
	path := "/links"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var links []*Link
	if err := c.do(ctx, http.MethodGet, path, nil, &links); err != nil {
		return nil, err
	}
	return links, nil
}

// GetLink fetches one bookmark by id.
func (c *Client) GetLink(ctx context.Context, id string) (*Link, error) {
	var link Link
	if err := c.do(ctx, http.MethodGet, "/links/"+url.PathEscape(id), nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// UpdateLink changes the title and/or notes of a bookmark.
func (c *Client) UpdateLink(ctx context.Context, id string, title, notes *string) (*Link, error) {
	var link Link
	if err := c.do(ctx, http.MethodPatch, "/links/"+url.PathEscape(id), updateLinkRequest{Title: title, Notes: notes}, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// ArchiveLink marks a bookmark as archived.
func (c *Client) ArchiveLink(ctx context.Context, id string) (*Link, error) {
	var link Link
	if err := c.do(ctx, http.MethodPost, "/links/"+url.PathEscape(id)+"/archive", nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// UnarchiveLink moves a bookmark back to the active set.
func (c *Client) UnarchiveLink(ctx context.Context, id string) (*Link, error) {
	var link Link
	if err := c.do(ctx, http.MethodPost, "/links/"+url.PathEscape(id)+"/unarchive", nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// DeleteLink removes a bookmark permanently.
func (c *Client) DeleteLink(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/links/"+url.PathEscape(id), nil, nil)
}

// RandomLink asks the server for a uniformly random pick from the archived
// or active pool. A nil result with nil error means the pool is empty.
func (c *Client) RandomLink(ctx context.Context, archived bool) (*Link, error) {
	var body randomLinkResponse
	path := "/links/random"
	if archived {
		path += "?archived=true"
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return body.Link, nil
}
