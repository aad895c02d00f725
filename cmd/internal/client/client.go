// Package client talks to the notes API over HTTP on behalf of one user.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/editor"
	"sharenotes/cmd/internal/utils/apierror"
)

const DefaultTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimPrefix(strings.TrimSpace(token), "Bearer "),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

type noteList struct {
	Notes []*contract.NoteResponse `json:"notes"`
}

type shareList struct {
	Shares []*contract.ShareResponse `json:"shares"`
}

func (c *Client) ListOwnedNotes(ctx context.Context) ([]*contract.NoteResponse, error) {
	var out noteList
	if err := c.do(ctx, http.MethodGet, "/api/notes", nil, &out); err != nil {
		return nil, err
	}
	return out.Notes, nil
}

func (c *Client) ListSharedNotes(ctx context.Context) ([]*contract.NoteResponse, error) {
	var out noteList
	if err := c.do(ctx, http.MethodGet, "/api/notes/shared", nil, &out); err != nil {
		return nil, err
	}
	return out.Notes, nil
}

func (c *Client) GetNote(ctx context.Context, noteID int64) (*contract.NoteResponse, error) {
	var out contract.NoteResponse
	if err := c.do(ctx, http.MethodGet, notePath(noteID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateNote(ctx context.Context, title string) (*contract.NoteResponse, error) {
	var out contract.NoteResponse
	if err := c.do(ctx, http.MethodPost, "/api/notes", &contract.CreateNoteRequest{Title: title}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateNote(ctx context.Context, noteID int64, req *contract.UpdateNoteRequest) (*contract.NoteResponse, error) {
	var out contract.NoteResponse
	if err := c.do(ctx, http.MethodPatch, notePath(noteID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveNote sends an editor patch as a partial update.
func (c *Client) SaveNote(ctx context.Context, noteID int64, patch editor.Patch) (*contract.NoteResponse, error) {
	return c.UpdateNote(ctx, noteID, &contract.UpdateNoteRequest{Title: patch.Title, Content: patch.Content})
}

func (c *Client) SetVisibility(ctx context.Context, noteID int64, isPublic bool) (*contract.NoteResponse, error) {
	var out contract.NoteResponse
	req := &contract.VisibilityRequest{IsPublic: &isPublic}
	if err := c.do(ctx, http.MethodPut, notePath(noteID)+"/visibility", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteNote(ctx context.Context, noteID int64) error {
	return c.do(ctx, http.MethodDelete, notePath(noteID), nil, nil)
}

func (c *Client) ShareNote(ctx context.Context, noteID int64, email string, canEdit bool) (*contract.ShareResponse, error) {
	var out contract.ShareResponse
	req := &contract.ShareRequest{Email: email, CanEdit: canEdit}
	if err := c.do(ctx, http.MethodPost, notePath(noteID)+"/shares", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListShares(ctx context.Context, noteID int64) ([]*contract.ShareResponse, error) {
	var out shareList
	if err := c.do(ctx, http.MethodGet, notePath(noteID)+"/shares", nil, &out); err != nil {
		return nil, err
	}
	return out.Shares, nil
}

func (c *Client) RevokeShare(ctx context.Context, shareID int64) error {
	return c.do(ctx, http.MethodDelete, "/api/shares/"+strconv.FormatInt(shareID, 10), nil, nil)
}

func notePath(noteID int64) string {
	return "/api/notes/" + strconv.FormatInt(noteID, 10)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return errors.Wrapf(err, "building url for %s", path)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(raw, out), "decoding response")
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// decodeError rebuilds the server's apierror from a failed response.
func decodeError(status int, raw []byte) apierror.ErrorResponse {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apierror.NewSimple(status, "%s", http.StatusText(status))
	}

	if len(body.Errors) > 0 {
		return &apierror.StructuredError{Errors: body.Errors, Status: status}
	}

	if body.Message == "" {
		body.Message = http.StatusText(status)
	}
	return apierror.NewSimple(status, "%s", body.Message)
}
