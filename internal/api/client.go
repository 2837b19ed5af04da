package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"milepost-cli/internal/model"
	"milepost-cli/internal/session"
)

// Client is the typed request layer over the task server. Every call reads
// the live session token at call time, sends JSON, and classifies the
// result into the error taxonomy in errors.go. A 401 on any authenticated
// endpoint forces the session back to anonymous before the error is
// returned.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
}

// New builds a client for the given base URL. timeout 0 means no
// per-request timeout (the original behaviour; a hung request blocks that
// operation until cancelled via ctx).
func New(baseURL string, timeout time.Duration, sess *session.Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		session: sess,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Login exchanges credentials for a token and establishes the session with
// the canonical username the server returns.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/login", nil, loginRequest{Username: username, Password: password}, &resp, false)
	if err != nil {
		return err
	}
	return c.session.Establish(resp.Token, resp.Username)
}

// LoadTask fetches the full task record (summaries omit the heavy fields).
func (c *Client) LoadTask(ctx context.Context, taskID string) (*model.Task, error) {
	var t model.Task
	if err := c.do(ctx, http.MethodGet, "/load-task/"+url.PathEscape(taskID), nil, nil, &t, true); err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveTask upserts a task. The server keys on the id, so repeating a save
// is idempotent.
func (c *Client) SaveTask(ctx context.Context, t model.Task) error {
	return c.do(ctx, http.MethodPut, "/save-task/"+url.PathEscape(t.ID), nil, t, nil, true)
}

// DeleteTask removes a task; the server cascade-deletes its milestones.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/delete-task/"+url.PathEscape(taskID), nil, nil, nil, true)
}

// LoadMilestones lists all milestones of one task.
func (c *Client) LoadMilestones(ctx context.Context, taskID string) ([]model.Milestone, error) {
	var ms []model.Milestone
	if err := c.do(ctx, http.MethodGet, "/load-milestones/"+url.PathEscape(taskID), nil, nil, &ms, true); err != nil {
		return nil, err
	}
	return ms, nil
}

// LoadMilestone fetches one milestone.
func (c *Client) LoadMilestone(ctx context.Context, taskID, milestoneID string) (*model.Milestone, error) {
	var m model.Milestone
	p := "/load-milestone/" + url.PathEscape(taskID) + "/" + url.PathEscape(milestoneID)
	if err := c.do(ctx, http.MethodGet, p, nil, nil, &m, true); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMilestone upserts a milestone under its owning task.
func (c *Client) SaveMilestone(ctx context.Context, m model.Milestone) error {
	p := "/save-milestone/" + url.PathEscape(m.TaskID) + "/" + url.PathEscape(m.ID)
	return c.do(ctx, http.MethodPut, p, nil, m, nil, true)
}

// DeleteMilestone removes one milestone. The server refuses (409) while
// other milestones still point at it as their parent; mutate performs the
// same check client-side first.
func (c *Client) DeleteMilestone(ctx context.Context, taskID, milestoneID string) error {
	p := "/delete-milestone/" + url.PathEscape(taskID) + "/" + url.PathEscape(milestoneID)
	return c.do(ctx, http.MethodDelete, p, nil, nil, nil, true)
}

// TaskSummaries returns the filtered, server-sorted summary list.
func (c *Client) TaskSummaries(ctx context.Context, f Filter) ([]model.TaskSummary, error) {
	var out []model.TaskSummary
	if err := c.do(ctx, http.MethodGet, "/tasks-summary", f.Values(), nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// TaskCounts returns the status → task count map.
func (c *Client) TaskCounts(ctx context.Context) (map[string]int, error) {
	out := map[string]int{}
	if err := c.do(ctx, http.MethodGet, "/task-counts", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// DistinctStatuses returns the statuses the server has seen for this user,
// used to seed the local status taxonomy.
func (c *Client) DistinctStatuses(ctx context.Context) ([]string, error) {
	return c.distinct(ctx, "/get-statuses")
}

// DistinctCategories returns the categories the server has seen.
func (c *Client) DistinctCategories(ctx context.Context) ([]string, error) {
	return c.distinct(ctx, "/get-categories")
}

// DistinctFroms returns the source tags the server has seen.
func (c *Client) DistinctFroms(ctx context.Context) ([]string, error) {
	return c.distinct(ctx, "/get-from-values")
}

func (c *Client) distinct(ctx context.Context, path string) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, needAuth bool) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if needAuth {
		hdr, ok := c.session.AuthHeaderValue()
		if !ok {
			return session.ErrAuthRequired
		}
		req.Header.Set("Authorization", hdr)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.ForceLogout()
		return &AuthError{Message: serverMessage(raw)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(raw)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &ServerError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// serverMessage pulls the error/message field out of a JSON body.
// Non-JSON bodies are tolerated and yield "".
func serverMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if strings.TrimSpace(body.Error) != "" {
		return strings.TrimSpace(body.Error)
	}
	return strings.TrimSpace(body.Message)
}
