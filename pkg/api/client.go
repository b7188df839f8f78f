package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/coursetide/coursetide/pkg/domain"
)

// TokenSource yields the current bearer credential, or "" when logged out.
// It is read per request so a login or logout mid-session takes effect on
// the next call without rebuilding the client.
type TokenSource interface {
	Token() string
}

// Client is the single chokepoint for all coursetide API calls. It attaches
// the bearer credential, classifies outcomes into the Kind taxonomy, and
// reports credential rejections through the unauthorized hook.
type Client struct {
	baseURL        string
	tokens         TokenSource
	httpClient     *http.Client
	onUnauthorized func()
}

// staticToken adapts a fixed string to TokenSource.
type staticToken string

func (t staticToken) Token() string { return string(t) }

// New creates an API client reading credentials from tokens.
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewWithToken creates a client bound to a fixed token. Used for one-shot
// verification right after login, before the token is persisted.
func NewWithToken(baseURL, token string) *Client {
	return New(baseURL, staticToken(token))
}

// SetUnauthorizedHook registers fn to run whenever a request is rejected for
// a missing or invalid credential. The hook may fire once per rejected
// request; deduplication within an invalidation episode is the session
// manager's job.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.onUnauthorized = fn
}

// --- Auth ---

// Login exchanges credentials for a bearer token. The login identifier may
// be a username or an email.
func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"login": login, "password": password}
	if err := c.post(ctx, "/users/login", body, &resp); err != nil {
		return "", fmt.Errorf("api.Login: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("api.Login: %w", &Error{Kind: KindDecode, Message: "no token in login response"})
	}
	return resp.Token, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.post(ctx, "/users/register", body, nil); err != nil {
		return fmt.Errorf("api.Register: %w", err)
	}
	return nil
}

// Profile returns the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*domain.Profile, error) {
	var p domain.Profile
	if err := c.get(ctx, "/users/profile", &p); err != nil {
		return nil, fmt.Errorf("api.Profile: %w", err)
	}
	return &p, nil
}

// ProfileUpdate is the payload for UpdateProfile. Password is only sent when
// non-empty; an empty value means "keep the current password".
type ProfileUpdate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// UpdateProfile replaces the profile and returns the server's copy.
func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*domain.Profile, error) {
	var p domain.Profile
	if err := c.doJSON(ctx, http.MethodPatch, "/users/profile", upd, &p); err != nil {
		return nil, fmt.Errorf("api.UpdateProfile: %w", err)
	}
	return &p, nil
}

// --- Courses ---

// MyCourses lists the authenticated user's courses.
func (c *Client) MyCourses(ctx context.Context) ([]domain.CourseSummary, error) {
	var courses []domain.CourseSummary
	if err := c.get(ctx, "/courses/my-courses", &courses); err != nil {
		return nil, fmt.Errorf("api.MyCourses: %w", err)
	}
	return courses, nil
}

// Course fetches a full course document.
func (c *Client) Course(ctx context.Context, id string) (*domain.Course, error) {
	var course domain.Course
	if err := c.get(ctx, "/courses/"+url.PathEscape(id), &course); err != nil {
		return nil, fmt.Errorf("api.Course: %w", err)
	}
	return &course, nil
}

// UpdateCourse replaces a course document wholesale (fields, modules,
// takeaways) and returns the server's copy, which may carry newly assigned
// module identities.
func (c *Client) UpdateCourse(ctx context.Context, id string, course *domain.Course) (*domain.Course, error) {
	var updated domain.Course
	if err := c.doJSON(ctx, http.MethodPut, "/courses/"+url.PathEscape(id), course, &updated); err != nil {
		return nil, fmt.Errorf("api.UpdateCourse: %w", err)
	}
	return &updated, nil
}

// GenerateOptions selects the model and extraction engine for course
// generation.
type GenerateOptions struct {
	AIModel   string `json:"aiModel"`
	PDFEngine string `json:"pdfEngine"`
}

// CreateCourseFromFile asks the service to generate a course from an
// uploaded file. Generation happens server-side; this returns the finished
// course.
func (c *Client) CreateCourseFromFile(ctx context.Context, fileID string, opts GenerateOptions) (*domain.Course, error) {
	body := struct {
		FileID  string          `json:"fileId"`
		Options GenerateOptions `json:"options"`
	}{FileID: fileID, Options: opts}

	var course domain.Course
	if err := c.post(ctx, "/courses/create-from-file", body, &course); err != nil {
		return nil, fmt.Errorf("api.CreateCourseFromFile: %w", err)
	}
	return &course, nil
}

// AvailableModels returns the generation models keyed by option ID.
func (c *Client) AvailableModels(ctx context.Context) (map[string]domain.ModelOption, error) {
	var models map[string]domain.ModelOption
	if err := c.get(ctx, "/courses/available-models", &models); err != nil {
		return nil, fmt.Errorf("api.AvailableModels: %w", err)
	}
	return models, nil
}

// AvailableEngines returns the PDF engines keyed by option ID.
func (c *Client) AvailableEngines(ctx context.Context) (map[string]domain.EngineOption, error) {
	var engines map[string]domain.EngineOption
	if err := c.get(ctx, "/courses/available-engines", &engines); err != nil {
		return nil, fmt.Errorf("api.AvailableEngines: %w", err)
	}
	return engines, nil
}

// ExportMarkdown returns the server-rendered markdown for the last-saved
// state of a course. The response is raw text, not JSON.
func (c *Client) ExportMarkdown(ctx context.Context, id string) (string, error) {
	text, err := c.text(ctx, "/courses/"+url.PathEscape(id)+"/export/markdown")
	if err != nil {
		return "", fmt.Errorf("api.ExportMarkdown: %w", err)
	}
	return text, nil
}

// --- Files ---

// MyFiles lists the authenticated user's uploaded files.
func (c *Client) MyFiles(ctx context.Context) ([]domain.File, error) {
	var files []domain.File
	if err := c.get(ctx, "/files/my-files", &files); err != nil {
		return nil, fmt.Errorf("api.MyFiles: %w", err)
	}
	return files, nil
}

// UploadFile streams a file as multipart form data under the "file" field
// and returns the stored file's metadata.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) (*domain.File, error) {
	var f domain.File
	if err := c.postForm(ctx, "/files/upload", "file", name, r, &f); err != nil {
		return nil, fmt.Errorf("api.UploadFile: %w", err)
	}
	return &f, nil
}

// DeleteFile removes an uploaded file. The service answers 204.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/files/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("api.DeleteFile: %w", err)
	}
	return nil
}

// --- Stats ---

// UserStats returns the account-level usage summary.
func (c *Client) UserStats(ctx context.Context) (*domain.UserStats, error) {
	var stats domain.UserStats
	if err := c.get(ctx, "/stats/user", &stats); err != nil {
		return nil, fmt.Errorf("api.UserStats: %w", err)
	}
	return &stats, nil
}

// ModelUsage returns per-model usage rows.
func (c *Client) ModelUsage(ctx context.Context) ([]domain.ModelUsage, error) {
	var usage []domain.ModelUsage
	if err := c.get(ctx, "/stats/model-usage", &usage); err != nil {
		return nil, fmt.Errorf("api.ModelUsage: %w", err)
	}
	return usage, nil
}

// RecentActivity returns the recent-activity feed.
func (c *Client) RecentActivity(ctx context.Context) ([]domain.Activity, error) {
	var entries []domain.Activity
	if err := c.get(ctx, "/stats/recent-activity", &entries); err != nil {
		return nil, fmt.Errorf("api.RecentActivity: %w", err)
	}
	return entries, nil
}

// --- Transport ---

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

// doJSON sends a JSON request and decodes a JSON response into out.
// A 204 or empty body leaves out untouched.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// postForm sends r as a multipart form upload. The content type carries the
// multipart boundary chosen by the writer; nothing else may override it or
// the server cannot split the parts.
func (c *Client) postForm(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req, out)
}

// text sends a GET and returns the raw response body, for endpoints that
// answer with something other than JSON.
func (c *Client) text(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	c.attachToken(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return "", c.classify(resp)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &Error{Kind: KindDecode, Message: "read response: " + err.Error()}
	}
	return string(data), nil
}

// maxBodySize caps how much of any response body is read.
const maxBodySize = 1 << 20 // 1 MB

// send attaches the credential, executes the request, and classifies the
// outcome. Requests go out even with no credential present; the server is
// authoritative about which endpoints need auth.
func (c *Client) send(req *http.Request, out any) error {
	c.attachToken(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return c.classify(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || resp.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			// Empty body with no content-length header: success with
			// an absent value.
			return nil
		}
		return &Error{Kind: KindDecode, Message: "decode response: " + err.Error()}
	}
	return nil
}

func (c *Client) attachToken(req *http.Request) {
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

// classify normalizes an error response into the taxonomy. Error bodies may
// carry a message under "message" or "error", or no body at all; downstream
// code never sniffs response shapes itself.
func (c *Client) classify(resp *http.Response) error {
	msg := http.StatusText(resp.StatusCode)
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if readErr == nil && len(body) > 0 {
		var apiErr struct {
			Message string `json:"message"`
			Err     string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil {
			if apiErr.Message != "" {
				msg = apiErr.Message
			} else if apiErr.Err != "" {
				msg = apiErr.Err
			}
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return &Error{Kind: KindUnauthorized, Status: resp.StatusCode, Message: msg}
	case resp.StatusCode >= 500:
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: msg}
	default:
		return &Error{Kind: KindClient, Status: resp.StatusCode, Message: msg}
	}
}
