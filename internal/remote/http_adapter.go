package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coursesync/syncengine/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// requestTimeout is the default per-request timeout; on timeout the call
// counts as a failure per the concurrency model.
const requestTimeout = 30 * time.Second

// HTTPAdapter speaks the remote workspace-database's HTTP protocol. It is
// immutable after construction: the bearer token and HTTP client are fixed
// at NewHTTPAdapter time and shared, read-only, between the Scheduler and
// the HTTP Surface.
type HTTPAdapter struct {
	baseURL      string
	coursesDBID  string
	todosDBID    string
	httpClient   *http.Client
	log          *logrus.Entry
}

// NewHTTPAdapter builds a production Adapter authenticated with a static
// bearer token.
func NewHTTPAdapter(baseURL, token, coursesDBID, todosDBID string) *HTTPAdapter {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &HTTPAdapter{
		baseURL:     baseURL,
		coursesDBID: coursesDBID,
		todosDBID:   todosDBID,
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: &oauth2.Transport{Source: tokenSource, Base: http.DefaultTransport},
		},
		log: logrus.WithField("component", "remote-adapter"),
	}
}

// FetchCourses assembles every page of the remote courses database.
func (a *HTTPAdapter) FetchCourses(ctx context.Context) ([]*store.Course, error) {
	pages, err := a.queryAll(ctx, a.coursesDBID)
	if err != nil {
		return nil, err
	}
	out := make([]*store.Course, len(pages))
	for i, p := range pages {
		out[i] = courseFromPage(p)
	}
	return out, nil
}

// FetchTodos assembles every page of the remote todos database, resolving
// the relation property to course_id.
func (a *HTTPAdapter) FetchTodos(ctx context.Context) ([]*store.Todo, error) {
	pages, err := a.queryAll(ctx, a.todosDBID)
	if err != nil {
		return nil, err
	}
	out := make([]*store.Todo, len(pages))
	for i, p := range pages {
		out[i] = todoFromPage(p)
	}
	return out, nil
}

// PushCourse updates the remote record identified by c.ID with c's fields.
func (a *HTTPAdapter) PushCourse(ctx context.Context, c *store.Course) error {
	return a.patchPage(ctx, c.ID, coursePatchProperties(c))
}

// PushTodo updates the remote record identified by t.ID with t's fields.
func (a *HTTPAdapter) PushTodo(ctx context.Context, t *store.Todo) error {
	return a.patchPage(ctx, t.ID, todoPatchProperties(t))
}

// queryAll pages through a database's full result set, following
// next_cursor until has_more is false.
func (a *HTTPAdapter) queryAll(ctx context.Context, dbID string) ([]pageDTO, error) {
	var all []pageDTO
	cursor := ""

	for {
		resp, err := a.queryOnce(ctx, dbID, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Results...)
		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		cursor = *resp.NextCursor
	}

	return all, nil
}

func (a *HTTPAdapter) queryOnce(ctx context.Context, dbID, cursor string) (*queryResponse, error) {
	body, err := json.Marshal(queryRequest{StartCursor: cursor})
	if err != nil {
		return nil, fmt.Errorf("remote: encode query body: %w", err)
	}

	url := fmt.Sprintf("%s/v1/databases/%s/query", a.baseURL, dbID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		a.log.WithFields(logrus.Fields{"db_id": dbID, "error": err.Error(), "duration_ms": duration.Milliseconds()}).
			Error("remote query failed")
		return nil, fmt.Errorf("remote: query %s: %w", dbID, err)
	}
	defer resp.Body.Close()

	a.log.WithFields(logrus.Fields{"db_id": dbID, "status_code": resp.StatusCode, "duration_ms": duration.Milliseconds()}).
		Debug("remote query completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("remote: query %s: unexpected status %d", dbID, resp.StatusCode)
	}

	var parsed queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("remote: decode query response: %w", err)
	}
	return &parsed, nil
}

func (a *HTTPAdapter) patchPage(ctx context.Context, pageID string, properties map[string]interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{"properties": properties})
	if err != nil {
		return fmt.Errorf("remote: encode patch body: %w", err)
	}

	url := fmt.Sprintf("%s/v1/pages/%s", a.baseURL, pageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("remote: build patch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		a.log.WithFields(logrus.Fields{"page_id": pageID, "error": err.Error(), "duration_ms": duration.Milliseconds()}).
			Error("remote push failed")
		return fmt.Errorf("remote: push %s: %w", pageID, err)
	}
	defer resp.Body.Close()

	a.log.WithFields(logrus.Fields{"page_id": pageID, "status_code": resp.StatusCode, "duration_ms": duration.Milliseconds()}).
		Debug("remote push completed")

	if resp.StatusCode == http.StatusNotFound {
		return pageNotFoundError(pageID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("remote: push %s: unexpected status %d: %s", pageID, resp.StatusCode, string(b))
	}
	return nil
}
