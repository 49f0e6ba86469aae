// Package ghfake is an in-process fake of the parts of the GitHub REST API
// ontokit talks to: the repository contents endpoints (with ETags and sha
// preconditions), and the repository, branch and workflow-run listings.
//
// It is meant for tests. Each repository/branch pair is backed by its own
// remote.MemoryStore so precondition behavior matches the real client tests.
package ghfake

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/jlrickert/ontokit/pkg/remote"
)

// DefaultBranch is used when a request carries no ref.
const DefaultBranch = "main"

// Request is a recorded request, for assertions.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	IfNoneMatch string
	Auth        string
	Body        map[string]any
}

type failure struct {
	status  int
	message string
}

// Server is a running fake. Close it when done.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	stores   map[string]*remote.MemoryStore
	repos    []map[string]any
	runs     map[string][]map[string]any
	requests []Request
	failures []failure
}

// New starts a fake server.
func New() *Server {
	s := &Server{
		stores: make(map[string]*remote.MemoryStore),
		runs:   make(map[string][]map[string]any),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.record)

	e.GET("/user/repos", s.getUserRepos)
	e.GET("/repos/:owner/:repo/branches", s.getBranches)
	e.GET("/repos/:owner/:repo/actions/runs", s.getRuns)
	e.GET("/repos/:owner/:repo/contents/*", s.getContents)
	e.PUT("/repos/:owner/:repo/contents/*", s.putContents)

	s.Server = httptest.NewServer(e)
	return s
}

// Store returns the backing store for repo at branch, creating it if needed.
func (s *Server) Store(repo, branch string) *remote.MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeLocked(repo, branch)
}

func (s *Server) storeLocked(repo, branch string) *remote.MemoryStore {
	if branch == "" {
		branch = DefaultBranch
	}
	key := repo + "@" + branch
	st, ok := s.stores[key]
	if !ok {
		st = remote.NewMemoryStore()
		s.stores[key] = st
	}
	return st
}

// Seed writes a file directly into the fake, bypassing HTTP. It returns the
// resulting sha.
func (s *Server) Seed(repo, branch, p string, data []byte) string {
	st := s.Store(repo, branch)
	// replace whatever is there
	st.Delete(p)
	res, err := st.Put(context.Background(), p, remote.PutRequest{Data: data})
	if err != nil {
		panic(err)
	}
	return res.SHA
}

// AddRepository registers a repository returned by /user/repos.
func (s *Server) AddRepository(fullName, defaultBranch string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, name, _ := strings.Cut(fullName, "/")
	s.repos = append(s.repos, map[string]any{
		"full_name":      fullName,
		"name":           name,
		"default_branch": defaultBranch,
		"private":        false,
		"owner":          map[string]any{"login": owner},
	})
	s.storeLocked(fullName, defaultBranch)
}

// AddRun registers a workflow run for repo.
func (s *Server) AddRun(repo string, id int64, name, branch, status, conclusion string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[repo] = append(s.runs[repo], map[string]any{
		"id":          id,
		"name":        name,
		"head_branch": branch,
		"status":      status,
		"conclusion":  conclusion,
		"created_at":  "2025-01-02T03:04:05Z",
	})
}

// FailNext makes the next request fail with status and a GitHub style
// {"message": ...} body.
func (s *Server) FailNext(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{status: status, message: message})
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts recorded requests with the given method.
func (s *Server) CountRequests(method string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method {
			n++
		}
	}
	return n
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		rec := Request{
			Method:      req.Method,
			Path:        req.URL.Path,
			Query:       req.URL.Query(),
			IfNoneMatch: req.Header.Get("If-None-Match"),
			Auth:        req.Header.Get("Authorization"),
		}
		if req.Method == http.MethodPut {
			var body map[string]any
			if err := json.NewDecoder(req.Body).Decode(&body); err == nil {
				rec.Body = body
			}
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		var f *failure
		if len(s.failures) > 0 {
			f = &s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()

		if f != nil {
			return c.JSON(f.status, map[string]string{"message": f.message})
		}
		c.Set("body", rec.Body)
		return next(c)
	}
}

func repoOf(c echo.Context) string {
	return c.Param("owner") + "/" + c.Param("repo")
}

func contentPath(c echo.Context) string {
	p := c.Param("*")
	if un, err := url.PathUnescape(p); err == nil {
		p = un
	}
	return strings.Trim(p, "/")
}

func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]string{"message": "Not Found"})
}

// wrap60 splits base64 text into 60 column lines like GitHub does.
func wrap60(s string) string {
	var b strings.Builder
	for len(s) > 60 {
		b.WriteString(s[:60])
		b.WriteByte('\n')
		s = s[60:]
	}
	b.WriteString(s)
	b.WriteByte('\n')
	return b.String()
}

func (s *Server) getContents(c echo.Context) error {
	ctx := c.Request().Context()
	st := s.Store(repoOf(c), c.QueryParam("ref"))
	p := contentPath(c)

	obj, err := st.Get(ctx, p, c.Request().Header.Get("If-None-Match"))
	if err == nil {
		c.Response().Header().Set("ETag", obj.ETag)
		if obj.NotModified {
			return c.NoContent(http.StatusNotModified)
		}
		return c.JSON(http.StatusOK, map[string]any{
			"type":     "file",
			"name":     path.Base(p),
			"path":     p,
			"sha":      obj.SHA,
			"content":  wrap60(base64.StdEncoding.EncodeToString(obj.Data)),
			"encoding": "base64",
		})
	}
	if !errors.Is(err, remote.ErrNotExist) {
		return err
	}

	entries, err := st.List(ctx, p)
	if err != nil {
		return notFound(c)
	}
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"type": string(e.Type),
			"name": e.Name,
			"path": e.Path,
			"sha":  e.SHA,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) putContents(c echo.Context) error {
	body, _ := c.Get("body").(map[string]any)
	if body == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
	}
	message, _ := body["message"].(string)
	content, _ := body["content"].(string)
	sha, _ := body["sha"].(string)
	branch, _ := body["branch"].(string)
	if message == "" {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"message": "Invalid request.\n\n\"message\" wasn't supplied."})
	}
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "content is not valid Base64"})
	}
	if branch == "" {
		branch = c.QueryParam("ref")
	}

	st := s.Store(repoOf(c), branch)
	p := contentPath(c)
	res, err := st.Put(c.Request().Context(), p, remote.PutRequest{Message: message, Data: data, SHA: sha})
	if err != nil {
		var ce *remote.ConflictError
		if errors.As(err, &ce) && sha == "" {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"message": "Invalid request.\n\n\"sha\" wasn't supplied."})
		}
		if errors.As(err, &ce) {
			return c.JSON(http.StatusConflict, map[string]string{"message": ce.Message})
		}
		return err
	}

	status := http.StatusOK
	if sha == "" {
		status = http.StatusCreated
	}
	return c.JSON(status, map[string]any{
		"content": map[string]any{"name": path.Base(res.Path), "path": res.Path, "sha": res.SHA},
		"commit":  map[string]any{"message": message},
	})
}

// jsonWithETag writes v with a content-derived ETag and honors If-None-Match.
func jsonWithETag(c echo.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	etag := `"` + remote.BlobSHA(b) + `"`
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, b)
}

func (s *Server) getUserRepos(c echo.Context) error {
	s.mu.Lock()
	repos := append([]map[string]any{}, s.repos...)
	s.mu.Unlock()
	return jsonWithETag(c, repos)
}

func (s *Server) getBranches(c echo.Context) error {
	repo := repoOf(c)
	s.mu.Lock()
	branches := []map[string]any{}
	for key := range s.stores {
		r, b, _ := strings.Cut(key, "@")
		if r == repo {
			branches = append(branches, map[string]any{"name": b, "commit": map[string]any{"sha": remote.BlobSHA([]byte(key))}})
		}
	}
	s.mu.Unlock()
	if len(branches) == 0 {
		return notFound(c)
	}
	sortByName(branches)
	return jsonWithETag(c, branches)
}

func (s *Server) getRuns(c echo.Context) error {
	repo := repoOf(c)
	branch := c.QueryParam("branch")
	s.mu.Lock()
	runs := []map[string]any{}
	for _, r := range s.runs[repo] {
		if branch == "" || r["head_branch"] == branch {
			runs = append(runs, r)
		}
	}
	s.mu.Unlock()
	return jsonWithETag(c, map[string]any{"total_count": len(runs), "workflow_runs": runs})
}

func sortByName(items []map[string]any) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j]["name"].(string) < items[j-1]["name"].(string); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}
