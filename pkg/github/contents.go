package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jlrickert/ontokit/pkg/remote"
)

type contentResponse struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type listingEntry struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Path string `json:"path"`
	SHA  string `json:"sha"`
}

type putBody struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type putResponse struct {
	Content struct {
		Name string `json:"name"`
		Path string `json:"path"`
		SHA  string `json:"sha"`
	} `json:"content"`
}

// ContentsStore implements remote.Store over the repository contents API of
// one repository/branch. Empty Override fields fall back to the client's
// persisted selection at call time.
type ContentsStore struct {
	client   *Client
	override Override
}

// Contents returns a store bound to o.
func (c *Client) Contents(o Override) *ContentsStore {
	return &ContentsStore{client: c, override: o}
}

func (s *ContentsStore) Name() string {
	return backendName
}

func (s *ContentsStore) resolve(p string) (string, error) {
	u, ok := s.client.resolver.Resolve(ContentsTemplate(p), s.override)
	if !ok {
		return "", fmt.Errorf("resolve %s: %w", p, remote.ErrNoSelection)
	}
	return u, nil
}

func (s *ContentsStore) branch() string {
	if s.override.Branch != "" {
		return s.override.Branch
	}
	if sel := s.client.resolver.Selection; sel != nil {
		_, b := sel.Selected()
		return b
	}
	return ""
}

// Get reads a file and decodes its base64 payload.
func (s *ContentsStore) Get(ctx context.Context, p string, etag string) (*remote.Object, error) {
	u, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.conditionalGet(ctx, u, etag, "Get")
	if err != nil {
		return nil, err
	}
	if obj.NotModified {
		obj.Path = p
		return obj, nil
	}

	var cr contentResponse
	if err := json.Unmarshal(obj.Data, &cr); err != nil {
		return nil, remote.NewBackendError(backendName, "Get", http.StatusOK,
			fmt.Sprintf("%s is not a file", p), fmt.Errorf("%w: %w", remote.ErrInvalid, err), false)
	}
	if cr.Type != "" && cr.Type != "file" {
		return nil, remote.NewBackendError(backendName, "Get", http.StatusOK,
			fmt.Sprintf("%s is a %s, not a file", p, cr.Type), remote.ErrInvalid, false)
	}
	data, err := decodeContent(cr.Content, cr.Encoding)
	if err != nil {
		return nil, remote.NewBackendError(backendName, "Get", http.StatusOK,
			fmt.Sprintf("cannot decode content of %s", p), fmt.Errorf("%w: %w", remote.ErrParse, err), false)
	}
	return &remote.Object{Path: cr.Path, Data: data, SHA: cr.SHA, ETag: obj.ETag}, nil
}

// Put writes a file. The SHA precondition is enforced by GitHub.
func (s *ContentsStore) Put(ctx context.Context, p string, req remote.PutRequest) (*remote.PutResult, error) {
	u, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	body := putBody{
		Message: req.Message,
		Content: base64.StdEncoding.EncodeToString(req.Data),
		SHA:     req.SHA,
		Branch:  s.branch(),
	}
	hreq, err := s.client.newRequest(ctx, http.MethodPut, u, body)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.do(hreq, "Put")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var pr putResponse
	if err := decodeJSONResponse(resp, "Put", p, req.SHA, &pr); err != nil {
		return nil, err
	}
	path := pr.Content.Path
	if path == "" {
		path = p
	}
	return &remote.PutResult{Path: path, SHA: pr.Content.SHA}, nil
}

// List returns the directory listing of dir. GitHub answers 404 for a
// missing directory, which surfaces as remote.ErrNotExist.
func (s *ContentsStore) List(ctx context.Context, dir string) ([]remote.Entry, error) {
	u, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	hreq, err := s.client.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.do(hreq, "List")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []listingEntry
	if err := decodeJSONResponse(resp, "List", dir, "", &entries); err != nil {
		return nil, err
	}
	out := make([]remote.Entry, 0, len(entries))
	for _, e := range entries {
		typ := remote.EntryFile
		if e.Type == "dir" {
			typ = remote.EntryDir
		}
		out = append(out, remote.Entry{Name: e.Name, Path: e.Path, Type: typ, SHA: e.SHA})
	}
	return out, nil
}

// decodeContent removes the transport encoding from a contents payload.
// GitHub wraps base64 at 60 columns, so embedded newlines are dropped first.
func decodeContent(body string, encoding string) ([]byte, error) {
	switch encoding {
	case "base64":
		clean := strings.NewReplacer("\n", "", "\r", "").Replace(body)
		return base64.StdEncoding.DecodeString(clean)
	case "", "utf-8":
		return []byte(body), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

var _ remote.Store = (*ContentsStore)(nil)
