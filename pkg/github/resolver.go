package github

import (
	"net/url"
	"strings"
)

// Endpoint templates. {repo} is the "owner/name" slug and {branch} the branch
// name; both are filled in by Resolver.Resolve.
const (
	TemplateContents  = "/repos/{repo}/contents/"
	TemplateBranches  = "/repos/{repo}/branches"
	TemplateRuns      = "/repos/{repo}/actions/runs"
	TemplateUserRepos = "/user/repos?type=all&per_page=100"
)

// BranchParam is the query parameter carrying the branch on contents reads.
const BranchParam = "ref"

// branchless lists endpoints that do not accept the branch query parameter.
var branchless = []string{TemplateUserRepos, TemplateBranches, TemplateRuns}

// SelectionSource yields the persisted repository/branch selection. Either
// value may be empty when the user has not chosen one yet.
type SelectionSource interface {
	Selected() (repository string, branch string)
}

// Override supplies an explicit repository and/or branch that take precedence
// over the persisted selection.
type Override struct {
	Repository string
	Branch     string
}

// Resolver turns endpoint templates into absolute API URLs.
type Resolver struct {
	// API is the API root, for example https://api.github.com.
	API string
	// Selection is consulted for values the Override leaves empty. May be nil.
	Selection SelectionSource
}

// Resolve substitutes the active repository and branch into template and
// returns the absolute URL. It returns ("", false) when the template needs a
// repository or branch that neither the override nor the selection supplies.
// That is a recoverable condition; callers with nothing to fall back to turn
// it into remote.ErrNoSelection.
func (r *Resolver) Resolve(template string, o Override) (string, bool) {
	repo, branch := o.Repository, o.Branch
	if r.Selection != nil && (repo == "" || branch == "") {
		selRepo, selBranch := r.Selection.Selected()
		if repo == "" {
			repo = selRepo
		}
		if branch == "" {
			branch = selBranch
		}
	}

	needsRepo := strings.Contains(template, "{repo}")
	appendBranch := !isBranchless(template)
	needsBranch := appendBranch || strings.Contains(template, "{branch}")

	if (needsRepo && repo == "") || (needsBranch && branch == "") {
		return "", false
	}

	resolved := strings.ReplaceAll(template, "{repo}", repo)
	resolved = strings.ReplaceAll(resolved, "{branch}", url.QueryEscape(branch))

	u, err := url.Parse(strings.TrimSuffix(r.API, "/") + resolved)
	if err != nil {
		return "", false
	}
	if appendBranch {
		q := u.Query()
		q.Set(BranchParam, branch)
		u.RawQuery = q.Encode()
	}
	return u.String(), true
}

func isBranchless(template string) bool {
	for _, b := range branchless {
		if template == b || strings.HasPrefix(template, b+"?") {
			return true
		}
	}
	return false
}

// ContentsTemplate returns the contents endpoint template for a repository
// path. Each path segment is escaped.
func ContentsTemplate(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return TemplateContents + strings.Join(segments, "/")
}
