// Package mcpserver exposes the ontokit service as Model Context Protocol
// tools so an assistant can browse and edit the index.
package mcpserver

import (
	"context"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jlrickert/ontokit/pkg/internal"
	"github.com/jlrickert/ontokit/pkg/onto"
	"github.com/jlrickert/ontokit/pkg/ontokit"
	"github.com/jlrickert/ontokit/pkg/prefs"
)

// Name is the implementation name reported to clients.
const Name = "ontokit"

// Server wraps an mcp.Server whose tools call into a Kit.
type Server struct {
	kit *ontokit.Kit
	mcp *mcp.Server
}

// New registers every tool against kit.
func New(kit *ontokit.Kit, version string) *Server {
	s := &Server{
		kit: kit,
		mcp: mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil),
	}
	s.register()
	return s
}

// MCP returns the underlying server, for custom transports.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// Run serves newline delimited JSON-RPC over in and out until ctx is done
// or the client disconnects.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	internal.LoggerFromContext(ctx).Info("mcp server starting", "transport", "stdio")
	return s.mcp.Run(ctx, &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	})
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type empty struct{}

type fragmentArgs struct {
	Ontology string `json:"ontology" jsonschema:"ontology the fragment belongs to"`
	Name     string `json:"name" jsonschema:"fragment name"`
}

func (a fragmentArgs) key() onto.FragmentKey {
	return onto.FragmentKey{Name: a.Name, Ontology: a.Ontology}
}

type listFragmentsArgs struct {
	Ontology string `json:"ontology,omitempty" jsonschema:"only list fragments of this ontology"`
}

type addOntologyArgs struct {
	Name string `json:"name" jsonschema:"unique ontology name"`
	URL  string `json:"url,omitempty" jsonschema:"where the ontology lives"`
}

type reviewArgs struct {
	Name    string `json:"name" jsonschema:"ontology name"`
	Approve bool   `json:"approve" jsonschema:"true to approve, false to reject"`
}

type nameArgs struct {
	Name string `json:"name" jsonschema:"ontology name"`
}

type testArgs struct {
	Ontology        string `json:"ontology" jsonschema:"ontology of the fragment"`
	Fragment        string `json:"fragment" jsonschema:"fragment name"`
	ID              string `json:"id,omitempty" jsonschema:"test id, required for updates"`
	Type            string `json:"type" jsonschema:"test type name or id prefix such as CQ"`
	Status          string `json:"status,omitempty"`
	Content         string `json:"content,omitempty" jsonschema:"natural language description"`
	Query           string `json:"query,omitempty" jsonschema:"inline query text"`
	Data            string `json:"data,omitempty" jsonschema:"inline dataset"`
	ExpectedResults string `json:"expectedResults,omitempty" jsonschema:"inline expected results"`
}

func (a testArgs) input() (onto.TestInput, error) {
	typ, err := onto.ParseTestType(a.Type)
	if err != nil {
		return onto.TestInput{}, err
	}
	in := onto.TestInput{Type: typ, Status: a.Status, Content: a.Content}
	if a.Query != "" {
		in.Query = onto.Inline(a.Query)
	}
	if a.Data != "" {
		in.Data = onto.Inline(a.Data)
	}
	if a.ExpectedResults != "" {
		in.ExpectedResults = onto.Inline(a.ExpectedResults)
	}
	return in, nil
}

type testRef struct {
	Ontology string `json:"ontology"`
	Fragment string `json:"fragment"`
	ID       string `json:"id"`
	Files    bool   `json:"files,omitempty" jsonschema:"include referenced file contents"`
}

type selectArgs struct {
	Repository string `json:"repository" jsonschema:"owner/name"`
	Branch     string `json:"branch,omitempty" jsonschema:"defaults to the repository default branch"`
}

type ontologiesOut struct {
	Pending []onto.Ontology `json:"pending"`
	Active  []onto.Ontology `json:"active"`
	Ignored []onto.Ontology `json:"ignored"`
}

type fragmentsOut struct {
	Fragments []onto.Fragment `json:"fragments"`
}

type dashboardOut struct {
	Markdown string `json:"markdown"`
}

// call adapts a Result returning operation to a tool handler. A failed
// Result is reported as a tool error with the result as structured output.
func call[In any](tool string, fn func(context.Context, In) (ontokit.Result, error)) mcp.ToolHandlerFor[In, ontokit.Result] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, ontokit.Result, error) {
		lg := internal.LoggerFromContext(ctx)
		res, err := fn(ctx, in)
		if err != nil {
			lg.Debug("mcp tool failed", "tool", tool, "err", err)
			return nil, ontokit.Result{}, err
		}
		lg.Debug("mcp tool done", "tool", tool, "success", res.Success, "kind", res.Kind)
		if !res.Success {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: res.Message}},
			}, res, nil
		}
		return nil, res, nil
	}
}

func (s *Server) register() {
	k := s.kit

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_ontologies",
		Description: "List ontologies grouped into pending, active and ignored.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ empty) (*mcp.CallToolResult, ontologiesOut, error) {
		p, err := k.Ontologies(ctx)
		if err != nil {
			return nil, ontologiesOut{}, err
		}
		return nil, ontologiesOut{Pending: nonNil(p.Pending), Active: nonNil(p.Active), Ignored: nonNil(p.Ignored)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_fragments",
		Description: "List fragments and their tests.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in listFragmentsArgs) (*mcp.CallToolResult, fragmentsOut, error) {
		frags, err := k.Fragments(ctx, in.Ontology)
		if err != nil {
			return nil, fragmentsOut{}, err
		}
		return nil, fragmentsOut{Fragments: nonNil(frags)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "show_test",
		Description: "Show one test, optionally with the content of its files.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in testRef) (*mcp.CallToolResult, ontokit.TestDetail, error) {
		d, err := k.ShowTest(ctx, onto.FragmentKey{Name: in.Fragment, Ontology: in.Ontology}, in.ID, in.Files)
		return nil, d, err
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "dashboard",
		Description: "Test counts per ontology by type and status, as a markdown table.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ empty) (*mcp.CallToolResult, dashboardOut, error) {
		stats, err := k.Stats(ctx)
		if err != nil {
			return nil, dashboardOut{}, err
		}
		return nil, dashboardOut{Markdown: ontokit.DashboardMarkdown(stats, k.Prefixes())}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add_ontology",
		Description: "Register a user defined ontology.",
	}, call("add_ontology", func(ctx context.Context, in addOntologyArgs) (ontokit.Result, error) {
		return k.AddOntology(ctx, onto.Ontology{Name: in.Name, URL: in.URL}, nil)
	}))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "review_ontology",
		Description: "Approve or reject a discovered ontology.",
	}, call("review_ontology", func(ctx context.Context, in reviewArgs) (ontokit.Result, error) {
		return k.ReviewOntology(ctx, in.Name, in.Approve)
	}))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_ontology",
		Description: "Delete an ontology and all of its fragments.",
	}, call("delete_ontology", func(ctx context.Context, in nameArgs) (ontokit.Result, error) {
		return k.DeleteOntology(ctx, in.Name)
	}))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "create_fragment",
		Description: "Create an empty fragment under an ontology.",
	}, call("create_fragment", func(ctx context.Context, in fragmentArgs) (ontokit.Result, error) {
		return k.CreateFragment(ctx, onto.Fragment{Name: in.Name, OntologyName: in.Ontology})
	}))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_fragment",
		Description: "Delete a fragment and its tests.",
	}, call("delete_fragment", func(ctx context.Context, in fragmentArgs) (ontokit.Result, error) {
		return k.DeleteFragment(ctx, in.key())
	}))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "create_test",
		Description: "Add a test to a fragment. The id is allocated from the type prefix.",
	}, call("create_test", func(ctx context.Context, in testArgs) (ontokit.Result, error) {
		ti, err := in.input()
		if err != nil {
			return ontokit.Result{}, err
		}
		return k.CreateTest(ctx, onto.FragmentKey{Name: in.Fragment, Ontology: in.Ontology}, ti)
	}))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "update_test",
		Description: "Update a test identified by id and type.",
	}, call("update_test", func(ctx context.Context, in testArgs) (ontokit.Result, error) {
		ti, err := in.input()
		if err != nil {
			return ontokit.Result{}, err
		}
		return k.UpdateTest(ctx, onto.FragmentKey{Name: in.Fragment, Ontology: in.Ontology}, in.ID, ti)
	}))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_test",
		Description: "Delete a test from a fragment.",
	}, call("delete_test", func(ctx context.Context, in testRef) (ontokit.Result, error) {
		return k.DeleteTest(ctx, onto.FragmentKey{Name: in.Fragment, Ontology: in.Ontology}, in.ID)
	}))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "select_repository",
		Description: "Select the repository and branch all other tools work on.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in selectArgs) (*mcp.CallToolResult, prefs.Selection, error) {
		sel, err := k.Select(ctx, in.Repository, in.Branch)
		return nil, sel, err
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
