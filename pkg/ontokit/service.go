package ontokit

import (
	"context"
	"fmt"

	"github.com/jlrickert/ontokit/pkg/github"
	"github.com/jlrickert/ontokit/pkg/onto"
	"github.com/jlrickert/ontokit/pkg/prefs"
	"github.com/jlrickert/ontokit/pkg/remote"
)

// Document returns the current index document.
func (k *Kit) Document(ctx context.Context) (onto.Document, error) {
	ix, err := k.Index(ctx)
	if err != nil {
		return onto.Document{}, err
	}
	return ix.Document(ctx)
}

// Ontologies returns the ontologies grouped by review state.
func (k *Kit) Ontologies(ctx context.Context) (onto.Partition, error) {
	doc, err := k.Document(ctx)
	if err != nil {
		return onto.Partition{}, err
	}
	return onto.PartitionOntologies(doc), nil
}

// Fragments returns the fragments of ontology, or all of them when ontology
// is empty.
func (k *Kit) Fragments(ctx context.Context, ontology string) ([]onto.Fragment, error) {
	doc, err := k.Document(ctx)
	if err != nil {
		return nil, err
	}
	if ontology == "" {
		return doc.Fragments, nil
	}
	return onto.FragmentsOf(doc, ontology), nil
}

// Stats computes the dashboard numbers.
func (k *Kit) Stats(ctx context.Context) (onto.Stats, error) {
	doc, err := k.Document(ctx)
	if err != nil {
		return onto.Stats{}, err
	}
	return onto.Dashboard(doc), nil
}

// Preview renders the diff t would produce without writing.
func (k *Kit) Preview(ctx context.Context, t onto.Transform) (string, error) {
	ix, err := k.Index(ctx)
	if err != nil {
		return "", err
	}
	return ix.Preview(ctx, t)
}

// Init creates the index document if the selected branch has none.
func (k *Kit) Init(ctx context.Context) (Result, error) {
	ix, err := k.Index(ctx)
	if err != nil {
		return Result{}, err
	}
	created, err := ix.Init(ctx)
	if err != nil {
		return classify(err)
	}
	if !created {
		return OK(ix.Path()+" already exists", nil), nil
	}
	return OK("Created "+ix.Path(), nil), nil
}

// AddOntology registers a user defined ontology. When file is given it is
// uploaded to <base>/<ontology>/ first and its path becomes the ontology
// URL unless one was supplied.
func (k *Kit) AddOntology(ctx context.Context, o onto.Ontology, file *onto.File) (Result, error) {
	if o.Name == "" {
		return Result{}, fmt.Errorf("ontology name is required: %w", remote.ErrInvalid)
	}
	ix, up, err := k.bind(ctx)
	if err != nil {
		return Result{}, err
	}
	doc, err := ix.Document(ctx)
	if err != nil {
		return classify(err)
	}
	if _, exists := onto.FindOntology(doc, o.Name); exists {
		return Fail(KindDuplicate, onto.ErrOntologyExists.Error()), nil
	}

	o.UserDefined = true
	if file != nil {
		dir := onto.OntologyFilePath(k.cfg.BaseDir, o.Name, "")
		name, err := up.Upload(ctx, file, dir)
		if err != nil {
			return classify(err)
		}
		if o.URL == "" {
			o.URL = onto.OntologyFilePath(k.cfg.BaseDir, o.Name, name)
		}
	}
	if err := ix.AddOntology(ctx, o); err != nil {
		return classify(err)
	}
	return OK("Ontology added", o), nil
}

// ReviewOntology approves or rejects a discovered ontology. Approval marks it
// parsed; rejection marks it ignored. The change goes through the bulk
// update, which matches on URL.
func (k *Kit) ReviewOntology(ctx context.Context, name string, approve bool) (Result, error) {
	if name == "" {
		return Result{}, fmt.Errorf("ontology name is required: %w", remote.ErrInvalid)
	}
	ix, err := k.Index(ctx)
	if err != nil {
		return Result{}, err
	}
	doc, err := ix.Document(ctx)
	if err != nil {
		return classify(err)
	}
	o, ok := onto.FindOntology(doc, name)
	if !ok {
		return Fail(KindNotFound, onto.ErrOntologyNotFound.Error()), nil
	}
	if o.URL == "" {
		return Fail(KindInvalid, "Ontology has no url and cannot be reviewed"), nil
	}
	if approve {
		o.Parsed, o.Ignored = true, false
	} else {
		o.Ignored = true
	}
	if err := ix.UpdateOntologies(ctx, []onto.Ontology{o}); err != nil {
		return classify(err)
	}
	if approve {
		return OK("Ontology approved", o), nil
	}
	return OK("Ontology rejected", o), nil
}

// UpdateOntologies merges list into the index by URL.
func (k *Kit) UpdateOntologies(ctx context.Context, list []onto.Ontology) (Result, error) {
	ix, err := k.Index(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := ix.UpdateOntologies(ctx, list); err != nil {
		return classify(err)
	}
	return OK("Ontologies updated", nil), nil
}

// DeleteOntology removes an ontology and its fragments.
func (k *Kit) DeleteOntology(ctx context.Context, name string) (Result, error) {
	ix, err := k.Index(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := ix.DeleteOntology(ctx, name); err != nil {
		return classify(err)
	}
	return OK("Ontology deleted", nil), nil
}

// CreateFragment adds a fragment.
func (k *Kit) CreateFragment(ctx context.Context, f onto.Fragment) (Result, error) {
	ix, err := k.Index(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := ix.CreateFragment(ctx, f); err != nil {
		return classify(err)
	}
	return OK("Fragment created", f), nil
}

// UpdateFragment renames or moves a fragment.
func (k *Kit) UpdateFragment(ctx context.Context, key onto.FragmentKey, f onto.Fragment) (Result, error) {
	ix, err := k.Index(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := ix.UpdateFragment(ctx, key, f); err != nil {
		return classify(err)
	}
	return OK("Fragment updated", f.Key()), nil
}

// DeleteFragment removes a fragment. Its uploaded files stay.
func (k *Kit) DeleteFragment(ctx context.Context, key onto.FragmentKey) (Result, error) {
	ix, err := k.Index(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := ix.DeleteFragment(ctx, key); err != nil {
		return classify(err)
	}
	return OK("Fragment deleted", nil), nil
}

// CreateTest uploads any new files of in and adds the test. The result data
// is the created onto.Test.
func (k *Kit) CreateTest(ctx context.Context, key onto.FragmentKey, in onto.TestInput) (Result, error) {
	if !in.Type.Valid() {
		return Result{}, fmt.Errorf("unknown test type %q: %w", in.Type, remote.ErrInvalid)
	}
	ix, up, err := k.bind(ctx)
	if err != nil {
		return Result{}, err
	}
	if res, ok := k.requireFragment(ctx, ix, key); !ok {
		return res, nil
	}
	resolved, err := up.ResolveUploads(ctx, k.cfg.BaseDir, key, in)
	if err != nil {
		return classify(err)
	}
	t, err := ix.CreateTest(ctx, key, resolved)
	if err != nil {
		return classify(err)
	}
	return OK("Test created", t), nil
}

// UpdateTest uploads any new files of in and updates test id.
func (k *Kit) UpdateTest(ctx context.Context, key onto.FragmentKey, id string, in onto.TestInput) (Result, error) {
	if !in.Type.Valid() {
		return Result{}, fmt.Errorf("unknown test type %q: %w", in.Type, remote.ErrInvalid)
	}
	ix, up, err := k.bind(ctx)
	if err != nil {
		return Result{}, err
	}
	if res, ok := k.requireFragment(ctx, ix, key); !ok {
		return res, nil
	}
	resolved, err := up.ResolveUploads(ctx, k.cfg.BaseDir, key, in)
	if err != nil {
		return classify(err)
	}
	if err := ix.UpdateTest(ctx, key, id, resolved); err != nil {
		return classify(err)
	}
	return OK("Test updated", id), nil
}

// requireFragment avoids uploading files for a fragment that does not exist.
func (k *Kit) requireFragment(ctx context.Context, ix *onto.Index, key onto.FragmentKey) (Result, bool) {
	doc, err := ix.Document(ctx)
	if err != nil {
		// the mutation will report it
		return Result{}, true
	}
	if _, ok := onto.FindFragment(doc, key); !ok {
		return Fail(KindNotFound, onto.ErrFragmentNotFound.Error()), false
	}
	return Result{}, true
}

// DeleteTest removes a test.
func (k *Kit) DeleteTest(ctx context.Context, key onto.FragmentKey, id string) (Result, error) {
	ix, err := k.Index(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := ix.DeleteTest(ctx, key, id); err != nil {
		return classify(err)
	}
	return OK("Test deleted", nil), nil
}

// UploadFile stores file in a folder of the fragment at key. The result
// data is the stored file name.
func (k *Kit) UploadFile(ctx context.Context, key onto.FragmentKey, folder onto.FileFolder, file *onto.File) (Result, error) {
	if key.Name == "" || key.Ontology == "" {
		return Result{}, fmt.Errorf("fragment name and ontology are required: %w", remote.ErrInvalid)
	}
	up, err := k.Uploader(ctx)
	if err != nil {
		return Result{}, err
	}
	name, err := up.Upload(ctx, file, onto.FragmentDir(k.cfg.BaseDir, key, folder))
	if err != nil {
		return classify(err)
	}
	return OK("Uploaded file "+name, name), nil
}

// TestDetail is a test with the content of its referenced files.
type TestDetail struct {
	Fragment onto.FragmentKey `json:"fragment"`
	Test     onto.Test        `json:"test"`
	// Files maps a folder to the referenced file's content.
	Files map[onto.FileFolder]string `json:"files,omitempty"`
}

// ShowTest returns test id of the fragment at key. With files set, the
// content of each referenced file is read from the repository.
func (k *Kit) ShowTest(ctx context.Context, key onto.FragmentKey, id string, files bool) (TestDetail, error) {
	doc, err := k.Document(ctx)
	if err != nil {
		return TestDetail{}, err
	}
	if _, ok := onto.FindFragment(doc, key); !ok {
		return TestDetail{}, fmt.Errorf("%s: %w", key, onto.ErrFragmentNotFound)
	}
	t, ok := onto.FindTest(doc, key, id)
	if !ok {
		return TestDetail{}, fmt.Errorf("%s in %s: %w", id, key, onto.ErrTestNotFound)
	}
	detail := TestDetail{Fragment: key, Test: t}
	if !files {
		return detail, nil
	}

	store, err := k.Store()
	if err != nil {
		return TestDetail{}, err
	}
	detail.Files = map[onto.FileFolder]string{}
	for folder, name := range map[onto.FileFolder]string{
		onto.FolderQueries:         t.QueryFileName,
		onto.FolderDatasets:        t.DataFileName,
		onto.FolderExpectedResults: t.ExpectedResultsFileName,
	} {
		if name == "" {
			continue
		}
		obj, err := store.Get(ctx, onto.FilePath(k.cfg.BaseDir, key.Ontology, key.Name, folder, name), "")
		if err != nil {
			return TestDetail{}, err
		}
		detail.Files[folder] = string(obj.Data)
	}
	return detail, nil
}

// Repositories lists repositories visible to the token.
func (k *Kit) Repositories(ctx context.Context) ([]github.Repository, error) {
	return k.client.ListRepositories(ctx)
}

// Branches lists branches of repo, or of the selected repository.
func (k *Kit) Branches(ctx context.Context, repo string) ([]github.Branch, error) {
	return k.client.ListBranches(ctx, github.Override{Repository: repo})
}

// Runs lists workflow runs of the selected repository and branch.
func (k *Kit) Runs(ctx context.Context) ([]github.WorkflowRun, error) {
	return k.client.ListWorkflowRuns(ctx, github.Override{})
}

// Select persists a repository and branch and reloads. An empty branch
// means the repository's default branch.
func (k *Kit) Select(ctx context.Context, repo, branch string) (prefs.Selection, error) {
	if repo == "" {
		return prefs.Selection{}, fmt.Errorf("repository is required: %w", remote.ErrInvalid)
	}
	if branch == "" {
		repos, err := k.client.ListRepositories(ctx)
		if err != nil {
			return prefs.Selection{}, err
		}
		for _, r := range repos {
			if r.FullName == repo {
				branch = r.DefaultBranch
				break
			}
		}
		if branch == "" {
			return prefs.Selection{}, fmt.Errorf("repository %s not found, pass a branch: %w", repo, remote.ErrNotExist)
		}
	}
	sel, err := k.sel.Update(ctx, func(s *prefs.Selection) {
		s.Repository, s.Branch = repo, branch
	})
	if err != nil {
		return prefs.Selection{}, err
	}
	k.Reload()
	return sel, nil
}

// SetTestingMode persists the testing mode flag.
func (k *Kit) SetTestingMode(ctx context.Context, mode string) (prefs.Selection, error) {
	return k.sel.Update(ctx, func(s *prefs.Selection) { s.TestingMode = mode })
}
