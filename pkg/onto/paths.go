package onto

import (
	"path"
	"strings"
)

// DefaultIndexFile is the name of the index document inside the base dir.
const DefaultIndexFile = "UserInput.json"

// FileFolder is the per-fragment folder a test file is stored in.
type FileFolder string

const (
	FolderQueries         FileFolder = "queries"
	FolderExpectedResults FileFolder = "expectedResults"
	FolderDatasets        FileFolder = "datasets"
)

// FileFolders lists the valid folders.
var FileFolders = []FileFolder{FolderQueries, FolderExpectedResults, FolderDatasets}

// FilePath returns <base>/<ontology>/<fragment>/<folder>/<name>. An empty
// name yields the folder itself.
func FilePath(base, ontology, fragment string, folder FileFolder, name string) string {
	return join(base, ontology, fragment, string(folder), name)
}

// FragmentDir returns the directory a folder of a fragment lives in.
func FragmentDir(base string, key FragmentKey, folder FileFolder) string {
	return FilePath(base, key.Ontology, key.Name, folder, "")
}

// OntologyFilePath returns <base>/<ontology>/<name>.
func OntologyFilePath(base, ontology, name string) string {
	return join(base, ontology, name)
}

// IndexPath returns the location of the index document. An empty file name
// means DefaultIndexFile.
func IndexPath(base, file string) string {
	if file == "" {
		file = DefaultIndexFile
	}
	return join(base, file)
}

func join(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			kept = append(kept, p)
		}
	}
	return path.Join(kept...)
}
