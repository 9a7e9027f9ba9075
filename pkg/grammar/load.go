package grammar

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var defaultData embed.FS

var defaultGrammar = sync.OnceValues(func() (*Grammar, error) {
	return Load(defaultData, "data")
})

// Default returns the grammar built from the embedded data files. It is
// built once per process.
func Default() (*Grammar, error) {
	return defaultGrammar()
}

// LoadDirectory builds a grammar from every YAML file in dir.
func LoadDirectory(dir string) (*Grammar, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &GrammarError{Source: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &GrammarError{Source: dir, Err: fmt.Errorf("not a directory")}
	}
	return Load(os.DirFS(dir), ".")
}

// Load builds a grammar from the YAML files in dir of fsys. Files are read
// in name order, which fixes rule order and therefore tie-breaking.
func Load(fsys fs.FS, dir string) (*Grammar, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, &GrammarError{Source: dir, Err: fmt.Errorf("reading directory: %w", err)}
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, &GrammarError{Source: dir, Err: fmt.Errorf("no grammar files")}
	}

	docs := make([]NamedDocument, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, &GrammarError{Source: name, Err: fmt.Errorf("reading file: %w", err)}
		}
		doc, err := ParseDocument(data)
		if err != nil {
			return nil, &GrammarError{Source: name, Err: err}
		}
		docs = append(docs, NamedDocument{File: name, Document: doc})
	}

	return Build(docs)
}

// ParseDocument decodes one grammar file. Unknown fields are rejected.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return &doc, nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
