package catalog

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"gopkg.in/yaml.v3"
)

//go:embed defaults/catalog.toml defaults/templates/*
var defaults embed.FS

const (
	defaultCatalogPath   = "defaults/catalog.toml"
	defaultTemplatesPath = "defaults/templates"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither TOML nor YAML
	ErrUnsupportedFormat = goerr.New("unsupported catalog file format")
)

// decode unmarshals data as TOML or YAML depending on the file extension
func decode(name string, data []byte, v any) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		if err := toml.Unmarshal(data, v); err != nil {
			return goerr.Wrap(err, "failed to parse TOML", goerr.V("path", name))
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return goerr.Wrap(err, "failed to parse YAML", goerr.V("path", name))
		}
	default:
		return goerr.Wrap(ErrUnsupportedFormat, "catalog files must be .toml, .yaml or .yml", goerr.V("path", name))
	}
	return nil
}

func readDocument[T any](fsys fs.FS, path string) (*T, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read catalog file", goerr.V("path", path))
	}
	var doc T
	if err := decode(path, data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ReadCatalogFile reads a threat and control catalog from disk
func ReadCatalogFile(path string) (*CatalogDocument, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	return readDocument[CatalogDocument](os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// ReadTemplateFile reads a facility questionnaire template from disk
func ReadTemplateFile(path string) (*TemplateDocument, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	return readDocument[TemplateDocument](os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// ReadTemplateDir reads every TOML or YAML template of a directory, sorted by file name
func ReadTemplateDir(dir string) ([]*TemplateDocument, error) {
	return readTemplates(os.DirFS(dir), ".")
}

func readTemplates(fsys fs.FS, dir string) ([]*TemplateDocument, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read template directory", goerr.V("dir", dir))
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".toml", ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make([]*TemplateDocument, 0, len(names))
	for _, name := range names {
		doc, err := readDocument[TemplateDocument](fsys, filepath.ToSlash(filepath.Join(dir, name)))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DefaultCatalog returns the built-in threat and control catalog
func DefaultCatalog() (*CatalogDocument, error) {
	return readDocument[CatalogDocument](defaults, defaultCatalogPath)
}

// DefaultTemplates returns the built-in facility templates
func DefaultTemplates() ([]*TemplateDocument, error) {
	return readTemplates(defaults, defaultTemplatesPath)
}

// BuildKnowledgeBase merges catalog documents into one knowledge base.
// Duplicate IDs across documents are rejected.
func BuildKnowledgeBase(docs ...*CatalogDocument) (*model.KnowledgeBase, error) {
	var threats []model.Threat
	var controls []model.Control
	for _, doc := range docs {
		t, c := doc.ToDomain()
		threats = append(threats, t...)
		controls = append(controls, c...)
	}

	kb, err := model.NewKnowledgeBase(threats, controls)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build knowledge base")
	}
	return kb, nil
}

// BuildRegistry resolves and registers templates against a knowledge base
func BuildRegistry(kb *model.KnowledgeBase, docs ...*TemplateDocument) (*model.TemplateRegistry, error) {
	registry := model.NewTemplateRegistry(kb)
	for _, doc := range docs {
		q, err := doc.ToQuestionnaire(kb)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(q); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Source selects where catalogs and templates are loaded from. Template
// paths may be files or directories. Empty fields fall back to the
// built-in defaults.
type Source struct {
	CatalogFiles  []string
	TemplatePaths []string
}

// Load reads the catalogs and templates named by the source
func Load(src Source) (*model.TemplateRegistry, error) {
	catalogs, templates, err := src.Documents()
	if err != nil {
		return nil, err
	}

	kb, err := BuildKnowledgeBase(catalogs...)
	if err != nil {
		return nil, err
	}
	return BuildRegistry(kb, templates...)
}

// Documents reads the raw catalog and template documents without resolving them
func (s Source) Documents() ([]*CatalogDocument, []*TemplateDocument, error) {
	var catalogs []*CatalogDocument
	if len(s.CatalogFiles) == 0 {
		doc, err := DefaultCatalog()
		if err != nil {
			return nil, nil, err
		}
		catalogs = append(catalogs, doc)
	}
	for _, path := range s.CatalogFiles {
		doc, err := ReadCatalogFile(path)
		if err != nil {
			return nil, nil, err
		}
		catalogs = append(catalogs, doc)
	}

	var templates []*TemplateDocument
	if len(s.TemplatePaths) == 0 {
		docs, err := DefaultTemplates()
		if err != nil {
			return nil, nil, err
		}
		templates = append(templates, docs...)
	}
	for _, path := range s.TemplatePaths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to stat template path", goerr.V("path", path))
		}
		if !info.IsDir() {
			doc, err := ReadTemplateFile(path)
			if err != nil {
				return nil, nil, err
			}
			templates = append(templates, doc)
			continue
		}
		docs, err := ReadTemplateDir(path)
		if err != nil {
			return nil, nil, err
		}
		templates = append(templates, docs...)
	}

	return catalogs, templates, nil
}
