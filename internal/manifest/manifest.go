// Package manifest loads and validates the Reponimous file.
//
// A manifest is an ordered list of repositories. Each repository is fetched
// at a ref and either mirrored whole or placed through its file overlays:
//
//	- git: https://github.com/org/base.git
//	  ref: v2.0
//	- git: https://github.com/org/docs.git
//	  files:
//	    - src: ["*.md", "guides/*.md"]
//	      dst: docs/
//
// The same document can be written in TOML as [[repo]] tables with
// [[repo.files]] entries. Loading either format yields the same typed model,
// and any problem is reported as a *ConfigError before anything is fetched.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/reponimous/internal/fsops"
	"github.com/danieljhkim/reponimous/internal/gitx"
)

const (
	// DefaultFileName is the manifest looked up when no path is given.
	DefaultFileName = "Reponimous"

	// DefaultRef is used for repositories that do not name a ref.
	DefaultRef = "master"
)

// Format is a manifest serialization.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Manifest is a validated Reponimous file.
type Manifest struct {
	// Path is the file the manifest was loaded from, if any
	Path string `json:"path,omitempty"`

	// Repos are merged in this order; later repositories win
	Repos []RepositoryOverlay `json:"repos"`
}

// RepositoryOverlay is one fetch-and-merge step.
type RepositoryOverlay struct {
	// Git is the repository locator passed to git clone
	Git string `yaml:"git" json:"git"`

	// Ref is a branch, tag or commit (default "master")
	Ref string `yaml:"ref" json:"ref"`

	// Files are the placement rules; none means mirror the whole tree
	Files []FileOverlay `yaml:"files" json:"files,omitempty"`
}

// FileOverlay is one placement rule within a repository.
type FileOverlay struct {
	// Src are glob patterns relative to the repository root
	Src Patterns `yaml:"src" json:"src"`

	// Dst is an optional destination relative to the merge root
	Dst string `yaml:"dst" json:"dst,omitempty"`
}

// Patterns accepts either a single pattern or a list of patterns.
type Patterns []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Patterns) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*p = Patterns{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*p = list
		return nil
	default:
		return fmt.Errorf("line %d: src must be a string or a list of strings", node.Line)
	}
}

// Load reads and validates the manifest at path. Files ending in .toml are
// parsed as TOML; everything else is YAML.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigError{Path: path, Index: -1, Err: fmt.Errorf("file not found: %w", err)}
		}
		return nil, &ConfigError{Path: path, Index: -1, Err: err}
	}

	m, err := Parse(data, FormatFor(path))
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Path = path
		}
		return nil, err
	}
	m.Path = path
	return m, nil
}

// FormatFor picks the format for a manifest file name.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes and validates a manifest.
func Parse(data []byte, format Format) (*Manifest, error) {
	var (
		repos []RepositoryOverlay
		err   error
	)

	switch format {
	case FormatYAML:
		repos, err = parseYAML(data)
	case FormatTOML:
		repos, err = parseTOML(data)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, &ConfigError{Index: -1, Err: err}
	}

	if len(repos) == 0 {
		return nil, &ConfigError{Index: -1, Err: errors.New("no repositories defined")}
	}

	for i := range repos {
		if err := normalize(i, &repos[i]); err != nil {
			return nil, err
		}
	}

	return &Manifest{Repos: repos}, nil
}

func parseYAML(data []byte) ([]RepositoryOverlay, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var repos []RepositoryOverlay
	if err := dec.Decode(&repos); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	return repos, nil
}

type tomlDocument struct {
	Repo []tomlRepo `toml:"repo"`
}

type tomlRepo struct {
	Git   string     `toml:"git"`
	Ref   string     `toml:"ref"`
	Files []tomlFile `toml:"files"`
}

type tomlFile struct {
	Src any    `toml:"src"`
	Dst string `toml:"dst"`
}

func parseTOML(data []byte) ([]RepositoryOverlay, error) {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc tomlDocument
	if err := dec.Decode(&doc); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, errors.New(strict.String())
		}
		return nil, err
	}

	repos := make([]RepositoryOverlay, 0, len(doc.Repo))
	for i, r := range doc.Repo {
		repo := RepositoryOverlay{Git: r.Git, Ref: r.Ref}
		for j, f := range r.Files {
			src, err := tomlPatterns(f.Src)
			if err != nil {
				return nil, fmt.Errorf("repo[%d].files[%d].src: %w", i, j, err)
			}
			repo.Files = append(repo.Files, FileOverlay{Src: src, Dst: f.Dst})
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func tomlPatterns(v any) (Patterns, error) {
	switch src := v.(type) {
	case nil:
		return nil, nil
	case string:
		return Patterns{src}, nil
	case []any:
		out := make(Patterns, 0, len(src))
		for _, item := range src {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("must be a string or an array of strings, got %T", v)
	}
}

// normalize applies defaults to repo and validates it.
func normalize(index int, repo *RepositoryOverlay) error {
	if strings.TrimSpace(repo.Git) == "" {
		return &ConfigError{Index: index, Field: "git", Err: errors.New("required")}
	}

	if repo.Ref == "" {
		repo.Ref = DefaultRef
	}
	if err := gitx.ValidateRef(repo.Ref); err != nil {
		return &ConfigError{Index: index, Field: "ref", Err: err}
	}

	for j, f := range repo.Files {
		field := fmt.Sprintf("files[%d]", j)

		if len(f.Src) == 0 {
			return &ConfigError{Index: index, Field: field + ".src", Err: errors.New("required")}
		}
		for _, pattern := range f.Src {
			if err := fsops.ValidateRelPath(pattern); err != nil {
				return &ConfigError{Index: index, Field: field + ".src", Err: err}
			}
			if _, err := filepath.Match(pattern, ""); err != nil {
				return &ConfigError{Index: index, Field: field + ".src", Err: fmt.Errorf("%q: %w", pattern, err)}
			}
		}

		if f.Dst != "" {
			if err := fsops.ValidateRelPath(f.Dst); err != nil {
				return &ConfigError{Index: index, Field: field + ".dst", Err: err}
			}
		}
	}

	return nil
}
