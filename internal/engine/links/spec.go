package links

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	derrors "docwarden/internal/core/errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// DefaultSpecFile is the link specification file name looked up per directory.
const DefaultSpecFile = "links.yaml"

// Target is a resolved allowed_targets rule.
type Target struct {
	// Dir is the absolute, cleaned directory the rule admits.
	Dir     string
	Pattern *regexp.Regexp
	// Origin is the path of the specification that declared the rule.
	Origin string
	Raw    string
}

// Permits reports whether the file at abs lies directly in Dir and its name
// fully matches Pattern.
func (t Target) Permits(abs string) bool {
	if filepath.Clean(filepath.Dir(abs)) != t.Dir {
		return false
	}
	return t.Pattern.MatchString(filepath.Base(abs))
}

// DeclaredTarget is one entry of an established or required list, relative
// to the source document's directory.
type DeclaredTarget struct {
	Path string
	Line int
}

// Declaration maps a source file (relative to the spec directory) to its
// targets in declaration order.
type Declaration struct {
	Source  string
	Line    int
	Targets []DeclaredTarget
}

// Spec is one parsed link specification file.
type Spec struct {
	Path           string
	Dir            string
	AllowedTargets []Target
	Established    []Declaration
	Required       []Declaration
}

type rawSpec struct {
	AllowedTargets   []rawTarget `yaml:"allowed_targets"`
	EstablishedLinks yaml.Node   `yaml:"established_links"`
	RequiredLinks    yaml.Node   `yaml:"required_links"`
}

type rawTarget struct {
	Directory     string `yaml:"directory"`
	FilenameRegex string `yaml:"filename_regex"`
}

func (t rawTarget) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Directory, validation.Required),
		validation.Field(&t.FilenameRegex, validation.Required, validation.By(func(value any) error {
			if _, err := regexp.Compile(value.(string)); err != nil {
				return validation.NewError("links.filename_regex", err.Error())
			}
			return nil
		})),
	)
}

// LoadSpec reads the link specification at path. A missing file yields
// SPEC_NOT_FOUND; anything malformed yields SPEC_PARSE_ERROR.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, derrors.AddContext(derrors.Wrap(err, derrors.CodeSpecNotFound, "link specification not found"), derrors.CtxPath, path)
		}
		return nil, derrors.AddContext(derrors.Wrap(err, derrors.CodeFilesystem, "read link specification"), derrors.CtxPath, path)
	}
	spec, err := ParseSpec(data, filepath.Dir(path))
	if err != nil {
		return nil, derrors.AddContext(err, derrors.CtxPath, path)
	}
	spec.Path = path
	for i := range spec.AllowedTargets {
		spec.AllowedTargets[i].Origin = path
	}
	return spec, nil
}

// ParseSpec decodes a link specification whose relative paths are anchored
// at dir. An empty document is a valid, empty specification.
func ParseSpec(data []byte, dir string) (*Spec, error) {
	spec := &Spec{Dir: filepath.Clean(dir)}

	var raw rawSpec
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return spec, nil
		}
		return nil, derrors.Wrap(err, derrors.CodeSpecParse, "invalid link specification yaml")
	}

	for i, rt := range raw.AllowedTargets {
		if err := rt.Validate(); err != nil {
			return nil, derrors.AddContext(derrors.Wrap(err, derrors.CodeSpecParse, "invalid allowed_targets entry"), "index", i)
		}
		spec.AllowedTargets = append(spec.AllowedTargets, Target{
			Dir:     filepath.Clean(filepath.Join(spec.Dir, filepath.FromSlash(rt.Directory))),
			Pattern: regexp.MustCompile("^(?:" + rt.FilenameRegex + ")$"),
			Raw:     rt.Directory,
		})
	}

	var err error
	if spec.Established, err = declarations(&raw.EstablishedLinks, "established_links"); err != nil {
		return nil, err
	}
	if spec.Required, err = declarations(&raw.RequiredLinks, "required_links"); err != nil {
		return nil, err
	}
	return spec, nil
}

func declarations(node *yaml.Node, field string) ([]Declaration, error) {
	if node.Kind == 0 || isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, derrors.New(derrors.CodeSpecParse, fmt.Sprintf("%s must be a mapping (line %d)", field, node.Line))
	}

	out := make([]Declaration, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			return nil, derrors.New(derrors.CodeSpecParse, fmt.Sprintf("%s: invalid source key at line %d", field, key.Line))
		}
		decl := Declaration{Source: key.Value, Line: key.Line}
		switch {
		case isNull(val):
		case val.Kind == yaml.SequenceNode:
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode || item.Value == "" {
					return nil, derrors.New(derrors.CodeSpecParse, fmt.Sprintf("%s.%s: invalid target at line %d", field, key.Value, item.Line))
				}
				decl.Targets = append(decl.Targets, DeclaredTarget{Path: item.Value, Line: item.Line})
			}
		default:
			return nil, derrors.New(derrors.CodeSpecParse, fmt.Sprintf("%s.%s must be a list (line %d)", field, key.Value, val.Line))
		}
		out = append(out, decl)
	}
	return out, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}
