package grammar

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	derrors "docwarden/internal/core/errors"
	"docwarden/internal/core/ports"
	"docwarden/internal/engine/tokenizer"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// DefaultSpecFile is the grammar file name looked up per directory.
const DefaultSpecFile = "spec.yaml"

// Unbounded marks a block without an upper occurrence limit.
const Unbounded = -1

// Step constrains a single token. Nil constraints match anything.
type Step struct {
	Type           tokenizer.Kind
	Level          *int
	Info           *string
	ContentPattern *regexp.Regexp
}

// Matches reports whether tok satisfies the kind and every present constraint.
func (s Step) Matches(tok tokenizer.Token) bool {
	if tok.Kind != s.Type {
		return false
	}
	if s.Level != nil && tok.Level != *s.Level {
		return false
	}
	if s.Info != nil && tok.Info != *s.Info {
		return false
	}
	if s.ContentPattern != nil && !s.ContentPattern.MatchString(tok.Content) {
		return false
	}
	return true
}

type Block struct {
	Index    int
	Sequence []Step
	Min      int
	Max      int
	Severity ports.Severity
	// Line is the position of the block in its spec file, 0 when built in code.
	Line int
}

// Spec is an ordered list of blocks loaded from one grammar file.
type Spec struct {
	Path   string
	Blocks []Block
}

type rawSpec struct {
	Structure yaml.Node `yaml:"structure"`
}

type rawBlock struct {
	Sequence       []rawStep `yaml:"sequence"`
	MinOccurrences *int      `yaml:"min_occurrences"`
	MaxOccurrences *int      `yaml:"max_occurrences"`
	ErrorLevel     string    `yaml:"error_level"`
}

type rawStep struct {
	Type         string  `yaml:"type"`
	Level        *int    `yaml:"level"`
	Info         *string `yaml:"info"`
	ContentRegex *string `yaml:"content_regex"`
}

func (b rawBlock) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Sequence, validation.Required.Error("sequence must not be empty")),
		validation.Field(&b.ErrorLevel, validation.Required, validation.By(func(value any) error {
			_, err := ports.ParseSeverity(value.(string))
			return err
		})),
		validation.Field(&b.MinOccurrences, validation.Min(0)),
		validation.Field(&b.MaxOccurrences, validation.Min(0), validation.By(func(value any) error {
			max, _ := value.(*int)
			if max == nil || b.MinOccurrences == nil {
				return nil
			}
			if *max < *b.MinOccurrences {
				return validation.NewError("grammar.max_below_min", fmt.Sprintf("must be >= min_occurrences (%d)", *b.MinOccurrences))
			}
			return nil
		})),
	)
}

func (s rawStep) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Type, validation.Required, validation.By(func(value any) error {
			_, err := tokenizer.ParseKind(value.(string))
			return err
		})),
		validation.Field(&s.Level, validation.By(headingLevel), validation.When(
			s.Level != nil && !strings.EqualFold(strings.TrimSpace(s.Type), tokenizer.KindHeadingOpen.String()),
			validation.By(func(any) error {
				return validation.NewError("grammar.level_heading_only", "only valid on heading_open steps")
			}),
		)),
		validation.Field(&s.Info, validation.When(
			s.Info != nil && !strings.EqualFold(strings.TrimSpace(s.Type), tokenizer.KindFence.String()),
			validation.By(func(any) error {
				return validation.NewError("grammar.info_fence_only", "only valid on fence steps")
			}),
		)),
	)
}

// headingLevel rejects any explicit level outside 1..6, zero included.
func headingLevel(value any) error {
	raw, isNil := validation.Indirect(value)
	level, ok := raw.(int)
	if isNil || !ok {
		return nil
	}
	if level < 1 || level > 6 {
		return validation.NewError("grammar.level_range", fmt.Sprintf("must be between 1 and 6, got %d", level))
	}
	return nil
}

// LoadSpec reads and validates a grammar file.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, derrors.AddContext(derrors.Wrap(err, derrors.CodeSpecNotFound, "grammar specification not found"), derrors.CtxPath, path)
		}
		return nil, derrors.AddContext(derrors.Wrap(err, derrors.CodeFilesystem, "read grammar specification"), derrors.CtxPath, path)
	}
	spec, err := ParseSpec(data)
	if err != nil {
		return nil, derrors.AddContext(err, derrors.CtxPath, path)
	}
	spec.Path = path
	return spec, nil
}

// ParseSpec decodes a grammar document with a top-level structure list.
func ParseSpec(data []byte) (*Spec, error) {
	var raw rawSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeSpecParse, "invalid grammar yaml")
	}
	if raw.Structure.Kind != yaml.SequenceNode {
		return nil, derrors.New(derrors.CodeSpecParse, "grammar must declare a structure list")
	}

	spec := &Spec{Blocks: make([]Block, 0, len(raw.Structure.Content))}
	for i, node := range raw.Structure.Content {
		var rb rawBlock
		if err := node.Decode(&rb); err != nil {
			return nil, blockError(err, i, node.Line)
		}
		block, err := compileBlock(i, rb)
		if err != nil {
			return nil, blockError(err, i, node.Line)
		}
		block.Line = node.Line
		spec.Blocks = append(spec.Blocks, block)
	}
	return spec, nil
}

func blockError(err error, index, line int) error {
	return derrors.AddContext(
		derrors.Wrap(err, derrors.CodeSpecParse, fmt.Sprintf("invalid grammar block at line %d", line)),
		derrors.CtxBlock, index,
	)
}

func compileBlock(index int, rb rawBlock) (Block, error) {
	if err := rb.Validate(); err != nil {
		return Block{}, err
	}
	severity, _ := ports.ParseSeverity(rb.ErrorLevel)
	block := Block{
		Index:    index,
		Min:      1,
		Max:      Unbounded,
		Severity: severity,
		Sequence: make([]Step, 0, len(rb.Sequence)),
	}
	if rb.MinOccurrences != nil {
		block.Min = *rb.MinOccurrences
	}
	if rb.MaxOccurrences != nil {
		block.Max = *rb.MaxOccurrences
		if block.Max < block.Min {
			return Block{}, fmt.Errorf("max_occurrences %d is below min_occurrences %d", block.Max, block.Min)
		}
	}
	for j, rs := range rb.Sequence {
		step, err := compileStep(rs)
		if err != nil {
			return Block{}, derrors.AddContext(derrors.Wrap(err, derrors.CodeSpecParse, "invalid step"), derrors.CtxStep, j)
		}
		block.Sequence = append(block.Sequence, step)
	}
	return block, nil
}

func compileStep(rs rawStep) (Step, error) {
	if err := rs.Validate(); err != nil {
		return Step{}, err
	}
	kind, _ := tokenizer.ParseKind(rs.Type)
	step := Step{Type: kind, Level: rs.Level, Info: rs.Info}
	if rs.ContentRegex != nil {
		re, err := regexp.Compile("^(?:" + *rs.ContentRegex + ")$")
		if err != nil {
			return Step{}, fmt.Errorf("content_regex: %w", err)
		}
		step.ContentPattern = re
	}
	return step, nil
}
