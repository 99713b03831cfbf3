package catalog

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/coursecraft/platform/pkg/serrors"
)

type Operator string

const (
	OperatorEquals    Operator = "equals"
	OperatorNotEquals Operator = "not_equals"
	OperatorIncludes  Operator = "includes"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
)

// Conditional makes a question's required-ness depend on another question's
// current answer. Only single-hop references are supported: the referenced
// question must not itself carry a conditional.
type Conditional struct {
	QuestionID string   `yaml:"questionId"`
	Operator   Operator `yaml:"operator"`
	Value      string   `yaml:"value"`
}

type QuestionDef struct {
	ID           string       `yaml:"id"`
	Section      string       `yaml:"section"`
	Text         string       `yaml:"text"`
	InternalNote string       `yaml:"internalNote"`
	FieldType    FieldType    `yaml:"fieldType"`
	Required     bool         `yaml:"required"`
	Options      []string     `yaml:"options"`
	Order        int          `yaml:"order"`
	Conditional  *Conditional `yaml:"conditional"`
}

// Resolver supplies the ordered question list for a training type.
// Implementations must be pure and deterministic.
type Resolver interface {
	QuestionsFor(trainingType string) ([]QuestionDef, error)
	TrainingTypeLabel(trainingType string) string
	TrainingTypes() []string
}

var ErrUnknownTrainingType = serrors.NewError("INTAKE_VALIDATION", "unknown training type")

type trainingTypeDef struct {
	Label     string        `yaml:"label"`
	Questions []QuestionDef `yaml:"questions"`
}

type catalogFile struct {
	TrainingTypes map[string]trainingTypeDef `yaml:"trainingTypes"`
}

type staticResolver struct {
	types map[string]trainingTypeDef
}

// Load parses and validates a question catalog from YAML.
func Load(r io.Reader) (Resolver, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrap(err, "parse catalog")
	}
	if len(file.TrainingTypes) == 0 {
		return nil, errors.New("catalog defines no training types")
	}

	for tag, def := range file.TrainingTypes {
		sort.SliceStable(def.Questions, func(i, j int) bool {
			return def.Questions[i].Order < def.Questions[j].Order
		})
		file.TrainingTypes[tag] = def
		if err := validateQuestions(tag, def.Questions); err != nil {
			return nil, err
		}
	}

	return &staticResolver{types: file.TrainingTypes}, nil
}

// LoadFile loads a catalog from disk, used to override the embedded default.
func LoadFile(path string) (Resolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open catalog %s", path)
	}
	defer f.Close()
	return Load(f)
}

func validateQuestions(tag string, questions []QuestionDef) error {
	seen := make(map[string]QuestionDef, len(questions))
	for _, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("catalog %s: question with empty id", tag)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("catalog %s: duplicate question id %s", tag, q.ID)
		}
		switch q.FieldType {
		case FieldText, FieldTextarea, FieldSelect, FieldRadio:
		default:
			return fmt.Errorf("catalog %s: question %s has unknown field type %q", tag, q.ID, q.FieldType)
		}
		if q.Conditional != nil {
			switch q.Conditional.Operator {
			case OperatorEquals, OperatorNotEquals, OperatorIncludes:
			default:
				return fmt.Errorf("catalog %s: question %s has unknown operator %q", tag, q.ID, q.Conditional.Operator)
			}
			ref, ok := seen[q.Conditional.QuestionID]
			if !ok {
				return fmt.Errorf("catalog %s: question %s references %s, which must appear earlier in the catalog",
					tag, q.ID, q.Conditional.QuestionID)
			}
			// Chained conditionals have no defined evaluation order; reject
			// them at load time instead of guessing.
			if ref.Conditional != nil {
				return fmt.Errorf("catalog %s: question %s references conditional question %s; chained conditionals are unsupported",
					tag, q.ID, q.Conditional.QuestionID)
			}
		}
		seen[q.ID] = q
	}
	return nil
}

func (r *staticResolver) QuestionsFor(trainingType string) ([]QuestionDef, error) {
	def, ok := r.types[trainingType]
	if !ok {
		return nil, ErrUnknownTrainingType
	}
	out := make([]QuestionDef, len(def.Questions))
	copy(out, def.Questions)
	return out, nil
}

func (r *staticResolver) TrainingTypeLabel(trainingType string) string {
	def, ok := r.types[trainingType]
	if !ok {
		return trainingType
	}
	return def.Label
}

func (r *staticResolver) TrainingTypes() []string {
	out := make([]string, 0, len(r.types))
	for tag := range r.types {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
