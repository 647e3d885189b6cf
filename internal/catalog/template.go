package catalog

// Kind identifies which control a form field renders as.
type Kind string

const (
	KindInput    Kind = "input"
	KindTextarea Kind = "textarea"
	KindSelect   Kind = "select"
)

// Control is the rendering variant of a form field. The set of
// implementations is closed: Input, Textarea and Select.
type Control interface {
	Kind() Kind
	control()
}

// Input is a single-line text control.
type Input struct{}

// Textarea is a multi-line text control.
type Textarea struct{}

// Select is a choice among a fixed list of options.
type Select struct {
	Options []string
}

func (Input) Kind() Kind    { return KindInput }
func (Textarea) Kind() Kind { return KindTextarea }
func (Select) Kind() Kind   { return KindSelect }

func (Input) control()    {}
func (Textarea) control() {}
func (Select) control()   {}

// FormField describes one input the user fills in before generation.
type FormField struct {
	Label       string
	Name        string
	Placeholder string
	Required    bool
	Control     Control
}

// Options returns the choices of a select field, or nil for any other control.
func (f FormField) Options() []string {
	if s, ok := f.Control.(Select); ok {
		out := make([]string, len(s.Options))
		copy(out, s.Options)
		return out
	}
	return nil
}

// UseCaseTemplate pairs a prompt containing {name} placeholders with the
// fields that supply their values. Title is the unique key.
type UseCaseTemplate struct {
	Title  string
	Prompt string
	Fields []FormField
}

// Field returns the field with the given name.
func (t UseCaseTemplate) Field(name string) (FormField, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FormField{}, false
}

func (t UseCaseTemplate) clone() UseCaseTemplate {
	out := t
	out.Fields = make([]FormField, len(t.Fields))
	for i, f := range t.Fields {
		if s, ok := f.Control.(Select); ok {
			f.Control = Select{Options: append([]string(nil), s.Options...)}
		}
		out.Fields[i] = f
	}
	return out
}
