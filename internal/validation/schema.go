package validation

// Field binds a form field to its display label and rule chain.
type Field struct {
	Name  string
	Label string
	Rules []Rule
}

// Schema is an ordered set of fields. Validation stops at the first failing
// rule of each field.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema from fields in display order.
func NewSchema(fields ...Field) *Schema {
	s := &Schema{fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

// Fields lists the field names in declaration order.
func (s *Schema) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether name is declared.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Validate checks a single field against the current values. Unknown fields
// always pass.
func (s *Schema) Validate(name string, values Values) *Violation {
	i, ok := s.index[name]
	if !ok {
		return nil
	}
	f := s.fields[i]
	label := f.Label
	if label == "" {
		label = f.Name
	}
	value := values[name]
	for _, rule := range f.Rules {
		if v := rule(label, value); v != nil {
			v.Field = name
			return v
		}
	}
	return nil
}

// ValidateAll checks every declared field.
func (s *Schema) ValidateAll(values Values) Errors {
	return s.ValidateOnly(values, s.Fields()...)
}

// ValidateOnly checks the listed fields, used for partial updates.
func (s *Schema) ValidateOnly(values Values, names ...string) Errors {
	errs := Errors{}
	for _, name := range names {
		if v := s.Validate(name, values); v != nil {
			errs.Add(*v)
		}
	}
	return errs
}
