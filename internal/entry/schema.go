package entry

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnknownKind is returned when an entry_type does not name a kind.
	ErrUnknownKind = errors.New("unknown entry type")
	// ErrUnknownField is returned when a value targets a field the kind does not have.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue is returned when a wire value cannot be coerced to the field's type.
	ErrInvalidValue = errors.New("invalid value")
)

// FieldType is the scalar type a wire value is coerced to.
type FieldType int

const (
	// FieldDuration values are an integer count of minutes on the wire.
	FieldDuration FieldType = iota + 1
	// FieldInteger values are base-10 integers.
	FieldInteger
	// FieldChoice values must be one of the field's Choices.
	FieldChoice
)

// Field describes one variant-specific field.
type Field struct {
	Name    string
	Label   string
	Type    FieldType
	Choices []string

	get func(Details) any
	set func(Details, any)
}

// maxMinutes is the longest time.Duration expressed in whole minutes.
const maxMinutes = math.MaxInt64 / int64(time.Minute)

// Parse coerces a wire value into the field's typed value.
func (f Field) Parse(raw string) (any, error) {
	value := strings.TrimSpace(raw)
	switch f.Type {
	case FieldDuration:
		minutes, err := strconv.Atoi(value)
		if err != nil || minutes < 0 || int64(minutes) > maxMinutes {
			return nil, fmt.Errorf("%w: %s must be a whole number of minutes", ErrInvalidValue, f.Name)
		}
		return time.Duration(minutes) * time.Minute, nil
	case FieldInteger:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidValue, f.Name)
		}
		return n, nil
	case FieldChoice:
		if !slices.Contains(f.Choices, value) {
			return nil, fmt.Errorf("%w: %s must be one of %s", ErrInvalidValue, f.Name, strings.Join(f.Choices, ", "))
		}
		return value, nil
	}
	return nil, fmt.Errorf("%w: %s has no coercion rule", ErrInvalidValue, f.Name)
}

// Schema is the static description of one kind: its constructor and its fields.
type Schema struct {
	Kind   Kind
	Label  string
	New    func() Details
	Fields []Field
}

var schemas = map[Kind]*Schema{
	KindBreastFeed: {
		Kind:  KindBreastFeed,
		Label: "Breast feed",
		New:   func() Details { return &BreastFeed{} },
		Fields: []Field{
			durationField("left_duration", "Left (minutes)", func(d *BreastFeed) *time.Duration { return &d.LeftDuration }),
			durationField("right_duration", "Right (minutes)", func(d *BreastFeed) *time.Duration { return &d.RightDuration }),
		},
	},
	KindBottleFeed: {
		Kind:  KindBottleFeed,
		Label: "Bottle feed",
		New:   func() Details { return &BottleFeed{} },
		Fields: []Field{
			integerField("amount", "Amount (ml)", func(d *BottleFeed) *int { return &d.Amount }),
		},
	},
	KindMixedFeed: {
		Kind:  KindMixedFeed,
		Label: "Mixed feed",
		New:   func() Details { return &MixedFeed{} },
		Fields: []Field{
			durationField("left_duration", "Left (minutes)", func(d *MixedFeed) *time.Duration { return &d.LeftDuration }),
			durationField("right_duration", "Right (minutes)", func(d *MixedFeed) *time.Duration { return &d.RightDuration }),
			integerField("topup", "Top-up (ml)", func(d *MixedFeed) *int { return &d.Topup }),
		},
	},
	KindSleep: {
		Kind:  KindSleep,
		Label: "Sleep",
		New:   func() Details { return &Sleep{} },
		Fields: []Field{
			durationField("duration", "Duration (minutes)", func(d *Sleep) *time.Duration { return &d.Duration }),
		},
	},
	KindNappyChange: {
		Kind:  KindNappyChange,
		Label: "Nappy change",
		New:   func() Details { return &NappyChange{Contents: ContentsNone} },
		Fields: []Field{
			{
				Name:    "contents",
				Label:   "Contents",
				Type:    FieldChoice,
				Choices: []string{string(ContentsWet), string(ContentsDirty), string(ContentsNone)},
				get:     func(d Details) any { return string(d.(*NappyChange).Contents) },
				set:     func(d Details, v any) { d.(*NappyChange).Contents = Contents(v.(string)) },
			},
		},
	},
}

// Lookup maps an entry_type discriminator to its schema.
func Lookup(name string) (*Schema, bool) {
	s, ok := schemas[Kind(strings.TrimSpace(name))]
	return s, ok
}

// SchemaFor returns the schema of a known kind, or nil.
func SchemaFor(kind Kind) *Schema {
	return schemas[kind]
}

// Schemas returns every schema in display order.
func Schemas() []*Schema {
	out := make([]*Schema, 0, len(Kinds))
	for _, k := range Kinds {
		out = append(out, schemas[k])
	}
	return out
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames lists the kind's field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Apply coerces every value and assigns it to d. Nothing is assigned unless every value coerces.
func (s *Schema) Apply(d Details, values map[string]string) error {
	if d == nil || d.Kind() != s.Kind {
		return fmt.Errorf("%w: details do not belong to %s", ErrInvalidValue, s.Kind)
	}

	type assignment struct {
		field Field
		value any
	}
	pending := make([]assignment, 0, len(values))

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		f, ok := s.Field(name)
		if !ok {
			return fmt.Errorf("%w: %s has no field %q", ErrUnknownField, s.Kind, name)
		}
		v, err := f.Parse(values[name])
		if err != nil {
			return err
		}
		pending = append(pending, assignment{field: f, value: v})
	}

	for _, p := range pending {
		p.field.set(d, p.value)
	}
	return nil
}

// Values returns d's fields in wire form: minutes for durations, integers, choice strings.
func (s *Schema) Values(d Details) map[string]any {
	out := make(map[string]any, len(s.Fields))
	if d == nil || d.Kind() != s.Kind {
		return out
	}
	for _, f := range s.Fields {
		out[f.Name] = f.get(d)
	}
	return out
}

// Strings returns d's fields formatted for form inputs.
func (s *Schema) Strings(d Details) map[string]string {
	out := make(map[string]string, len(s.Fields))
	for name, v := range s.Values(d) {
		out[name] = fmt.Sprint(v)
	}
	return out
}

func durationField[T Details](name, label string, ptr func(T) *time.Duration) Field {
	return Field{
		Name:  name,
		Label: label,
		Type:  FieldDuration,
		get:   func(d Details) any { return int64(*ptr(d.(T)) / time.Minute) },
		set:   func(d Details, v any) { *ptr(d.(T)) = v.(time.Duration) },
	}
}

func integerField[T Details](name, label string, ptr func(T) *int) Field {
	return Field{
		Name:  name,
		Label: label,
		Type:  FieldInteger,
		get:   func(d Details) any { return *ptr(d.(T)) },
		set:   func(d Details, v any) { *ptr(d.(T)) = v.(int) },
	}
}
