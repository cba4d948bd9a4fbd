package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Status is the mastery status of a vocabulary item
type Status int

const (
	StatusNew Status = iota + 1
	StatusLearning
	StatusReviewing
	StatusMastered
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusLearning:
		return "learning"
	case StatusReviewing:
		return "reviewing"
	case StatusMastered:
		return "mastered"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus converts a stored value back to a Status
func ParseStatus(v string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "new":
		return StatusNew, nil
	case "learning":
		return StatusLearning, nil
	case "reviewing":
		return StatusReviewing, nil
	case "mastered":
		return StatusMastered, nil
	}
	return 0, fmt.Errorf("unknown status %q", v)
}

// Scan implements sql.Scanner
func (s *Status) Scan(src interface{}) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParseStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer
func (s Status) Value() (driver.Value, error) {
	if _, err := ParseStatus(s.String()); err != nil {
		return nil, err
	}
	return s.String(), nil
}

// TestType is the kind of question shown to the learner
type TestType int

const (
	TestTypeMultipleChoice TestType = iota + 1
	TestTypeInput
)

func (t TestType) String() string {
	switch t {
	case TestTypeMultipleChoice:
		return "multiple_choice"
	case TestTypeInput:
		return "input"
	}
	return fmt.Sprintf("test_type(%d)", int(t))
}

// ParseTestType converts a stored value back to a TestType
func ParseTestType(v string) (TestType, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "multiple_choice":
		return TestTypeMultipleChoice, nil
	case "input":
		return TestTypeInput, nil
	}
	return 0, fmt.Errorf("unknown test type %q", v)
}

// Scan implements sql.Scanner
func (t *TestType) Scan(src interface{}) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParseTestType(v)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer
func (t TestType) Value() (driver.Value, error) {
	if _, err := ParseTestType(t.String()); err != nil {
		return nil, err
	}
	return t.String(), nil
}

// Direction tells which language the question is posed in
type Direction int

const (
	// DirectionNativeToForeign shows the native variant and expects the foreign word
	DirectionNativeToForeign Direction = iota + 1
	// DirectionForeignToNative shows the foreign word and expects the native variant
	DirectionForeignToNative
)

// Directions lists every direction in a stable order
var Directions = []Direction{DirectionNativeToForeign, DirectionForeignToNative}

func (d Direction) String() string {
	switch d {
	case DirectionNativeToForeign:
		return "native_to_foreign"
	case DirectionForeignToNative:
		return "foreign_to_native"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseDirection converts a stored value back to a Direction
func ParseDirection(v string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "native_to_foreign":
		return DirectionNativeToForeign, nil
	case "foreign_to_native":
		return DirectionForeignToNative, nil
	}
	return 0, fmt.Errorf("unknown direction %q", v)
}

// Scan implements sql.Scanner
func (d *Direction) Scan(src interface{}) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParseDirection(v)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer
func (d Direction) Value() (driver.Value, error) {
	if _, err := ParseDirection(d.String()); err != nil {
		return nil, err
	}
	return d.String(), nil
}

// ValidationMethod is the validator tier that produced a verdict
type ValidationMethod int

const (
	ValidationExact ValidationMethod = iota + 1
	ValidationFuzzy
	ValidationModel
)

func (m ValidationMethod) String() string {
	switch m {
	case ValidationExact:
		return "exact"
	case ValidationFuzzy:
		return "fuzzy"
	case ValidationModel:
		return "model"
	}
	return fmt.Sprintf("validation_method(%d)", int(m))
}

// ParseValidationMethod converts a stored value back to a ValidationMethod
func ParseValidationMethod(v string) (ValidationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "exact":
		return ValidationExact, nil
	case "fuzzy":
		return ValidationFuzzy, nil
	case "model":
		return ValidationModel, nil
	}
	return 0, fmt.Errorf("unknown validation method %q", v)
}

// Scan implements sql.Scanner
func (m *ValidationMethod) Scan(src interface{}) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParseValidationMethod(v)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer
func (m ValidationMethod) Value() (driver.Value, error) {
	if _, err := ParseValidationMethod(m.String()); err != nil {
		return nil, err
	}
	return m.String(), nil
}

// Level is a CEFR proficiency tier
type Level int

const (
	LevelA1 Level = iota + 1
	LevelA2
	LevelB1
	LevelB2
	LevelC1
	LevelC2
)

func (l Level) String() string {
	switch l {
	case LevelA1:
		return "A1"
	case LevelA2:
		return "A2"
	case LevelB1:
		return "B1"
	case LevelB2:
		return "B2"
	case LevelC1:
		return "C1"
	case LevelC2:
		return "C2"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel converts "b1", "B1" etc. to a Level
func ParseLevel(v string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "A1":
		return LevelA1, nil
	case "A2":
		return LevelA2, nil
	case "B1":
		return LevelB1, nil
	case "B2":
		return LevelB2, nil
	case "C1":
		return LevelC1, nil
	case "C2":
		return LevelC2, nil
	}
	return 0, fmt.Errorf("unknown level %q", v)
}

// Scan implements sql.Scanner
func (l *Level) Scan(src interface{}) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParseLevel(v)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Value implements driver.Valuer
func (l Level) Value() (driver.Value, error) {
	if _, err := ParseLevel(l.String()); err != nil {
		return nil, err
	}
	return l.String(), nil
}

func scanString(src interface{}) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", fmt.Errorf("unexpected NULL enum value")
	}
	return "", fmt.Errorf("unsupported enum source type %T", src)
}
