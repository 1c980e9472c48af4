package metadata

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParamType is the declared data type of an operator parameter.
type ParamType string

const (
	// TypeString is a free-form string parameter
	TypeString ParamType = "string"

	// TypeInt is an integer parameter
	TypeInt ParamType = "int"

	// TypeFloat is a floating-point parameter
	TypeFloat ParamType = "float"

	// TypeBool is a boolean parameter
	TypeBool ParamType = "bool"

	// TypeEnum is a string parameter restricted to a fixed set of values
	TypeEnum ParamType = "enum"
)

// validParamTypes for artifact validation
var validParamTypes = map[ParamType]bool{
	TypeString: true,
	TypeInt:    true,
	TypeFloat:  true,
	TypeBool:   true,
	TypeEnum:   true,
}

// Constraint restricts the values a parameter accepts beyond its type.
// Min/Max apply to int and float parameters, Values to enum parameters,
// Pattern to string parameters.
type Constraint struct {
	// Min is the inclusive lower bound for numeric parameters
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`

	// Max is the inclusive upper bound for numeric parameters
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`

	// Values are the allowed values for enum parameters
	Values []string `yaml:"values,omitempty" json:"values,omitempty"`

	// Pattern is a regex the full value must match, for string parameters
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// empty reports whether no constraint is declared.
func (c *Constraint) empty() bool {
	return c == nil || (c.Min == nil && c.Max == nil && len(c.Values) == 0 && c.Pattern == "")
}

// ParameterSpec declares a single operator parameter: its name, type,
// whether a binding is required, an optional default for optional
// parameters, and any value constraint.
type ParameterSpec struct {
	// Name is the parameter identifier
	Name string `yaml:"name" json:"name"`

	// Type is the declared data type (string, int, float, bool, enum)
	Type ParamType `yaml:"type" json:"type"`

	// Required marks parameters that must be bound by the caller.
	// Required parameters cannot carry a default.
	Required bool `yaml:"required,omitempty" json:"required,omitempty"`

	// Default is the value applied when an optional parameter is not bound
	Default interface{} `yaml:"default,omitempty" json:"default,omitempty"`

	// Constraint restricts accepted values beyond the type
	Constraint *Constraint `yaml:"constraint,omitempty" json:"constraint,omitempty"`

	// Description explains what this parameter controls
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// compiled pattern, set during schema validation
	pattern *regexp.Regexp
}

// HasDefault reports whether the spec declares a default value.
func (p *ParameterSpec) HasDefault() bool {
	return p.Default != nil
}

// validate checks the spec's internal consistency. The index locates the
// spec inside the artifact for error reporting.
func (p *ParameterSpec) validate(index int) error {
	at := func(field string) string {
		return fmt.Sprintf("parameters[%d].%s", index, field)
	}

	if p.Name == "" {
		return &ParseError{Field: at("name"), Reason: "parameter name is required"}
	}
	if p.Type == "" {
		return &ParseError{Field: at("type"), Reason: fmt.Sprintf("parameter %q has no type", p.Name)}
	}
	if !validParamTypes[p.Type] {
		return &ParseError{
			Field:  at("type"),
			Reason: fmt.Sprintf("unknown type %q (must be string, int, float, bool, or enum)", p.Type),
		}
	}

	if p.Required && p.Default != nil {
		return &ParseError{
			Field:  at("default"),
			Reason: fmt.Sprintf("parameter %q is required and cannot declare a default", p.Name),
		}
	}

	c := p.Constraint
	switch p.Type {
	case TypeEnum:
		if c == nil || len(c.Values) == 0 {
			return &ParseError{
				Field:  at("constraint.values"),
				Reason: fmt.Sprintf("enum parameter %q must declare its values", p.Name),
			}
		}
		if c.Min != nil || c.Max != nil || c.Pattern != "" {
			return &ParseError{
				Field:  at("constraint"),
				Reason: fmt.Sprintf("enum parameter %q only accepts a values constraint", p.Name),
			}
		}
		seen := make(map[string]bool, len(c.Values))
		for _, v := range c.Values {
			if seen[v] {
				return &ParseError{
					Field:  at("constraint.values"),
					Reason: fmt.Sprintf("enum parameter %q lists %q twice", p.Name, v),
				}
			}
			seen[v] = true
		}
	case TypeInt, TypeFloat:
		if !c.empty() && (len(c.Values) > 0 || c.Pattern != "") {
			return &ParseError{
				Field:  at("constraint"),
				Reason: fmt.Sprintf("numeric parameter %q only accepts min/max constraints", p.Name),
			}
		}
		if c != nil && c.Min != nil && c.Max != nil && *c.Min > *c.Max {
			return &ParseError{
				Field:  at("constraint"),
				Reason: fmt.Sprintf("parameter %q has min %v greater than max %v", p.Name, *c.Min, *c.Max),
			}
		}
	case TypeString:
		if !c.empty() && (c.Min != nil || c.Max != nil || len(c.Values) > 0) {
			return &ParseError{
				Field:  at("constraint"),
				Reason: fmt.Sprintf("string parameter %q only accepts a pattern constraint", p.Name),
			}
		}
		if c != nil && c.Pattern != "" {
			re, err := regexp.Compile(c.Pattern)
			if err != nil {
				return &ParseError{
					Field:  at("constraint.pattern"),
					Reason: fmt.Sprintf("parameter %q has an invalid pattern", p.Name),
					Cause:  err,
				}
			}
			p.pattern = re
		}
	case TypeBool:
		if !c.empty() {
			return &ParseError{
				Field:  at("constraint"),
				Reason: fmt.Sprintf("bool parameter %q cannot declare constraints", p.Name),
			}
		}
	}

	// The default itself must satisfy the spec
	if p.Default != nil {
		normalized, verr := p.checkValue(p.Default)
		if verr != nil {
			return &ParseError{
				Field:  at("default"),
				Reason: fmt.Sprintf("default for parameter %q violates the spec: %s", p.Name, verr.Detail),
			}
		}
		p.Default = normalized
	}

	return nil
}

// checkValue coerces a raw binding to the declared type and checks the
// constraint. Returns the normalized value or a ValidationError naming
// this parameter.
func (p *ParameterSpec) checkValue(raw interface{}) (interface{}, *ValidationError) {
	switch p.Type {
	case TypeString:
		s, ok := asString(raw)
		if !ok {
			return nil, &ValidationError{
				Param:     p.Name,
				Violation: ViolationWrongType,
				Detail:    fmt.Sprintf("expected a string, got %T", raw),
			}
		}
		if p.pattern == nil && p.Constraint != nil && p.Constraint.Pattern != "" {
			// Schema came from a hand-built value rather than Parse; compile lazily.
			p.pattern = regexp.MustCompile(p.Constraint.Pattern)
		}
		if p.pattern != nil && !p.pattern.MatchString(s) {
			return nil, &ValidationError{
				Param:     p.Name,
				Violation: ViolationPatternMismatch,
				Detail:    fmt.Sprintf("value %q does not match pattern %q", s, p.Constraint.Pattern),
			}
		}
		return s, nil

	case TypeEnum:
		s, ok := asString(raw)
		if !ok {
			return nil, &ValidationError{
				Param:     p.Name,
				Violation: ViolationWrongType,
				Detail:    fmt.Sprintf("expected one of %v, got %T", p.Constraint.Values, raw),
			}
		}
		for _, allowed := range p.Constraint.Values {
			if s == allowed {
				return s, nil
			}
		}
		return nil, &ValidationError{
			Param:     p.Name,
			Violation: ViolationNotInEnum,
			Detail:    fmt.Sprintf("value %q is not one of %v", s, p.Constraint.Values),
		}

	case TypeInt:
		n, ok := asInt(raw)
		if !ok {
			return nil, &ValidationError{
				Param:     p.Name,
				Violation: ViolationWrongType,
				Detail:    fmt.Sprintf("expected an integer, got %v", describeValue(raw)),
			}
		}
		if verr := p.checkRange(float64(n)); verr != nil {
			return nil, verr
		}
		return n, nil

	case TypeFloat:
		f, ok := asFloat(raw)
		if !ok {
			return nil, &ValidationError{
				Param:     p.Name,
				Violation: ViolationWrongType,
				Detail:    fmt.Sprintf("expected a number, got %v", describeValue(raw)),
			}
		}
		if verr := p.checkRange(f); verr != nil {
			return nil, verr
		}
		return f, nil

	case TypeBool:
		b, ok := asBool(raw)
		if !ok {
			return nil, &ValidationError{
				Param:     p.Name,
				Violation: ViolationWrongType,
				Detail:    fmt.Sprintf("expected true or false, got %v", describeValue(raw)),
			}
		}
		return b, nil
	}

	return nil, &ValidationError{
		Param:     p.Name,
		Violation: ViolationWrongType,
		Detail:    fmt.Sprintf("unsupported parameter type %q", p.Type),
	}
}

// checkRange enforces min/max bounds on a numeric value.
func (p *ParameterSpec) checkRange(v float64) *ValidationError {
	c := p.Constraint
	if c == nil {
		return nil
	}
	if c.Min != nil && v < *c.Min {
		return &ValidationError{
			Param:     p.Name,
			Violation: ViolationOutOfRange,
			Detail:    fmt.Sprintf("value %v is below the minimum %v", v, *c.Min),
		}
	}
	if c.Max != nil && v > *c.Max {
		return &ValidationError{
			Param:     p.Name,
			Violation: ViolationOutOfRange,
			Detail:    fmt.Sprintf("value %v is above the maximum %v", v, *c.Max),
		}
	}
	return nil
}

// Schema is the validated parameter surface of an operator. It is built by
// Manifest parsing and can also be constructed directly in tests.
type Schema struct {
	params []ParameterSpec

	// passthrough retains bindings for undeclared parameters instead of
	// rejecting them
	passthrough bool
}

// NewSchema builds a Schema from parameter specs, checking each spec's
// internal consistency and name uniqueness.
func NewSchema(params []ParameterSpec, passthrough bool) (*Schema, error) {
	seen := make(map[string]bool, len(params))
	specs := make([]ParameterSpec, len(params))
	copy(specs, params)
	for i := range specs {
		if err := specs[i].validate(i); err != nil {
			return nil, err
		}
		if seen[specs[i].Name] {
			return nil, &ParseError{
				Field:  fmt.Sprintf("parameters[%d].name", i),
				Reason: fmt.Sprintf("duplicate parameter %q", specs[i].Name),
			}
		}
		seen[specs[i].Name] = true
	}
	return &Schema{params: specs, passthrough: passthrough}, nil
}

// Parameters returns the declared parameter specs in artifact order.
// The returned slice is a copy; mutating it does not affect the schema.
func (s *Schema) Parameters() []ParameterSpec {
	out := make([]ParameterSpec, len(s.params))
	copy(out, s.params)
	return out
}

// Param returns the spec for a declared parameter name.
func (s *Schema) Param(name string) (ParameterSpec, bool) {
	for _, p := range s.params {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// Passthrough reports whether undeclared bindings are retained.
func (s *Schema) Passthrough() bool {
	return s.passthrough
}

// Validate checks raw bindings against the schema and returns the frozen
// Bindings with defaults applied. The input map is never mutated. On
// failure the returned error is a *ValidationError identifying the
// offending parameter and violation.
func (s *Schema) Validate(values map[string]interface{}) (*Bindings, error) {
	bound := make(map[string]interface{}, len(s.params))
	extra := make(map[string]interface{})

	for key, raw := range values {
		spec, declared := s.Param(key)
		if !declared {
			if s.passthrough {
				// Copy at store time so the caller mutating its map
				// later cannot reach into the frozen bindings.
				extra[key] = deepCopyValue(raw)
				continue
			}
			return nil, &ValidationError{
				Param:     key,
				Violation: ViolationUnknownKey,
				Detail:    "the operator does not declare this parameter",
			}
		}
		normalized, verr := spec.checkValue(raw)
		if verr != nil {
			return nil, verr
		}
		bound[key] = normalized
	}

	for _, spec := range s.params {
		if _, ok := bound[spec.Name]; ok {
			continue
		}
		if spec.HasDefault() {
			bound[spec.Name] = spec.Default
			continue
		}
		if spec.Required {
			return nil, &ValidationError{
				Param:     spec.Name,
				Violation: ViolationMissing,
				Detail:    "required parameter is not bound",
			}
		}
	}

	return newBindings(bound, extra), nil
}

// Missing returns the names of required parameters that have no binding in
// values and no default. Used by the harness to prompt before validation.
func (s *Schema) Missing(values map[string]interface{}) []string {
	var missing []string
	for _, spec := range s.params {
		if !spec.Required || spec.HasDefault() {
			continue
		}
		if _, ok := values[spec.Name]; !ok {
			missing = append(missing, spec.Name)
		}
	}
	return missing
}

// asString accepts string values only.
func asString(raw interface{}) (string, bool) {
	s, ok := raw.(string)
	return s, ok
}

// asInt accepts integers, integral floats, and decimal strings.
func asInt(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return int64(f), true
}

// asFloat accepts any numeric value and decimal strings.
func asFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// asBool accepts booleans and the strings true/false (case-insensitive).
func asBool(raw interface{}) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}

// describeValue renders a raw value for error messages.
func describeValue(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v (%T)", raw, raw)
	}
}
