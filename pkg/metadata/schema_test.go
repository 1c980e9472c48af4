package metadata

import (
	"errors"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }

func mustSchema(t *testing.T, params []ParameterSpec, passthrough bool) *Schema {
	t.Helper()
	s, err := NewSchema(params, passthrough)
	if err != nil {
		t.Fatalf("NewSchema() unexpected error: %v", err)
	}
	return s
}

// An unbound optional parameter with a default comes back filled in.
func TestValidate_AppliesDefaults(t *testing.T) {
	schema := mustSchema(t, []ParameterSpec{
		{Name: "threshold", Type: TypeFloat, Default: 0.5},
	}, false)

	b, err := schema.Validate(map[string]interface{}{})
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	got := b.Map()
	if len(got) != 1 {
		t.Fatalf("bindings = %v, want exactly one entry", got)
	}
	if got["threshold"] != 0.5 {
		t.Errorf("threshold = %v, want 0.5", got["threshold"])
	}
}

// An unbound required enum is rejected with the parameter name, and a
// value outside the declared set is classified as not_in_enum.
func TestValidate_RequiredEnum(t *testing.T) {
	schema := mustSchema(t, []ParameterSpec{
		{
			Name:       "mode",
			Type:       TypeEnum,
			Required:   true,
			Constraint: &Constraint{Values: []string{"a", "b"}},
		},
	}, false)

	t.Run("missing required", func(t *testing.T) {
		_, err := schema.Validate(map[string]interface{}{})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Validate() error type = %T, want *ValidationError", err)
		}
		if verr.Param != "mode" {
			t.Errorf("ValidationError.Param = %q, want %q", verr.Param, "mode")
		}
		if verr.Violation != ViolationMissing {
			t.Errorf("ValidationError.Violation = %q, want %q", verr.Violation, ViolationMissing)
		}
	})

	t.Run("value outside enum", func(t *testing.T) {
		_, err := schema.Validate(map[string]interface{}{"mode": "c"})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Validate() error type = %T, want *ValidationError", err)
		}
		if verr.Param != "mode" {
			t.Errorf("ValidationError.Param = %q, want %q", verr.Param, "mode")
		}
		if verr.Violation != ViolationNotInEnum {
			t.Errorf("ValidationError.Violation = %q, want %q", verr.Violation, ViolationNotInEnum)
		}
	})

	t.Run("value inside enum", func(t *testing.T) {
		b, err := schema.Validate(map[string]interface{}{"mode": "a"})
		if err != nil {
			t.Fatalf("Validate() unexpected error: %v", err)
		}
		if b.String("mode") != "a" {
			t.Errorf("mode = %q, want %q", b.String("mode"), "a")
		}
	})
}

func TestValidate_Violations(t *testing.T) {
	schema := mustSchema(t, []ParameterSpec{
		{Name: "count", Type: TypeInt, Constraint: &Constraint{Min: floatPtr(1), Max: floatPtr(100)}},
		{Name: "ratio", Type: TypeFloat, Constraint: &Constraint{Min: floatPtr(0), Max: floatPtr(1)}},
		{Name: "label", Type: TypeString, Constraint: &Constraint{Pattern: "^[a-z]+$"}},
		{Name: "enabled", Type: TypeBool},
	}, false)

	tests := []struct {
		name          string
		values        map[string]interface{}
		wantParam     string
		wantViolation Violation
	}{
		{
			name:          "int below range",
			values:        map[string]interface{}{"count": 0},
			wantParam:     "count",
			wantViolation: ViolationOutOfRange,
		},
		{
			name:          "float above range",
			values:        map[string]interface{}{"ratio": 1.5},
			wantParam:     "ratio",
			wantViolation: ViolationOutOfRange,
		},
		{
			name:          "fractional value for int",
			values:        map[string]interface{}{"count": 2.5},
			wantParam:     "count",
			wantViolation: ViolationWrongType,
		},
		{
			name:          "pattern mismatch",
			values:        map[string]interface{}{"label": "Nope123"},
			wantParam:     "label",
			wantViolation: ViolationPatternMismatch,
		},
		{
			name:          "non-boolean for bool",
			values:        map[string]interface{}{"enabled": "maybe"},
			wantParam:     "enabled",
			wantViolation: ViolationWrongType,
		},
		{
			name:          "undeclared parameter",
			values:        map[string]interface{}{"mystery": 1},
			wantParam:     "mystery",
			wantViolation: ViolationUnknownKey,
		},
		{
			name:          "non-string for string",
			values:        map[string]interface{}{"label": 12},
			wantParam:     "label",
			wantViolation: ViolationWrongType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.Validate(tt.values)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error type = %T, want *ValidationError", err)
			}
			if verr.Param != tt.wantParam {
				t.Errorf("ValidationError.Param = %q, want %q", verr.Param, tt.wantParam)
			}
			if verr.Violation != tt.wantViolation {
				t.Errorf("ValidationError.Violation = %q, want %q", verr.Violation, tt.wantViolation)
			}
		})
	}
}

// CLI bindings arrive as strings; typed params coerce them.
func TestValidate_StringCoercion(t *testing.T) {
	schema := mustSchema(t, []ParameterSpec{
		{Name: "count", Type: TypeInt},
		{Name: "ratio", Type: TypeFloat},
		{Name: "enabled", Type: TypeBool},
	}, false)

	b, err := schema.Validate(map[string]interface{}{
		"count":   "42",
		"ratio":   "0.75",
		"enabled": "true",
	})
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	if got := b.Int("count"); got != 42 {
		t.Errorf("count = %d, want 42", got)
	}
	if got := b.Float("ratio"); got != 0.75 {
		t.Errorf("ratio = %v, want 0.75", got)
	}
	if got := b.Bool("enabled"); got != true {
		t.Errorf("enabled = %v, want true", got)
	}
}

// Integral values are accepted for float params, floats never for int
// unless integral.
func TestValidate_NumericWidening(t *testing.T) {
	schema := mustSchema(t, []ParameterSpec{
		{Name: "ratio", Type: TypeFloat},
		{Name: "count", Type: TypeInt},
	}, false)

	b, err := schema.Validate(map[string]interface{}{
		"ratio": 1,
		"count": float64(7),
	})
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if got := b.Float("ratio"); got != 1.0 {
		t.Errorf("ratio = %v, want 1.0", got)
	}
	if got := b.Int("count"); got != 7 {
		t.Errorf("count = %d, want 7", got)
	}
}

// Validation is pure: the caller's map is untouched and repeated calls
// agree.
func TestValidate_DoesNotMutateInput(t *testing.T) {
	schema := mustSchema(t, []ParameterSpec{
		{Name: "threshold", Type: TypeFloat, Default: 0.5},
		{Name: "count", Type: TypeInt},
	}, false)

	values := map[string]interface{}{"count": "3"}

	first, err := schema.Validate(values)
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	if len(values) != 1 {
		t.Errorf("input map grew to %v, defaults must not leak into it", values)
	}
	if values["count"] != "3" {
		t.Errorf("input value rewritten to %v, coercion must not mutate input", values["count"])
	}

	second, err := schema.Validate(values)
	if err != nil {
		t.Fatalf("Validate() second call unexpected error: %v", err)
	}
	if first.Int("count") != second.Int("count") || first.Float("threshold") != second.Float("threshold") {
		t.Error("repeated validation of the same values disagreed")
	}
}

// Bindings are frozen once built: copies handed out never write back.
func TestBindings_Frozen(t *testing.T) {
	schema := mustSchema(t, []ParameterSpec{
		{Name: "threshold", Type: TypeFloat, Default: 0.5},
	}, false)

	b, err := schema.Validate(map[string]interface{}{})
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	snapshot := b.Map()
	snapshot["threshold"] = 99.0
	snapshot["injected"] = "nope"

	if got := b.Float("threshold"); got != 0.5 {
		t.Errorf("threshold changed to %v after mutating a snapshot", got)
	}
	if b.Has("injected") {
		t.Error("snapshot mutation leaked a new binding")
	}
}

func TestValidate_Passthrough(t *testing.T) {
	schema := mustSchema(t, []ParameterSpec{
		{Name: "mountPoint", Type: TypeString, Default: "/mnt/ruipath/hospital_data/"},
	}, true)

	b, err := schema.Validate(map[string]interface{}{
		"mountPoint": "/data/",
		"hospital":   "central",
	})
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	if got := b.String("mountPoint"); got != "/data/" {
		t.Errorf("mountPoint = %q, want %q", got, "/data/")
	}
	extra := b.Extra()
	if extra["hospital"] != "central" {
		t.Errorf("Extra() = %v, want hospital retained", extra)
	}
	if b.Has("hospital") {
		t.Error("passthrough keys must not appear among declared bindings")
	}
}

func TestValidate_PassthroughCopiesNestedValues(t *testing.T) {
	schema := mustSchema(t, []ParameterSpec{
		{Name: "mountPoint", Type: TypeString, Default: "/mnt/ruipath/hospital_data/"},
	}, true)

	routing := map[string]interface{}{
		"wards": []interface{}{"icu", "oncology"},
	}
	values := map[string]interface{}{"routing": routing}

	b, err := schema.Validate(values)
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	routing["wards"] = []interface{}{"hijacked"}
	values["routing"] = "replaced"

	extra := b.Extra()
	got, ok := extra["routing"].(map[string]interface{})
	if !ok {
		t.Fatalf("Extra()[routing] = %v, want the original mapping", extra["routing"])
	}
	wards, ok := got["wards"].([]interface{})
	if !ok || len(wards) != 2 || wards[0] != "icu" {
		t.Errorf("wards = %v, caller mutation reached the frozen bindings", got["wards"])
	}
}

func TestSchema_Missing(t *testing.T) {
	schema := mustSchema(t, []ParameterSpec{
		{Name: "expression", Type: TypeString, Required: true},
		{Name: "mode", Type: TypeEnum, Required: true, Constraint: &Constraint{Values: []string{"a", "b"}}},
		{Name: "limit", Type: TypeInt, Default: 10},
	}, false)

	missing := schema.Missing(map[string]interface{}{"expression": "x > 1"})
	if len(missing) != 1 || missing[0] != "mode" {
		t.Errorf("Missing() = %v, want [mode]", missing)
	}

	missing = schema.Missing(map[string]interface{}{"expression": "x > 1", "mode": "a"})
	if len(missing) != 0 {
		t.Errorf("Missing() = %v, want none", missing)
	}
}

func TestBindings_Names(t *testing.T) {
	schema := mustSchema(t, []ParameterSpec{
		{Name: "b", Type: TypeString, Default: "2"},
		{Name: "a", Type: TypeString, Default: "1"},
	}, false)

	bnd, err := schema.Validate(map[string]interface{}{})
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	names := bnd.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v, want [a b]", names)
	}
}
