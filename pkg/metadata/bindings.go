package metadata

import (
	"sort"

	"github.com/mitchellh/copystructure"
)

// Bindings is a validated, frozen set of parameter values. Instances are
// produced only by Schema.Validate: every value has already been coerced
// to its declared type, defaults are filled in, and the set never changes
// afterwards. Operators read from Bindings during construction and must
// not retain references into maps returned by Map or Extra across calls.
type Bindings struct {
	values map[string]interface{}
	extra  map[string]interface{}
}

// newBindings takes ownership of both maps.
func newBindings(values, extra map[string]interface{}) *Bindings {
	return &Bindings{values: values, extra: extra}
}

// Has reports whether the parameter has a bound value (including defaults).
func (b *Bindings) Has(name string) bool {
	_, ok := b.values[name]
	return ok
}

// Value returns the bound value for a parameter.
func (b *Bindings) Value(name string) (interface{}, bool) {
	v, ok := b.values[name]
	return v, ok
}

// String returns the bound string value, or "" when absent.
func (b *Bindings) String(name string) string {
	if v, ok := b.values[name].(string); ok {
		return v
	}
	return ""
}

// Int returns the bound integer value, or 0 when absent.
func (b *Bindings) Int(name string) int64 {
	if v, ok := b.values[name].(int64); ok {
		return v
	}
	return 0
}

// Float returns the bound float value, or 0 when absent.
func (b *Bindings) Float(name string) float64 {
	if v, ok := b.values[name].(float64); ok {
		return v
	}
	return 0
}

// Bool returns the bound boolean value, or false when absent.
func (b *Bindings) Bool(name string) bool {
	if v, ok := b.values[name].(bool); ok {
		return v
	}
	return false
}

// Names returns the bound parameter names in sorted order.
func (b *Bindings) Names() []string {
	names := make([]string, 0, len(b.values))
	for name := range b.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bound parameters, excluding passthrough keys.
func (b *Bindings) Len() int {
	return len(b.values)
}

// Map returns a deep copy of the bound values. Mutating the copy does not
// affect the bindings.
func (b *Bindings) Map() map[string]interface{} {
	return deepCopyMap(b.values)
}

// Extra returns a deep copy of passthrough bindings that the schema did
// not declare. Empty unless the schema allows passthrough.
func (b *Bindings) Extra() map[string]interface{} {
	return deepCopyMap(b.extra)
}

func deepCopyValue(v interface{}) interface{} {
	copied, err := copystructure.Copy(v)
	if err != nil {
		return v
	}
	return copied
}

func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	if len(m) == 0 {
		return map[string]interface{}{}
	}
	copied, err := copystructure.Copy(m)
	if err != nil {
		// Values reaching here were produced by checkValue and are plain
		// scalars, slices, and maps; Copy cannot fail on them.
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	return copied.(map[string]interface{})
}
