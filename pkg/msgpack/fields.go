package msgpack

import (
	"reflect"
	"strings"
	"sync"
)

type field struct {
	name  string
	index int
}

var fieldCache sync.Map // reflect.Type -> []field

// structFields lists the encodable fields of t in declaration order.
// Only exported fields are listed. Tag `msgpack:"name"` renames a field;
// `msgpack:"-"` skips it.
func structFields(t reflect.Type) []field {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]field)
	}
	fields := make([]field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("msgpack")
		if tag == "-" {
			continue
		}
		name := sf.Name
		if tagName, _, _ := strings.Cut(tag, ","); tagName != "" {
			name = tagName
		}
		fields = append(fields, field{name: name, index: i})
	}
	actual, _ := fieldCache.LoadOrStore(t, fields)
	return actual.([]field)
}

func lookupField(fields []field, name string) (field, bool) {
	for _, f := range fields {
		if f.name == name {
			return f, true
		}
	}
	return field{}, false
}
