package msgpack

import "reflect"

func valueOf(v any) reflect.Value {
	return reflect.ValueOf(v)
}
