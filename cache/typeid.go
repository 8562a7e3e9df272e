package cache

import "reflect"

// typeID is the opaque, comparable fingerprint identifying a stored
// type. reflect.Type already has the properties this needs: it is
// stable for the lifetime of the program, comparable with ==, and
// distinct types never compare equal.
type typeID = reflect.Type

// typeIDOf returns the typeID for T without requiring a value of T in
// hand, so it works for types with no useful zero value too.
func typeIDOf[T any]() typeID {
	return reflect.TypeOf((*T)(nil)).Elem()
}
