package utils

import (
	"fmt"
	"reflect"
	"strings"
)

var ColumnTag = "db"

// StructTagValues returns the column names declared by the ColumnTag tags of a
// struct (or pointer to struct), in field order. Options after a comma are
// dropped, as are untagged, "-" and unexported fields.
func StructTagValues(input any) []string {
	t := reflect.TypeOf(input)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("utils: StructTagValues needs a struct, got %T", input))
	}

	var columns []string
	for _, field := range reflect.VisibleFields(t) {
		if !field.IsExported() || field.Anonymous {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get(ColumnTag), ",")
		if name == "" || name == "-" {
			continue
		}
		columns = append(columns, name)
	}

	return columns
}
