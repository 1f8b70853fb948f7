package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// Columns lists the db-tagged columns of a row struct in field order. It
// panics on a non-struct, so it is meant for package-level column lists.
func Columns(model any) []string {
	fields, err := modelFields(reflect.TypeOf(model), false)
	if err != nil {
		panic(fmt.Sprintf("querybuilder: %v", err))
	}
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, f.column)
	}
	return cols
}

// InsertModel starts an INSERT from the db tags of model. Fields tagged
// `db:"col,readonly"` are skipped so database defaults apply.
func InsertModel(table string, model any) (*InsertBuilder, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}

	fields, err := modelFields(value.Type(), true)
	if err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(fields))
	vals := make([]any, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, f.column)
		vals = append(vals, value.Field(f.index).Interface())
	}
	return InsertInto(table).Columns(cols...).Values(vals...), nil
}

type modelField struct {
	index  int
	column string
}

func modelFields(typ reflect.Type, forInsert bool) ([]modelField, error) {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be struct")
	}

	out := make([]modelField, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		if forInsert && strings.TrimSpace(opts) == "readonly" {
			continue
		}
		out = append(out, modelField{index: i, column: name})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("model has no db columns")
	}
	return out, nil
}
