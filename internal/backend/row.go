package backend

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"github.com/juju/errors"
)

// Row é uma linha como o backend a entrega: coluna -> valor
type Row map[string]any

// Clone copia a linha (cópia rasa dos valores)
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Text devolve a forma textual da coluna ("" quando ausente)
func (r Row) Text(col string) string {
	return stringify(r[col])
}

// ToRow converte um DTO com tags `db` em Row.
// Ponteiros nulos são omitidos, o que dá a semântica de update parcial.
func ToRow(v any) (Row, error) {
	switch t := v.(type) {
	case nil:
		return Row{}, nil
	case Row:
		return t.Clone(), nil
	case map[string]any:
		return Row(t).Clone(), nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Row{}, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, errors.NotValidf("tipo %T para linha", v)
	}

	row := Row{}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("db")
		name, opts, _ := strings.Cut(tag, ",")
		if name == "-" || name == "" {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		if opts == "omitempty" && fv.IsZero() {
			continue
		}
		row[name] = plainValue(fv)
	}
	return row, nil
}

// plainValue remove tipos nomeados sobre string/int/float
func plainValue(v reflect.Value) any {
	switch v.Interface().(type) {
	case uuid.UUID, time.Time:
		return v.Interface()
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Bool:
		return v.Bool()
	}
	return v.Interface()
}

// Decode preenche dst (ponteiro para struct) a partir de uma linha
func Decode(row Row, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "db",
		Result:     dst,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(stringToUUIDHook, stringToTimeHook),
	})
	if err != nil {
		return errors.Trace(err)
	}
	if err := dec.Decode(map[string]any(row)); err != nil {
		return errors.Annotate(err, "falha ao decodificar linha")
	}
	return nil
}

// DecodeAll decodifica uma lista de linhas
func DecodeAll[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var item T
		if err := Decode(row, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

var (
	uuidType = reflect.TypeOf(uuid.UUID{})
	timeType = reflect.TypeOf(time.Time{})
)

func stringToUUIDHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != uuidType {
		return data, nil
	}
	return uuid.Parse(reflect.ValueOf(data).String())
}

func stringToTimeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != timeType {
		return data, nil
	}
	return time.Parse(time.RFC3339Nano, reflect.ValueOf(data).String())
}
