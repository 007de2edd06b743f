package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// Record is one library entry as it appears in the source.
type Record struct {
	Text        string
	Type        string
	Description string
}

// Load reads and builds a library from the file at path.
func Load(path string, opts ...Option) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			Code:    ErrCodeNotFound,
			Path:    path,
			Message: "cannot read library source",
			Err:     err,
		}
	}
	return Parse(path, data, opts...)
}

// Parse builds a library from src. The name selects the encoding by its
// extension and is reported in errors.
func Parse(name string, src []byte, opts ...Option) (*Library, error) {
	records, err := decodeRecords(name, src)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	o.source = name
	return build(records, o)
}

func decodeRecords(name string, src []byte) ([]Record, error) {
	ctx := cuecontext.New()

	var data cue.Value
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		f, err := cueyaml.Extract(name, src)
		if err != nil {
			return nil, parseError(name, err)
		}
		data = ctx.BuildFile(f)
	default:
		expr, err := cuejson.Extract(name, src)
		if err != nil {
			return nil, parseError(name, err)
		}
		data = ctx.BuildExpr(expr)
	}
	if err := data.Err(); err != nil {
		return nil, parseError(name, err)
	}

	schema, err := schemaValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("compiling library schema: %w", err)
	}
	if err := schema.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{
			Code:    ErrCodeFormat,
			Path:    name,
			Message: "expected a list of step records or a mapping of category to step records",
			Err:     err,
		}
	}

	switch data.Kind() {
	case cue.ListKind:
		return listRecords(name, data)
	case cue.StructKind:
		return mappingRecords(name, data)
	default:
		return nil, &LoadError{
			Code:    ErrCodeFormat,
			Path:    name,
			Message: fmt.Sprintf("unsupported top-level %s", data.Kind()),
		}
	}
}

// listRecords reads the ИмяШага / ПолныйТипШага / ОписаниеШага shape.
func listRecords(name string, v cue.Value) ([]Record, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatError(name, err)
	}

	var records []Record
	for iter.Next() {
		rec := iter.Value()
		records = append(records, Record{
			Text:        stringField(rec, fieldTitle),
			Type:        stringField(rec, fieldFullType),
			Description: stringField(rec, fieldDescription),
		})
	}
	return records, nil
}

// mappingRecords reads the category -> [шаг / тип / описание] shape. A
// record without a type inherits its category key.
func mappingRecords(name string, v cue.Value) ([]Record, error) {
	fields, err := v.Fields()
	if err != nil {
		return nil, formatError(name, err)
	}

	var records []Record
	for fields.Next() {
		category := fields.Label()

		iter, err := fields.Value().List()
		if err != nil {
			return nil, formatError(name, err)
		}
		for iter.Next() {
			rec := iter.Value()
			typ := stringField(rec, fieldType)
			if typ == "" {
				typ = category
			}
			records = append(records, Record{
				Text:        stringField(rec, fieldStep),
				Type:        typ,
				Description: stringField(rec, fieldStepDesc),
			})
		}
	}
	return records, nil
}

func parseError(name string, err error) *LoadError {
	return &LoadError{
		Code:    ErrCodeParse,
		Path:    name,
		Message: "malformed library data",
		Err:     err,
	}
}

func formatError(name string, err error) *LoadError {
	return &LoadError{
		Code:    ErrCodeFormat,
		Path:    name,
		Message: err.Error(),
		Err:     err,
	}
}
