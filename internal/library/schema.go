package library

import (
	"cuelang.org/go/cue"
)

// librarySchema accepts both supported source shapes. Record structs stay
// open so that extra export fields do not fail the load.
const librarySchema = `
#Text: string | null

#Record: {
	"ИмяШага"?:       #Text
	"ПолныйТипШага"?: #Text
	"ОписаниеШага"?:  #Text
	"шаг"?:           #Text
	"тип"?:           #Text
	"описание"?:      #Text
	...
}

#Library: [...#Record] | {[string]: [...#Record]}
`

// Field names of the two record shapes.
const (
	fieldTitle       = "ИмяШага"
	fieldFullType    = "ПолныйТипШага"
	fieldDescription = "ОписаниеШага"

	fieldStep     = "шаг"
	fieldType     = "тип"
	fieldStepDesc = "описание"
)

// schemaValue compiles the library schema in ctx and returns #Library.
func schemaValue(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(librarySchema)
	if err := v.Err(); err != nil {
		return cue.Value{}, err
	}
	return v.LookupPath(cue.ParsePath("#Library")), nil
}

// stringField returns the named field of a record as a string. Missing and
// null fields read as empty.
func stringField(rec cue.Value, name string) string {
	f := rec.LookupPath(cue.MakePath(cue.Str(name)))
	if !f.Exists() || f.IsNull() {
		return ""
	}
	s, err := f.String()
	if err != nil {
		return ""
	}
	return s
}
