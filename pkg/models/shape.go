package models

import (
	"github.com/xeipuuv/gojsonschema"
)

// workflowSchemaJSON mirrors the submission shape: a required non-empty name
// plus an optional ordered component list. Setting values are limited to
// scalars, so nulls, arrays, and nested objects are reported here with a
// field path pointing at the offending value.
const workflowSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "components": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"type": "string", "enum": ["import", "shadow", "crop", "export"]},
          "settings": {
            "type": ["object", "null"],
            "propertyNames": {"minLength": 1},
            "additionalProperties": {"type": ["integer", "number", "string", "boolean"]}
          }
        }
      }
    }
  }
}`

var workflowSchema = mustCompileSchema(workflowSchemaJSON)

func mustCompileSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader([]byte(raw)))
	if err != nil {
		panic("workflow schema does not compile: " + err.Error())
	}

	return schema
}

// CheckShape validates raw submission bytes against the workflow schema
// before any typed decoding happens. It returns one message list per
// offending field keyed by the field's JSON path, or an error when the
// payload is not JSON at all.
func CheckShape(raw []byte) (map[string][]string, error) {
	result, err := workflowSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &ShapeError{Message: "request body is not valid JSON", Err: err}
	}

	if result.Valid() {
		return nil, nil
	}

	fieldErrors := make(map[string][]string)
	for _, resultError := range result.Errors() {
		field := resultError.Field()
		fieldErrors[field] = append(fieldErrors[field], resultError.Description())
	}

	return fieldErrors, nil
}
