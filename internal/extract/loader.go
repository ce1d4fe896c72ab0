package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/haakon-okland/invoice-core/internal/common"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

// templateSchema guards template config files before unmarshalling, so a
// malformed file fails with a schema path instead of a zero-valued struct.
const templateSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["key", "rules"],
  "additionalProperties": false,
  "properties": {
    "key": {"type": "string", "minLength": 1},
    "rules": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "patterns", "type"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "patterns": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
          "type": {"enum": ["DATE", "AMOUNT", "IDENTIFIER", "TEXT"]},
          "select": {"enum": ["FIRST", "LAST", "HIGHEST"]},
          "group": {"type": "integer", "minimum": 1},
          "required": {"type": "boolean"}
        }
      }
    },
    "block": {
      "type": "object",
      "required": ["anchor", "amount_pattern"],
      "additionalProperties": false,
      "properties": {
        "anchor": {"type": "string", "minLength": 1},
        "amount_pattern": {"type": "string", "minLength": 1},
        "amount_select": {"enum": ["FIRST", "LAST", "HIGHEST"]},
        "currency": {"type": "string"}
      }
    },
    "block_func": {"type": "string", "minLength": 1}
  }
}`

var compiledTemplateSchema = jsonschema.MustCompileString("template.schema.json", templateSchema)

// ParseTemplate validates raw JSON against the template schema and decodes
// it. The result still goes through NewTemplate (via Registry.Add) for
// regex-level validation.
func ParseTemplate(data []byte) (entity.FieldTemplate, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return entity.FieldTemplate{}, common.NewAppError("TEMPLATE_ERROR", "template is not valid JSON", err)
	}
	if err := compiledTemplateSchema.Validate(doc); err != nil {
		return entity.FieldTemplate{}, common.NewAppError("TEMPLATE_ERROR", "template failed schema validation", err)
	}

	var def entity.FieldTemplate
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&def); err != nil {
		return entity.FieldTemplate{}, common.NewAppError("TEMPLATE_ERROR", "template decode failed", err)
	}
	return def, nil
}

// LoadTemplateFile reads, validates, and decodes one template config file.
func LoadTemplateFile(path string) (entity.FieldTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.FieldTemplate{}, fmt.Errorf("read template %s: %w", path, err)
	}
	return ParseTemplate(data)
}
