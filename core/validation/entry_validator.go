package validation

import (
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// Built-in schema for a timeline-entry value projection. Only entry_type is
// required; the ledger contract has shipped several field layouts and a
// strict schema would reject valid historical entries.
const timelineEntrySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "TimelineEntryValue",
  "type": "object",
  "required": ["entry_type"],
  "properties": {
    "entry_type": { "type": "integer", "minimum": 0 },
    "patient_ref_bytes": {},
    "visit_date": { "type": "string" },
    "provider_specialty": { "type": "string" },
    "visit_type": { "type": "string" },
    "status": { "type": "string" },
    "content_hash": { "type": "string", "maxLength": 128 },
    "walrus_blob_id": {},
    "created_at": {},
    "revoked": { "type": "boolean" }
  }
}`

// EntryValidator checks decoded timeline-entry payloads against the schema
// before they are admitted into a view.
type EntryValidator struct {
	schema *gojsonschema.Schema
}

// NewEntryValidator compiles the entry schema. MEDVAULT_ENTRY_SCHEMA_PATH
// overrides the built-in schema with a file on disk.
func NewEntryValidator() (*EntryValidator, error) {
	var loader gojsonschema.JSONLoader
	if path := os.Getenv("MEDVAULT_ENTRY_SCHEMA_PATH"); path != "" {
		loader = gojsonschema.NewReferenceLoader("file://" + path)
	} else {
		loader = gojsonschema.NewStringLoader(timelineEntrySchema)
	}
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("failed to compile entry schema: %w", err)
	}
	return &EntryValidator{schema: schema}, nil
}

// ValidateEntry validates a raw entry value payload against the schema.
func (v *EntryValidator) ValidateEntry(payload []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		errStr := ""
		for _, e := range result.Errors() {
			errStr += e.String() + "; "
		}
		return fmt.Errorf("entry failed schema validation: %s", errStr)
	}
	return nil
}
