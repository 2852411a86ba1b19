package service

import (
	_ "embed"
	"errors"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed ticket.schema.json
var ticketSchemaJSON string

// ticketSchema is compiled once at init; the schema ships with the binary.
var ticketSchema = jsonschema.MustCompileString("memory://schemas/ticket.json", ticketSchemaJSON)

// collectSchemaErrors folds the leaf causes of a schema validation failure
// into per-field messages. A leaf without an instance path (a missing
// required property, for instance) lands under "base".
func collectSchemaErrors(err error, into FieldErrors) {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		into.add("base", err.Error())
		return
	}

	for _, leaf := range leafCauses(validationErr) {
		field := strings.TrimPrefix(leaf.InstanceLocation, "/")
		if idx := strings.Index(field, "/"); idx >= 0 {
			field = field[:idx]
		}
		if field == "" {
			field = "base"
		}
		into.add(field, leaf.Message)
	}
}

func leafCauses(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}

	var leaves []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		leaves = append(leaves, leafCauses(cause)...)
	}
	return leaves
}
