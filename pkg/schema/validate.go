// Package schema validates tool call arguments against a tool's declared
// JSON Schema, translating failures into the invalid_arguments error
// shape: one offending JSON-pointer-ish path per violation.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
)

// Validate checks argsJSON (a raw JSON object, possibly empty/nil) against
// schemaJSON (a raw JSON Schema document). A nil/empty argsJSON is treated
// as `{}`. Returns an *apierror.Error of KindInvalidArguments naming every
// offending field path on failure.
func Validate(schemaJSON, argsJSON json.RawMessage) error {
	if len(argsJSON) == 0 {
		argsJSON = json.RawMessage(`{}`)
	}
	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)
	docLoader := gojsonschema.NewBytesLoader(argsJSON)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return apierror.New(apierror.KindInvalidArguments, fmt.Sprintf("malformed arguments: %v", err))
	}
	if result.Valid() {
		return nil
	}

	paths := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		field := e.Field()
		if field == "" || field == "(root)" {
			field = "/"
		}
		paths = append(paths, field)
	}
	return apierror.New(apierror.KindInvalidArguments, "arguments failed schema validation").WithPaths(paths)
}
