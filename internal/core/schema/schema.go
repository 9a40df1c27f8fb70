// Package schema holds the JSON Schema documents describing treepatch output.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed report.schema.json
var reportSchemaJSON []byte

// ReportSchema returns a fresh decoded copy of the run report schema.
func ReportSchema() (map[string]any, error) {
	var schemaMap map[string]any
	if err := json.Unmarshal(reportSchemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("schema: decode report schema: %w", err)
	}
	return schemaMap, nil
}

// RawReportSchema returns the embedded schema document as written.
func RawReportSchema() []byte {
	out := make([]byte, len(reportSchemaJSON))
	copy(out, reportSchemaJSON)
	return out
}
