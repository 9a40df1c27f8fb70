package runner

import (
	"fmt"
	"strings"
	"sync"

	"github.com/asynkron/treepatch/internal/core/schema"
	"github.com/xeipuuv/gojsonschema"
)

var (
	reportSchemaLoader     gojsonschema.JSONLoader
	reportSchemaLoaderErr  error
	reportSchemaLoaderOnce sync.Once
)

// SchemaValidationError lists every schema violation found in a report.
type SchemaValidationError struct {
	Issues []string
}

func (e SchemaValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "report failed schema validation"
	}
	return strings.Join(e.Issues, "; ")
}

// ValidateReportJSON checks raw report JSON against the embedded report schema.
func ValidateReportJSON(raw []byte) error {
	loader, err := loadReportSchema()
	if err != nil {
		return fmt.Errorf("runner: load report schema: %w", err)
	}

	result, err := gojsonschema.Validate(loader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("runner: schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return SchemaValidationError{Issues: issues}
}

func loadReportSchema() (gojsonschema.JSONLoader, error) {
	reportSchemaLoaderOnce.Do(func() {
		schemaMap, err := schema.ReportSchema()
		if err != nil {
			reportSchemaLoaderErr = err
			return
		}
		reportSchemaLoader = gojsonschema.NewGoLoader(schemaMap)
	})
	if reportSchemaLoaderErr != nil {
		return nil, reportSchemaLoaderErr
	}
	return reportSchemaLoader, nil
}
