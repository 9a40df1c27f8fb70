package schema

import "testing"

func TestReportSchemaRequiresTopLevelFields(t *testing.T) {
	t.Parallel()

	schemaMap, err := ReportSchema()
	if err != nil {
		t.Fatalf("ReportSchema returned error: %v", err)
	}

	required, ok := schemaMap["required"].([]any)
	if !ok {
		t.Fatalf("expected required list to be present")
	}

	want := map[string]bool{"roots": false, "dryRun": false, "success": false, "metrics": false}
	for _, value := range required {
		if str, _ := value.(string); str != "" {
			if _, tracked := want[str]; tracked {
				want[str] = true
			}
		}
	}
	for field, seen := range want {
		if !seen {
			t.Fatalf("expected %s to be marked as required", field)
		}
	}
}

func TestReportSchemaListsEveryErrorCode(t *testing.T) {
	t.Parallel()

	schemaMap, err := ReportSchema()
	if err != nil {
		t.Fatalf("ReportSchema returned error: %v", err)
	}

	definitions, ok := schemaMap["definitions"].(map[string]any)
	if !ok {
		t.Fatalf("expected schema definitions to be present")
	}
	errorDef, ok := definitions["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error definition")
	}
	properties, _ := errorDef["properties"].(map[string]any)
	code, _ := properties["code"].(map[string]any)
	enum, ok := code["enum"].([]any)
	if !ok {
		t.Fatalf("expected code enum to be present")
	}
	if len(enum) != 8 {
		t.Fatalf("expected 8 error codes, got %d", len(enum))
	}
}

func TestReportSchemaReturnsIndependentCopies(t *testing.T) {
	t.Parallel()

	first, err := ReportSchema()
	if err != nil {
		t.Fatalf("ReportSchema returned error: %v", err)
	}
	first["title"] = "mutated"

	second, err := ReportSchema()
	if err != nil {
		t.Fatalf("ReportSchema returned error: %v", err)
	}
	if second["title"] == "mutated" {
		t.Fatalf("expected schema copies to be independent")
	}
	if len(RawReportSchema()) == 0 {
		t.Fatalf("expected raw schema bytes")
	}
}
