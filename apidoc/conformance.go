package apidoc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/vitalvas/oasmux/openapi"
)

// Report is the result of checking a document against the OpenAPI
// specification.
type Report struct {
	Valid    bool              `json:"valid"`
	Details  []string          `json:"details,omitempty"`
	Document *openapi.Document `json:"document"`
}

// CheckConformance loads doc with an independent OpenAPI implementation
// and validates it.
func CheckConformance(ctx context.Context, doc *openapi.Document) Report {
	report := Report{Document: doc}

	data, err := json.Marshal(doc)
	if err != nil {
		report.Details = []string{err.Error()}
		return report
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx

	loaded, err := loader.LoadFromData(data)
	if err != nil {
		report.Details = []string{err.Error()}
		return report
	}

	if err := loaded.Validate(ctx); err != nil {
		report.Details = errorDetails(err)
		return report
	}

	report.Valid = true
	return report
}

func errorDetails(err error) []string {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		details := make([]string, 0, len(multi))
		for _, e := range multi {
			details = append(details, e.Error())
		}
		return details
	}
	return []string{err.Error()}
}
