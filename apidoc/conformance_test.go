package apidoc

import (
	"context"
	"errors"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"

	"github.com/vitalvas/oasmux/openapi"
)

func TestCheckConformance(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		report := CheckConformance(context.Background(), openapi.Defaults())
		assert.True(t, report.Valid, "%v", report.Details)
		assert.NotNil(t, report.Document)
	})

	t.Run("missing responses", func(t *testing.T) {
		doc := openapi.Defaults()
		doc.Paths["/pets"] = &openapi.PathItem{Get: &openapi.Operation{}}

		report := CheckConformance(context.Background(), doc)
		assert.False(t, report.Valid)
		assert.NotEmpty(t, report.Details)
	})

	t.Run("missing title", func(t *testing.T) {
		doc := openapi.Defaults()
		doc.Info.Title = ""

		report := CheckConformance(context.Background(), doc)
		assert.False(t, report.Valid)
	})
}

func TestErrorDetails(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		assert.Equal(t, []string{"boom"}, errorDetails(errors.New("boom")))
	})

	t.Run("multi", func(t *testing.T) {
		err := openapi3.MultiError{errors.New("a"), errors.New("b")}
		assert.Equal(t, []string{"a", "b"}, errorDetails(err))
	})
}
