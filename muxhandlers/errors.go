package muxhandlers

import (
	"net/http"

	"github.com/vitalvas/oasmux/mux"
	"github.com/vitalvas/oasmux/validation"
)

// writeStatus writes a JSON error body with the status text of code, in
// the same shape as request validation errors.
func writeStatus(w http.ResponseWriter, code int) {
	mux.ResponseJSON(w, code, validation.ErrorBody{Message: http.StatusText(code)})
}
