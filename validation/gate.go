package validation

import (
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/vitalvas/oasmux/mux"
	"github.com/vitalvas/oasmux/openapi"
)

// ComponentSource provides the components references resolve against.
// *openapi.Store satisfies it.
type ComponentSource interface {
	Snapshot() *openapi.Components
	Version() uint64
}

// Validation outcomes reported to GateOptions.Observe.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// GateOptions configure a Gate.
type GateOptions struct {
	Options

	// Params returns the path parameters of a matched request.
	Params func(*http.Request) map[string]string

	// ErrorHandler writes failures. Defaults to WriteError.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// Observe is called with the outcome of every validated request.
	Observe func(outcome string)

	// OnCompile is called after every compilation attempt.
	OnCompile func(err error)

	Logger *slog.Logger
}

// Gate validates requests before they reach the rest of a route stack.
// The validator is compiled on first use and reused until the attached
// operation or the component store changes.
type Gate struct {
	operation func() *openapi.Operation
	comps     ComponentSource
	opts      GateOptions
	current   atomic.Pointer[compiled]
}

type compiled struct {
	op        *openapi.Operation
	version   uint64
	validator *Validator
	err       error
}

// NewGate returns a gate for the operation returned by op. comps may be
// nil when the operation references no components.
func NewGate(op func() *openapi.Operation, comps ComponentSource, opts GateOptions) *Gate {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ErrorHandler == nil {
		opts.ErrorHandler = WriteError
	}
	return &Gate{
		operation: op,
		comps:     comps,
		opts:      opts,
	}
}

// Compile compiles the validator now instead of on the first request.
func (g *Gate) Compile() error {
	_, err := g.validator()
	return err
}

// validator returns the cached validator, compiling it when the source
// changed. Concurrent first calls may compile twice; the results are
// equivalent and the last one is kept.
func (g *Gate) validator() (*Validator, error) {
	op := g.operation()
	var version uint64
	if g.comps != nil {
		version = g.comps.Version()
	}

	if c := g.current.Load(); c != nil && c.op == op && c.version == version {
		return c.validator, c.err
	}

	var comps *openapi.Components
	if g.comps != nil {
		comps = g.comps.Snapshot()
	}

	v, err := Compile(op, comps, g.opts.Options)
	if err != nil {
		g.opts.Logger.Error("request validator compile failed",
			"operation", operationName(op),
			"error", err,
		)
	}
	if g.opts.OnCompile != nil {
		g.opts.OnCompile(err)
	}

	g.current.Store(&compiled{op: op, version: version, validator: v, err: err})
	return v, err
}

// Middleware implements mux.Middleware. Valid requests continue down the
// stack; with in place coercion they carry the coerced input, available
// through FromRequest.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, err := g.validator()
		if err != nil {
			g.observe(OutcomeError)
			g.opts.ErrorHandler(w, r, err)
			return
		}

		var params map[string]string
		if g.opts.Params != nil {
			params = g.opts.Params(r)
		}

		in, err := NewInput(r, params)
		if err != nil {
			if !errors.Is(err, ErrInvalidBody) {
				g.observe(OutcomeError)
				g.opts.ErrorHandler(w, r, err)
				return
			}
			g.observe(OutcomeInvalid)
			g.opts.ErrorHandler(w, r, &RequestValidationError{
				Errors: []Error{{InstancePath: "/body", Keyword: "parse", Message: err.Error()}},
				Schema: v.Schema(),
			})
			return
		}

		if err := v.Validate(in); err != nil {
			if errors.Is(err, ErrRequestValidation) {
				g.observe(OutcomeInvalid)
			} else {
				g.observe(OutcomeError)
			}
			g.opts.ErrorHandler(w, r, err)
			return
		}

		g.observe(OutcomeValid)
		next.ServeHTTP(w, WithInput(r, in))
	})
}

func (g *Gate) observe(outcome string) {
	if g.opts.Observe != nil {
		g.opts.Observe(outcome)
	}
}

func operationName(op *openapi.Operation) string {
	if op == nil {
		return ""
	}
	if op.OperationID != "" {
		return op.OperationID
	}
	return op.Summary
}

// ErrorBody is the JSON body written by WriteError.
type ErrorBody struct {
	Message          string         `json:"message"`
	ValidationErrors []Error        `json:"validationErrors,omitempty"`
	ValidationSchema map[string]any `json:"validationSchema,omitempty"`
}

// WriteError writes err as JSON with its status code. The violated schema
// is left out.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, err, false)
}

// WriteErrorWithSchema writes err like WriteError and includes the
// violated schema.
func WriteErrorWithSchema(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, err, true)
}

func writeError(w http.ResponseWriter, err error, exposeSchema bool) {
	status := StatusCode(err)
	body := ErrorBody{Message: err.Error()}

	var verr *RequestValidationError
	if errors.As(err, &verr) {
		body.Message = ErrRequestValidation.Error()
		body.ValidationErrors = verr.Errors
		if exposeSchema {
			body.ValidationSchema = verr.Schema
		}
	} else if status >= http.StatusInternalServerError {
		body.Message = http.StatusText(status)
	}

	mux.ResponseJSON(w, status, body)
}
