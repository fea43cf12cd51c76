package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/oasmux/mux"
	"github.com/vitalvas/oasmux/openapi"
)

func helloOperation() *openapi.Operation {
	return &openapi.Operation{
		Parameters: []*openapi.Parameter{
			{Name: "X-Custom-Header", In: "header", Required: true, Schema: &openapi.Schema{Type: "string"}},
		},
		RequestBody: &openapi.RequestBody{
			Required: true,
			Content: map[string]*openapi.MediaType{
				"application/json": {Schema: &openapi.Schema{
					Type:     "object",
					Required: []string{"hello"},
					Properties: map[string]*openapi.Schema{
						"hello": {Type: "string", Enum: []any{"world"}},
					},
				}},
			},
		},
		Responses: map[string]*openapi.Response{"200": {Description: "ok"}},
	}
}

func staticOperation(op *openapi.Operation) func() *openapi.Operation {
	return func() *openapi.Operation { return op }
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func findError(errs []Error, path, keyword string) (Error, bool) {
	for _, e := range errs {
		if e.InstancePath == path && e.Keyword == keyword {
			return e, true
		}
	}
	return Error{}, false
}

func TestGateRequestScenario(t *testing.T) {
	gate := NewGate(staticOperation(helloOperation()), nil, GateOptions{Params: mux.Vars})

	r := mux.NewRouter()
	r.Post("/:foo", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Use(gate)

	send := func(body string, header bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/bar", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if header {
			req.Header.Set("X-Custom-Header", "foo")
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing header", func(t *testing.T) {
		rec := send(`{"hello":"world"}`, false)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeErrorBody(t, rec)
		assert.Equal(t, "request validation failed", body.Message)
		e, ok := findError(body.ValidationErrors, "/headers", "required")
		require.True(t, ok, "%+v", body.ValidationErrors)
		assert.Equal(t, "x-custom-header", e.Params["missingProperty"])
		assert.Nil(t, body.ValidationSchema)
	})

	t.Run("body value not in enum", func(t *testing.T) {
		rec := send(`{"hello":"bad boy"}`, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeErrorBody(t, rec)
		_, ok := findError(body.ValidationErrors, "/body/hello", "enum")
		assert.True(t, ok, "%+v", body.ValidationErrors)
	})

	t.Run("missing body", func(t *testing.T) {
		rec := send(``, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeErrorBody(t, rec)
		e, ok := findError(body.ValidationErrors, "", "required")
		require.True(t, ok, "%+v", body.ValidationErrors)
		assert.Equal(t, "body", e.Params["missingProperty"])
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := send(`{"hello":`, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeErrorBody(t, rec)
		_, ok := findError(body.ValidationErrors, "/body", "parse")
		assert.True(t, ok)
	})

	t.Run("conforming request", func(t *testing.T) {
		rec := send(`{"hello":"world"}`, true)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGateCoercion(t *testing.T) {
	op := &openapi.Operation{
		Parameters: []*openapi.Parameter{
			{Name: "limit", In: "query", Schema: &openapi.Schema{Type: "number"}},
			{Name: "id", In: "path", Required: true, Schema: &openapi.Schema{Type: "integer"}},
		},
	}

	run := func(t *testing.T, mode CoerceMode) (int, *Input) {
		t.Helper()
		gate := NewGate(staticOperation(op), nil, GateOptions{
			Options: Options{Coerce: mode},
			Params:  mux.Vars,
		})

		var seen *Input
		r := mux.NewRouter()
		r.Get("/items/{id}", func(w http.ResponseWriter, req *http.Request) {
			seen, _ = FromRequest(req)
			w.WriteHeader(http.StatusNoContent)
		}).Use(gate)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/5?limit=123", nil))
		return rec.Code, seen
	}

	t.Run("snapshot leaves input untouched", func(t *testing.T) {
		code, in := run(t, CoerceSnapshot)
		require.Equal(t, http.StatusNoContent, code)
		require.NotNil(t, in)
		assert.Equal(t, "123", in.Query["limit"])
		assert.Equal(t, "5", in.Params["id"])
	})

	t.Run("in place converts input", func(t *testing.T) {
		code, in := run(t, CoerceInPlace)
		require.Equal(t, http.StatusNoContent, code)
		require.NotNil(t, in)
		assert.Equal(t, float64(123), in.Query["limit"])
		assert.Equal(t, int64(5), in.Params["id"])
	})

	t.Run("off rejects strings", func(t *testing.T) {
		code, in := run(t, CoerceOff)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Nil(t, in)
	})
}

type versionedStore struct {
	mu      sync.Mutex
	comps   *openapi.Components
	version uint64
}

func (s *versionedStore) Snapshot() *openapi.Components {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comps
}

func (s *versionedStore) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func TestGateCompile(t *testing.T) {
	t.Run("compiles once", func(t *testing.T) {
		compiles := 0
		gate := NewGate(staticOperation(&openapi.Operation{}), nil, GateOptions{
			OnCompile: func(error) { compiles++ },
		})

		require.NoError(t, gate.Compile())
		require.NoError(t, gate.Compile())
		assert.Equal(t, 1, compiles)
	})

	t.Run("recompiles when components change", func(t *testing.T) {
		compiles := 0
		store := openapi.NewStore(nil)
		_, err := store.Schemas().Define("Name", &openapi.Schema{Type: "string"})
		require.NoError(t, err)

		op := &openapi.Operation{
			Parameters: []*openapi.Parameter{
				{Name: "name", In: "query", Required: true, Schema: &openapi.Schema{Ref: "#/components/schemas/Name"}},
			},
		}
		gate := NewGate(staticOperation(op), store, GateOptions{
			OnCompile: func(error) { compiles++ },
		})

		require.NoError(t, gate.Compile())
		_, err = store.Schemas().Define("Name", &openapi.Schema{Type: "string", MinLength: intPtr(3)})
		require.NoError(t, err)
		require.NoError(t, gate.Compile())
		assert.Equal(t, 2, compiles)

		h := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?name=ab", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("recompiles when operation is replaced", func(t *testing.T) {
		store := &versionedStore{}
		current := &openapi.Operation{}
		gate := NewGate(func() *openapi.Operation { return current }, store, GateOptions{})

		require.NoError(t, gate.Compile())

		current = &openapi.Operation{RequestBody: &openapi.RequestBody{
			Content: map[string]*openapi.MediaType{"text/plain": {}},
		}}
		assert.ErrorIs(t, gate.Compile(), ErrUnsupportedContentType)
	})

	t.Run("compile error is served as 500", func(t *testing.T) {
		var outcomes []string
		op := &openapi.Operation{RequestBody: &openapi.RequestBody{
			Content: map[string]*openapi.MediaType{"application/xml": {}},
		}}
		gate := NewGate(staticOperation(op), nil, GateOptions{
			Observe: func(outcome string) { outcomes = append(outcomes, outcome) },
		})

		h := gate.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal Server Error", decodeErrorBody(t, rec).Message)
		assert.Equal(t, []string{OutcomeError}, outcomes)
	})
}

func TestGateErrorHandler(t *testing.T) {
	t.Run("custom handler", func(t *testing.T) {
		var got error
		gate := NewGate(staticOperation(helloOperation()), nil, GateOptions{
			ErrorHandler: func(w http.ResponseWriter, _ *http.Request, err error) {
				got = err
				w.WriteHeader(StatusCode(err))
			},
		})

		h := gate.Middleware(http.NotFoundHandler())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.ErrorIs(t, got, ErrRequestValidation)
	})

	t.Run("schema exposed", func(t *testing.T) {
		gate := NewGate(staticOperation(helloOperation()), nil, GateOptions{
			ErrorHandler: WriteErrorWithSchema,
		})

		h := gate.Middleware(http.NotFoundHandler())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		body := decodeErrorBody(t, rec)
		require.NotNil(t, body.ValidationSchema)
		assert.Equal(t, "object", body.ValidationSchema["type"])
	})
}

func intPtr(v int) *int {
	return &v
}
