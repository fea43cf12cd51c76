// Package petstore is a small in-memory API used by the oasmux command and
// its tests to exercise documentation and request validation.
package petstore

import (
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/vitalvas/oasmux/apidoc"
	"github.com/vitalvas/oasmux/mux"
	"github.com/vitalvas/oasmux/openapi"
	"github.com/vitalvas/oasmux/validation"
)

// Pet is a stored pet.
type Pet struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Tag  string `json:"tag,omitempty"`
}

// NewPet is the body of a create request.
type NewPet struct {
	Name string `json:"name"`
	Tag  string `json:"tag,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Store keeps pets in memory.
type Store struct {
	mu     sync.RWMutex
	pets   map[int64]Pet
	nextID int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{pets: make(map[int64]Pet), nextID: 1}
}

// Add stores a new pet and returns it with its ID.
func (s *Store) Add(p NewPet) Pet {
	s.mu.Lock()
	defer s.mu.Unlock()

	pet := Pet{ID: s.nextID, Name: p.Name, Tag: p.Tag}
	s.pets[pet.ID] = pet
	s.nextID++
	return pet
}

// Get returns the pet with id.
func (s *Store) Get(id int64) (Pet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pet, ok := s.pets[id]
	return pet, ok
}

// Delete removes the pet with id and reports whether it existed.
func (s *Store) Delete(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pets[id]; !ok {
		return false
	}
	delete(s.pets, id)
	return true
}

// List returns up to limit pets ordered by ID. A limit of zero or less
// returns every pet.
func (s *Store) List(limit int) []Pet {
	s.mu.RLock()
	pets := make([]Pet, 0, len(s.pets))
	for _, pet := range s.pets {
		pets = append(pets, pet)
	}
	s.mu.RUnlock()

	slices.SortFunc(pets, func(a, b Pet) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	if limit > 0 && len(pets) > limit {
		pets = pets[:limit]
	}
	return pets
}

// Register defines the petstore components on docs and adds the routes
// to r. Create, get and delete requests are validated.
func Register(docs *apidoc.Middleware, r *mux.Router, store *Store) error {
	refs, err := defineComponents(docs)
	if err != nil {
		return err
	}

	h := &handlers{store: store}
	jsonContent := func(schema *openapi.Schema) map[string]*openapi.MediaType {
		return map[string]*openapi.MediaType{"application/json": {Schema: schema}}
	}
	idParam := &openapi.Parameter{
		Name:     "id",
		In:       "path",
		Required: true,
		Schema:   &openapi.Schema{Type: "integer", Format: "int64", Minimum: ptr(1.0)},
	}

	r.Get("/pets", h.list).Use(docs.ValidPath(&openapi.Operation{
		Tags:        []string{"pets"},
		OperationID: "listPets",
		Summary:     "List pets",
		Parameters:  []*openapi.Parameter{refs.limit.Parameter()},
		Responses: map[string]*openapi.Response{
			"200": {
				Description: "pets ordered by id",
				Content:     jsonContent(&openapi.Schema{Type: "array", Items: refs.pet.Schema()}),
			},
			"400": refs.errResponse.Response(),
		},
	}))

	r.Post("/pets", h.create).Use(docs.ValidPath(&openapi.Operation{
		Tags:        []string{"pets"},
		OperationID: "createPet",
		Summary:     "Create a pet",
		RequestBody: &openapi.RequestBody{
			Required: true,
			Content:  jsonContent(refs.newPet.Schema()),
		},
		Responses: map[string]*openapi.Response{
			"201": {Description: "the created pet", Content: jsonContent(refs.pet.Schema())},
			"400": refs.errResponse.Response(),
		},
	}))

	r.Get("/pets/{id:int}", h.get).Use(docs.ValidPath(&openapi.Operation{
		Tags:        []string{"pets"},
		OperationID: "getPet",
		Summary:     "Get a pet",
		Parameters:  []*openapi.Parameter{idParam},
		Responses: map[string]*openapi.Response{
			"200": {Description: "the pet", Content: jsonContent(refs.pet.Schema())},
			"404": refs.errResponse.Response(),
		},
	}))

	r.Delete("/pets/{id:int}", h.delete).Use(docs.ValidPath(&openapi.Operation{
		Tags:        []string{"pets"},
		OperationID: "deletePet",
		Summary:     "Delete a pet",
		Parameters:  []*openapi.Parameter{idParam},
		Responses: map[string]*openapi.Response{
			"204": {Description: "deleted"},
			"404": refs.errResponse.Response(),
		},
	}))

	return nil
}

type componentRefs struct {
	pet, newPet, limit, errResponse openapi.Reference
}

func defineComponents(docs *apidoc.Middleware) (componentRefs, error) {
	var (
		refs componentRefs
		err  error
	)

	if refs.newPet, err = docs.Schemas().Define("NewPet", &openapi.Schema{
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*openapi.Schema{
			"name": {Type: "string", MinLength: ptr(1), MaxLength: ptr(64)},
			"tag":  {Type: "string"},
		},
		AdditionalProperties: &openapi.AdditionalProperties{Allowed: ptr(false)},
	}); err != nil {
		return refs, err
	}

	if refs.pet, err = docs.Schemas().Define("Pet", &openapi.Schema{
		Type:     "object",
		Required: []string{"id", "name"},
		Properties: map[string]*openapi.Schema{
			"id":   {Type: "integer", Format: "int64"},
			"name": {Type: "string"},
			"tag":  {Type: "string"},
		},
	}); err != nil {
		return refs, err
	}

	if refs.limit, err = docs.Parameters().Define("Limit", &openapi.Parameter{
		Name:        "limit",
		In:          "query",
		Description: "maximum number of pets to return",
		Schema:      &openapi.Schema{Type: "integer", Format: "int32", Minimum: ptr(1.0), Maximum: ptr(100.0)},
	}); err != nil {
		return refs, err
	}

	errSchema, err := docs.Schemas().Define("Error", &openapi.Schema{
		Type:       "object",
		Required:   []string{"message"},
		Properties: map[string]*openapi.Schema{"message": {Type: "string"}},
	})
	if err != nil {
		return refs, err
	}

	refs.errResponse, err = docs.Responses().Define("Error", &openapi.Response{
		Description: "error",
		Content: map[string]*openapi.MediaType{
			"application/json": {Schema: errSchema.Schema()},
		},
	})
	return refs, err
}

type handlers struct {
	store *Store
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	mux.ResponseJSON(w, http.StatusOK, h.store.List(limit))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	var p NewPet
	if err := mux.BindJSON(r, &p); err != nil {
		mux.ResponseJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
		return
	}
	mux.ResponseJSON(w, http.StatusCreated, h.store.Add(p))
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := petID(r)
	if !ok {
		notFound(w)
		return
	}
	pet, ok := h.store.Get(id)
	if !ok {
		notFound(w)
		return
	}
	mux.ResponseJSON(w, http.StatusOK, pet)
}

func (h *handlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := petID(r)
	if !ok || !h.store.Delete(id) {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// petID reads the id path parameter, preferring the validated input.
func petID(r *http.Request) (int64, bool) {
	if in, ok := validation.FromRequest(r); ok {
		if id, ok := in.Params["id"].(int64); ok {
			return id, true
		}
	}
	raw, ok := mux.VarGet(r, "id")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}

func notFound(w http.ResponseWriter) {
	mux.ResponseJSON(w, http.StatusNotFound, errorBody{Message: "pet not found"})
}

func ptr[T any](v T) *T {
	return &v
}
