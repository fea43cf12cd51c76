// Package apidoc documents and validates the routes of a mux.Router.
//
// A Middleware owns a schema registry, a component store and the current
// OpenAPI document. Operations are attached to routes with Path, or with
// ValidPath to also validate incoming requests:
//
//	docs, err := apidoc.New(&openapi.Document{
//	    Info: openapi.Info{Title: "Pet Store", Version: "1.0.0"},
//	}, apidoc.Config{HTMLUI: apidoc.UIList{apidoc.RendererSwaggerUI}})
//	if err != nil {
//	    return err
//	}
//
//	pet, _ := docs.Schemas().Define("Pet", &openapi.Schema{Type: "object"})
//
//	r := mux.NewRouter()
//	r.Get("/pets/{id}", getPet).Use(docs.Path(&openapi.Operation{
//	    Responses: map[string]*openapi.Response{
//	        "200": {Description: "a pet", Content: map[string]*openapi.MediaType{
//	            "application/json": {Schema: pet.Schema()},
//	        }},
//	    },
//	}))
//	docs.Handle(r)
//
// Handle serves the document as JSON and YAML under the route prefix
// together with single component lookups, a conformance report and the
// configured interactive renderers.
package apidoc
