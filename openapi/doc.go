// Package openapi holds the OpenAPI v3.0.3 document model and builds
// documents from a live route tree.
//
// See: https://spec.openapis.org/oas/v3.0.3
//
// # Schema Markers
//
// Operation schemas are attached to routes through markers: pass-through
// middleware whose identity keys a Registry. A marker is placed on the
// route stack like any other middleware:
//
//	reg := openapi.NewRegistry()
//	r := mux.NewRouter()
//	r.Get("/users/{id}", getUser).Use(reg.NewMarker(&openapi.Operation{
//	    Summary: "Get a user",
//	    Responses: map[string]*openapi.Response{
//	        "200": {Description: "the user"},
//	    },
//	}))
//
// # Components
//
// A Store keeps the reusable components of a document. Define returns a
// reference, and Reference fails with ErrUnknownComponent for names that
// are not defined yet:
//
//	store := openapi.NewStore(nil)
//	ref, err := store.Schemas().Define("User", &openapi.Schema{Type: "object"})
//	...
//	op.Responses["200"].Content["application/json"].Schema = ref.Schema()
//
// # Generation
//
// A Generator walks the router, renders each route path as a template with
// {name} placeholders and writes the attached operations into the paths of
// a copy of the base document:
//
//	gen := openapi.Generator{Registry: reg}
//	doc, err := gen.Generate(&openapi.Document{Info: openapi.Info{Title: "Users"}}, r, "")
//
// Path captures become path parameters. A declared parameter with the same
// name and location wins over the generated one and inherits its schema
// when it declares none. Unnamed captures are named by their position:
// "/files/*" is documented as "/files/{0}".
//
// Routes registered with several paths produce one entry per path. When
// two registrations resolve to the same path and method the later one
// wins.
package openapi
