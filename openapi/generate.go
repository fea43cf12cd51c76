package openapi

import (
	"log/slog"
	"maps"
	"net/http"
	"sort"
	"strings"

	"github.com/vitalvas/oasmux/pathtpl"
	"github.com/vitalvas/oasmux/routetree"
)

// Default document values used when the base document leaves them empty.
const (
	DefaultTitle   = "Express App"
	DefaultVersion = "1.0.0"
)

// Defaults returns the minimal valid document.
func Defaults() *Document {
	return &Document{
		OpenAPI: Version,
		Info: Info{
			Title:   DefaultTitle,
			Version: DefaultVersion,
		},
		Paths: map[string]*PathItem{},
	}
}

// MergeDefaults returns base laid over Defaults. Info fields are merged one
// by one and the paths map is copied, so base is never modified.
func MergeDefaults(base *Document) *Document {
	doc := Defaults()
	if base == nil {
		return doc
	}

	info := doc.Info
	merged := *base
	doc = &merged

	if doc.OpenAPI == "" {
		doc.OpenAPI = Version
	}
	if doc.Info.Title == "" {
		doc.Info.Title = info.Title
	}
	if doc.Info.Version == "" {
		doc.Info.Version = info.Version
	}

	doc.Paths = make(map[string]*PathItem, len(base.Paths))
	maps.Copy(doc.Paths, base.Paths)

	return doc
}

// Generator builds documents from a route tree.
type Generator struct {
	// Registry resolves schema markers found on route stacks.
	Registry *Registry

	// Adjacency controls rendering of a wildcard directly after a named
	// parameter.
	Adjacency pathtpl.Adjacency

	Logger *slog.Logger
}

// Generate returns base merged over the defaults with one operation for
// every documented route of src. With a nil src the merged base is
// returned. basePath is removed once from the start of discovered paths.
func (g *Generator) Generate(base *Document, src routetree.Source, basePath string) (*Document, error) {
	doc := MergeDefaults(base)
	if src == nil || g.Registry == nil {
		return doc, nil
	}

	walker := routetree.Walker{
		BasePath:  basePath,
		Adjacency: g.Adjacency,
		HasSchema: g.Registry.HasSchema,
		Logger:    g.Logger,
	}

	// Path items coming from base are copied before the first write.
	owned := make(map[string]bool)

	err := walker.Walk(src, func(path string, meta routetree.Meta, leaf routetree.Layer) error {
		marker := leaf.Handler.(*Marker)
		method := strings.ToUpper(leaf.Method)

		op, ok := g.Registry.Composed(marker.Key(), method, path)
		if !ok {
			source, _ := g.Registry.Lookup(marker.Key())
			op = composeOperation(source, meta.Captures)
			g.Registry.StoreComposed(marker.Key(), method, path, source, op)
		}

		item := doc.Paths[path]
		switch {
		case item == nil:
			item = &PathItem{}
		case !owned[path]:
			cp := *item
			item = &cp
		}
		owned[path] = true
		doc.Paths[path] = item

		assignOperation(item, method, op)
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc.Tags = mergeTags(doc.Tags, doc.Paths)

	g.logger().Debug("openapi document generated", "paths", len(doc.Paths))

	return doc, nil
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// composeOperation returns a copy of op whose parameters also describe the
// path captures.
func composeOperation(op *Operation, captures []pathtpl.Capture) *Operation {
	out := &Operation{}
	if op != nil {
		*out = *op
	}
	out.Parameters = MergeParameters(PathParameters(captures), out.Parameters)
	return out
}

// PathParameters returns the generated path parameters for captures.
// Macro constraints become the schema type and format.
func PathParameters(captures []pathtpl.Capture) []*Parameter {
	if len(captures) == 0 {
		return nil
	}

	params := make([]*Parameter, 0, len(captures))
	seen := make(map[string]bool, len(captures))
	for _, c := range captures {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true

		typ, format := pathtpl.MacroSchema(c.Macro)
		params = append(params, &Parameter{
			Name:     c.Name,
			In:       "path",
			Required: !c.Optional,
			Schema:   &Schema{Type: typ, Format: format},
		})
	}
	return params
}

// MergeParameters combines generated parameters with declared ones, keyed
// by name and location. A declared parameter replaces the generated one
// but inherits the generated schema when it has none. Declared parameters
// without a generated counterpart are appended in order. Reference
// parameters are kept as is.
//
// Required is the one field a declaration cannot lower: when the generated
// parameter is required, the merged one is required even if the
// declaration says required: false. OpenAPI 3.0 requires every path
// parameter to be required. A declaration can still raise required on a
// generated optional parameter.
//
// See: https://spec.openapis.org/oas/v3.0.3#operation-object (parameters)
func MergeParameters(auto, declared []*Parameter) []*Parameter {
	if len(auto) == 0 && len(declared) == 0 {
		return nil
	}

	type key [2]string
	byKey := make(map[key]*Parameter, len(declared))
	for _, p := range declared {
		if p == nil || p.Ref != "" {
			continue
		}
		if _, ok := byKey[key{p.Name, p.In}]; !ok {
			byKey[key{p.Name, p.In}] = p
		}
	}

	merged := make([]*Parameter, 0, len(auto)+len(declared))
	used := make(map[*Parameter]bool, len(declared))
	for _, a := range auto {
		d, ok := byKey[key{a.Name, a.In}]
		if !ok {
			merged = append(merged, a)
			continue
		}

		p := *d
		if p.Schema == nil && len(p.Content) == 0 {
			p.Schema = a.Schema
		}
		p.Required = p.Required || a.Required
		merged = append(merged, &p)
		used[d] = true
	}

	for _, p := range declared {
		if p == nil || used[p] {
			continue
		}
		if p.Ref == "" {
			k := key{p.Name, p.In}
			if byKey[k] != p {
				continue
			}
		}
		merged = append(merged, p)
	}

	return merged
}

// assignOperation assigns an operation to the correct HTTP method field
// on the path item.
func assignOperation(pathItem *PathItem, method string, op *Operation) {
	switch method {
	case http.MethodGet:
		pathItem.Get = op
	case http.MethodPost:
		pathItem.Post = op
	case http.MethodPut:
		pathItem.Put = op
	case http.MethodDelete:
		pathItem.Delete = op
	case http.MethodPatch:
		pathItem.Patch = op
	case http.MethodHead:
		pathItem.Head = op
	case http.MethodOptions:
		pathItem.Options = op
	case http.MethodTrace:
		pathItem.Trace = op
	}
}

// Operations returns the operations of the path item keyed by lower case
// method.
func (p *PathItem) Operations() map[string]*Operation {
	ops := make(map[string]*Operation)
	for method, op := range map[string]*Operation{
		"get": p.Get, "put": p.Put, "post": p.Post, "delete": p.Delete,
		"options": p.Options, "head": p.Head, "patch": p.Patch, "trace": p.Trace,
	} {
		if op != nil {
			ops[method] = op
		}
	}
	return ops
}

// mergeTags combines tags collected from operations with declared tags.
// Declared tags keep their description and externalDocs. The result is
// sorted by name.
func mergeTags(declared []Tag, paths map[string]*PathItem) []Tag {
	userTags := make(map[string]Tag, len(declared))
	for _, tag := range declared {
		userTags[tag.Name] = tag
	}

	seen := make(map[string]bool)
	var tags []Tag

	for _, pathItem := range paths {
		for _, op := range pathItem.Operations() {
			for _, tagName := range op.Tags {
				if seen[tagName] {
					continue
				}
				seen[tagName] = true
				if userTag, ok := userTags[tagName]; ok {
					tags = append(tags, userTag)
				} else {
					tags = append(tags, Tag{Name: tagName})
				}
			}
		}
	}

	for _, tag := range declared {
		if !seen[tag.Name] {
			seen[tag.Name] = true
			tags = append(tags, tag)
		}
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	return tags
}
