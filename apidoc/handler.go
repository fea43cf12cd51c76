package apidoc

import (
	"net/http"

	"github.com/vitalvas/oasmux/mux"
	"github.com/vitalvas/oasmux/openapi"
)

// componentNotFound is the body of a 404 component response.
type componentNotFound struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Name    string `json:"name"`
}

// Handle registers the documentation endpoints on r and documents the
// routes of r. The document is regenerated on every document request, so
// routes added after Handle are picked up.
//
//	{prefix}.json                            document as JSON
//	{prefix}.yaml                            document as YAML
//	{prefix}/components/{type}/{name}.json   one component definition
//	{prefix}/validate                        conformance report
//	{prefix}/{renderer}                      interactive documentation
//	{prefix}                                 redirect to the first renderer
func (m *Middleware) Handle(r *mux.Router) {
	m.router.Store(r)
	prefix := m.cfg.RoutePrefix

	r.Get(prefix+".json", m.serveJSON)
	r.Get(prefix+".yaml", m.serveYAML)
	r.Get(prefix+"/components/{type}/{name}.json", m.serveComponent)
	r.Get(prefix+"/validate", m.serveValidate)

	for _, name := range m.cfg.HTMLUI {
		r.Get(prefix+"/"+name, m.serveUI(name))
	}

	if len(m.cfg.HTMLUI) > 0 {
		target := prefix + "/" + m.cfg.HTMLUI[0]
		r.Get(prefix, func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, target, http.StatusFound)
		})
	}
}

func (m *Middleware) serveJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := m.regenerate()
	if err != nil {
		m.fail(w, r, err)
		return
	}
	mux.ResponseJSON(w, http.StatusOK, doc)
}

func (m *Middleware) serveYAML(w http.ResponseWriter, r *http.Request) {
	doc, err := m.regenerate()
	if err != nil {
		m.fail(w, r, err)
		return
	}
	mux.ResponseYAML(w, http.StatusOK, doc)
}

func (m *Middleware) serveComponent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	typ, name := vars["type"], vars["name"]

	if kind, ok := openapi.ParseComponentKind(typ); ok {
		if def, ok := m.store.Lookup(kind, name); ok {
			mux.ResponseJSON(w, http.StatusOK, def)
			return
		}
	}

	mux.ResponseJSON(w, http.StatusNotFound, componentNotFound{
		Message: openapi.ErrComponentNotFound.Error(),
		Type:    typ,
		Name:    name,
	})
}

func (m *Middleware) serveValidate(w http.ResponseWriter, r *http.Request) {
	doc, err := m.regenerate()
	if err != nil {
		m.fail(w, r, err)
		return
	}
	mux.ResponseJSON(w, http.StatusOK, CheckConformance(r.Context(), doc))
}

func (m *Middleware) serveUI(renderer string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		title := m.cfg.Title
		if title == "" {
			if doc := m.Document(); doc != nil {
				title = doc.Info.Title
			}
		}

		data, err := renderUI(uiPage{
			Title:    title,
			Renderer: renderer,
			SpecURL:  m.cfg.RoutePrefix + ".json",
			Options:  m.cfg.SwaggerUI,
		})
		if err != nil {
			m.fail(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func (m *Middleware) fail(w http.ResponseWriter, r *http.Request, err error) {
	m.cfg.Logger.Error("documentation request failed",
		"path", r.URL.Path,
		"error", err,
	)
	m.cfg.ErrorHandler(w, r, err)
}
