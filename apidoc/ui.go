package apidoc

import (
	"bytes"
	"html/template"

	"github.com/Masterminds/sprig/v3"
)

// uiPage is the data every renderer template receives.
type uiPage struct {
	Title    string
	Renderer string
	SpecURL  string
	Options  map[string]any
}

const uiTemplates = `
{{- define "head" -}}
<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{ .Title | default "API Documentation" | trunc 200 }}</title>
<style>
html { box-sizing: border-box; overflow-y: scroll; }
*, *:before, *:after { box-sizing: inherit; }
body { margin: 0; padding: 0; background: #fafafa; }
</style>
{{- end }}

{{- define "swagger-ui" -}}
{{ template "head" . }}
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
window.onload = function () {
  window.ui = SwaggerUIBundle({url: {{ .SpecURL }}, dom_id: "#swagger-ui"
  {{- range $key := keys .Options | sortAlpha }}, {{ $key }}: {{ index $.Options $key }}{{ end }}});
};
</script>
</body>
</html>
{{- end }}

{{- define "redoc" -}}
{{ template "head" . }}
<link href="https://fonts.googleapis.com/css?family=Montserrat:300,400,700|Roboto:300,400,700" rel="stylesheet">
</head>
<body>
<redoc spec-url="{{ .SpecURL }}"></redoc>
<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>
{{- end }}

{{- define "rapidoc" -}}
{{ template "head" . }}
<script type="module" src="https://unpkg.com/rapidoc/dist/rapidoc-min.js"></script>
</head>
<body>
<rapi-doc spec-url="{{ .SpecURL }}"></rapi-doc>
</body>
</html>
{{- end }}
`

var uiTemplate = template.Must(template.New("ui").Funcs(sprig.HtmlFuncMap()).Parse(uiTemplates))

// renderUI renders the page of the named renderer.
func renderUI(page uiPage) ([]byte, error) {
	var buf bytes.Buffer
	if err := uiTemplate.ExecuteTemplate(&buf, page.Renderer, page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
