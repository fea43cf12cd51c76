package apidoc

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/vitalvas/oasmux/pathtpl"
	"github.com/vitalvas/oasmux/validation"
)

// DefaultRoutePrefix is the path the documentation endpoints are served
// under when none is configured.
const DefaultRoutePrefix = "/openapi"

// Interactive documentation renderers.
const (
	RendererSwaggerUI = "swagger-ui"
	RendererRedoc     = "redoc"
	RendererRapiDoc   = "rapidoc"
)

var renderers = []string{RendererSwaggerUI, RendererRedoc, RendererRapiDoc}

// Renderers lists the renderer names accepted in Config.HTMLUI.
func Renderers() []string {
	return slices.Clone(renderers)
}

// UIList is a list of renderer names. In YAML it may be given as a single
// name or as a sequence.
type UIList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *UIList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		if name == "" {
			*l = nil
			return nil
		}
		*l = UIList{name}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*l = names
		return nil
	}
	return fmt.Errorf("htmlui: expected a name or a list of names, line %d", node.Line)
}

// Config configures a documentation middleware.
type Config struct {
	// RoutePrefix is the path of the documentation endpoints.
	RoutePrefix string `yaml:"routePrefix"`

	// BasePath is stripped once from the start of every documented path.
	// A full URL is accepted; only its path is used.
	BasePath string `yaml:"basePath"`

	// Coerce selects how request values are converted before validation.
	Coerce validation.CoerceMode `yaml:"coerce"`

	// HTMLUI lists the interactive renderers to serve. The first one is
	// the target of the RoutePrefix redirect.
	HTMLUI UIList `yaml:"htmlui"`

	// Adjacency controls rendering of a wildcard right after a named
	// parameter.
	Adjacency pathtpl.Adjacency `yaml:"adjacency"`

	// ExposeSchema includes the violated request schema in 400 responses.
	ExposeSchema bool `yaml:"exposeSchema"`

	// Title overrides the HTML page title (default: document info.title).
	Title string `yaml:"title"`

	// SwaggerUI provides additional SwaggerUIBundle options.
	//
	// See: https://swagger.io/docs/open-source-tools/swagger-ui/usage/configuration/
	SwaggerUI map[string]any `yaml:"swaggerUI"`

	Logger *slog.Logger `yaml:"-"`

	// Registerer receives the middleware metrics. Metrics are kept but not
	// registered when nil.
	Registerer prometheus.Registerer `yaml:"-"`

	// ErrorHandler writes request validation and generation failures.
	ErrorHandler func(http.ResponseWriter, *http.Request, error) `yaml:"-"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a YAML configuration and checks its values.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	for _, name := range c.HTMLUI {
		if !slices.Contains(renderers, name) {
			return fmt.Errorf("htmlui: unknown renderer %q, expected one of %s", name, strings.Join(renderers, ", "))
		}
	}
	if c.Coerce != "" {
		if _, err := validation.ParseCoerceMode(string(c.Coerce)); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.RoutePrefix == "" {
		c.RoutePrefix = DefaultRoutePrefix
	}
	c.RoutePrefix = "/" + strings.Trim(c.RoutePrefix, "/")

	if c.BasePath != "" {
		c.BasePath = ExtractPath(c.BasePath)
	}

	if mode, err := validation.ParseCoerceMode(string(c.Coerce)); err == nil {
		c.Coerce = mode
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	if c.ErrorHandler == nil {
		if c.ExposeSchema {
			c.ErrorHandler = validation.WriteErrorWithSchema
		} else {
			c.ErrorHandler = validation.WriteError
		}
	}

	return c
}

// ExtractPath returns the path of a base path setting. Values starting
// with "/" are returned as they are; full URLs give their path.
func ExtractPath(input string) string {
	if strings.HasPrefix(input, "/") {
		return input
	}

	u, err := url.Parse(input)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
