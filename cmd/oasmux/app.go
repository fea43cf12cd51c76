package main

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitalvas/oasmux/apidoc"
	"github.com/vitalvas/oasmux/internal/petstore"
	"github.com/vitalvas/oasmux/mux"
	"github.com/vitalvas/oasmux/muxhandlers"
	"github.com/vitalvas/oasmux/openapi"
)

// maxBodyBytes bounds request bodies of the demo API.
const maxBodyBytes = 1 << 20

type app struct {
	docs     *apidoc.Middleware
	router   *mux.Router
	registry *prometheus.Registry
	logger   *slog.Logger
}

// demoDocument is the base document used when no --base file is given.
func demoDocument() *openapi.Document {
	return &openapi.Document{
		Info: openapi.Info{
			Title:       "Pet Store",
			Description: "Demo API documented from its route tree",
			Version:     Version,
		},
		Tags: []openapi.Tag{{Name: "pets", Description: "Everything about pets"}},
	}
}

func newApp(cfg apidoc.Config, base *openapi.Document, logger *slog.Logger) (*app, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	cfg.Logger = logger
	cfg.Registerer = registry
	if len(cfg.HTMLUI) == 0 {
		cfg.HTMLUI = apidoc.UIList{apidoc.RendererSwaggerUI}
	}

	if base == nil {
		base = demoDocument()
	}

	docs, err := apidoc.New(base, cfg)
	if err != nil {
		return nil, err
	}

	requestID, err := muxhandlers.RequestIDMiddleware(muxhandlers.RequestIDConfig{TrustIncoming: true})
	if err != nil {
		return nil, err
	}
	sizeLimit, err := muxhandlers.RequestSizeLimitMiddleware(muxhandlers.RequestSizeLimitConfig{MaxBytes: maxBodyBytes})
	if err != nil {
		return nil, err
	}
	contentType, err := muxhandlers.ContentTypeCheckMiddleware(muxhandlers.ContentTypeCheckConfig{AllowEmpty: true})
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.Use(
		requestID,
		muxhandlers.RecoveryMiddleware(muxhandlers.RecoveryConfig{Logger: logger}),
		sizeLimit,
		contentType,
	)

	if err := petstore.Register(docs, r, petstore.NewStore()); err != nil {
		return nil, err
	}
	docs.Handle(r)

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		Registry:          registry,
		EnableOpenMetrics: true,
	})).Methods(http.MethodGet)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		mux.ResponseJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if err := docs.Compile(r); err != nil {
		return nil, err
	}

	return &app{
		docs:     docs,
		router:   r,
		registry: registry,
		logger:   logger,
	}, nil
}
