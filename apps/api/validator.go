package main

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/getkin/kin-openapi/openapi3"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	"go.uber.org/zap"
)

// mustNewSpecValidator loads the OpenAPI document and builds request
// validator middleware from it, so handlers only ever see payloads the
// contract allows.
func mustNewSpecValidator(logger *zap.Logger, path string) func(http.Handler) http.Handler {
	absPath, err := filepath.Abs(path)
	if err != nil {
		logger.Fatal("resolve contract path", zap.String("path", path), zap.Error(err))
	}

	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromFile(absPath)
	if err != nil {
		logger.Fatal("load openapi contract", zap.String("path", path), zap.Error(err))
	}

	// Requests arrive on per-tenant subdomains; host matching against the
	// contract's servers list would reject all of them.
	spec.Servers = nil

	return oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		SilenceServersWarning: true,
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(statusCode)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
		},
	})
}
