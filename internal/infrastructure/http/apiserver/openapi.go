package apiserver

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

const docsPage = `<!DOCTYPE html>
<html>
<head>
    <title>HealthyLife API</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
    <redoc spec-url="openapi.yaml"></redoc>
    <script src="https://cdn.redoc.ly/redoc/2.1.3/bundles/redoc.standalone.js"></script>
</body>
</html>`

// OpenAPIHandler serves the embedded OpenAPI document as YAML and JSON
type OpenAPIHandler struct {
	logger   *zap.Logger
	yamlSpec []byte
	jsonSpec []byte
}

// NewOpenAPIHandler parses the embedded document once. A document that
// fails to parse is still served as YAML.
func NewOpenAPIHandler(logger *zap.Logger) *OpenAPIHandler {
	h := &OpenAPIHandler{logger: logger.Named("openapi"), yamlSpec: openAPISpec}

	jsonSpec, err := yamlToJSON(openAPISpec)
	if err != nil {
		h.logger.Error("Failed to convert OpenAPI spec to JSON", zap.Error(err))
	}
	h.jsonSpec = jsonSpec
	return h
}

// ServeYAML handles GET /api/openapi.yaml
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.yamlSpec)
}

// ServeJSON handles GET /api/openapi.json
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	if h.jsonSpec == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "OpenAPI document unavailable"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.jsonSpec)
}

// ServeDocs handles GET /api/docs
func (h *OpenAPIHandler) ServeDocs(w http.ResponseWriter, r *http.Request) {
	// redoc loads its bundle from a CDN
	w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://cdn.redoc.ly; style-src 'self' 'unsafe-inline'; worker-src blob:; img-src 'self' data:")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(docsPage))
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse openapi yaml: %w", err)
	}
	return json.Marshal(stringKeys(doc))
}

// stringKeys rewrites maps with non-string keys, which encoding/json rejects
func stringKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []interface{}:
		for i := range t {
			t[i] = stringKeys(t[i])
		}
		return t
	default:
		return v
	}
}
