package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type openAPIParameter struct {
	Ref  string `yaml:"$ref"`
	Name string `yaml:"name"`
	In   string `yaml:"in"`
}

type openAPIResponse struct {
	Ref     string         `yaml:"$ref"`
	Content map[string]any `yaml:"content"`
}

type openAPIOperation struct {
	Parameters []openAPIParameter          `yaml:"parameters"`
	Responses  map[string]openAPIResponse `yaml:"responses"`
}

type openAPIDocument struct {
	Paths      map[string]map[string]yaml.Node `yaml:"paths"`
	Components struct {
		Parameters map[string]openAPIParameter `yaml:"parameters"`
		Schemas    struct {
			Error struct {
				Properties struct {
					Error struct {
						Properties struct {
							Code struct {
								Enum []string `yaml:"enum"`
							} `yaml:"code"`
						} `yaml:"properties"`
					} `yaml:"error"`
				} `yaml:"properties"`
			} `yaml:"Error"`
		} `yaml:"schemas"`
	} `yaml:"components"`
}

var httpMethods = map[string]string{
	"get": http.MethodGet, "post": http.MethodPost, "put": http.MethodPut,
	"patch": http.MethodPatch, "delete": http.MethodDelete,
}

var pathParam = regexp.MustCompile(`\{([^}]+)\}`)

func repoRoot(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", ".."))
}

func loadOpenAPI(t *testing.T) openAPIDocument {
	t.Helper()
	path := filepath.Join(repoRoot(t), "api", "openapi.yaml")
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read %s", path)

	var doc openAPIDocument
	require.NoError(t, yaml.Unmarshal(b, &doc), "parse %s", path)
	return doc
}

// operations yields every method of every path; path-level parameters are merged into each.
func operations(t *testing.T, doc openAPIDocument) map[string]openAPIOperation {
	t.Helper()
	out := make(map[string]openAPIOperation)
	for p, item := range doc.Paths {
		var shared []openAPIParameter
		if n, ok := item["parameters"]; ok {
			require.NoError(t, n.Decode(&shared), "parameters of %s", p)
		}
		for m, n := range item {
			method, ok := httpMethods[strings.ToLower(m)]
			if !ok {
				continue
			}
			var op openAPIOperation
			require.NoError(t, n.Decode(&op), "%s %s", m, p)
			op.Parameters = append(append([]openAPIParameter{}, shared...), op.Parameters...)
			out[method+" "+normalizeRoute("/api"+p)] = op
		}
	}
	return out
}

func resolveParameter(doc openAPIDocument, p openAPIParameter) openAPIParameter {
	const prefix = "#/components/parameters/"
	if strings.HasPrefix(p.Ref, prefix) {
		return doc.Components.Parameters[strings.TrimPrefix(p.Ref, prefix)]
	}
	return p
}

func routerRoutes(t *testing.T) map[string]struct{} {
	t.Helper()

	mux, ok := NewHandler(zerolog.Nop(), Deps{}).Router().(*chi.Mux)
	require.True(t, ok, "Handler.Router() must return *chi.Mux")

	out := make(map[string]struct{})
	err := chi.Walk(mux, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		route = normalizeRoute(route)
		if strings.HasPrefix(route, "/api/") {
			out[method+" "+route] = struct{}{}
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func normalizeRoute(route string) string {
	if len(route) > 1 {
		route = strings.TrimSuffix(route, "/")
	}
	return route
}

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestOpenAPIMatchesRouter(t *testing.T) {
	ops := operations(t, loadOpenAPI(t))
	assert.Equal(t, sortedKeys(ops), sortedKeys(routerRoutes(t)), "update api/openapi.yaml or the router")
}

func TestOpenAPIDeclaresEveryPathParameter(t *testing.T) {
	doc := loadOpenAPI(t)
	for key, op := range operations(t, doc) {
		declared := make(map[string]bool)
		for _, p := range op.Parameters {
			if p = resolveParameter(doc, p); p.In == "path" {
				declared[p.Name] = true
			}
		}
		for _, m := range pathParam.FindAllStringSubmatch(key, -1) {
			assert.True(t, declared[m[1]], "%s: path parameter %q not declared", key, m[1])
		}
	}
}

// Every successful body the handlers produce goes through writeNegotiated.
func TestOpenAPIOffersMsgpackOnSuccessBodies(t *testing.T) {
	for key, op := range operations(t, loadOpenAPI(t)) {
		for status, resp := range op.Responses {
			if !strings.HasPrefix(status, "2") || resp.Content == nil {
				continue
			}
			assert.Contains(t, resp.Content, "application/json", "%s %s", key, status)
			assert.Contains(t, resp.Content, "application/msgpack", "%s %s", key, status)
		}
	}
}

func TestOpenAPIListsEveryErrorCode(t *testing.T) {
	doc := loadOpenAPI(t)
	enum := doc.Components.Schemas.Error.Properties.Error.Properties.Code.Enum
	require.NotEmpty(t, enum)

	codes := regexp.MustCompile(`(?:writeError\([^"]*|"code":)\s*"([a-z_]+)"`)
	files, err := filepath.Glob(filepath.Join(repoRoot(t), "internal", "httpapi", "*.go"))
	require.NoError(t, err)
	for _, f := range files {
		if strings.HasSuffix(f, "_test.go") {
			continue
		}
		b, err := os.ReadFile(f)
		require.NoError(t, err)
		for _, m := range codes.FindAllStringSubmatch(string(b), -1) {
			assert.Contains(t, enum, m[1], "%s writes error code %q", filepath.Base(f), m[1])
		}
	}
}

func TestListConfigurations_Msgpack(t *testing.T) {
	router := newTestHandler(t, studentsSource()).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/map-configurations", nil)
	req.Header.Set("Accept", "application/msgpack")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/msgpack", rr.Header().Get("Content-Type"))
}
