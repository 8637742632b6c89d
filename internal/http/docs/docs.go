package docs

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"html/template"
	"net/http"
)

// OpenAPISpec holds the embedded CaseWise API document.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

// specETag is derived from the embedded document, so it changes per release.
var specETag = func() string {
	sum := sha256.Sum256(OpenAPISpec)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

// GetSpecBytes retorna os bytes do spec OpenAPI embutido.
func GetSpecBytes() []byte {
	return OpenAPISpec
}

// OpenAPIHandler serves the YAML document with an ETag.
func OpenAPIHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", specETag)
		w.Header().Set("Cache-Control", "public, max-age=300")
		if r.Header.Get("If-None-Match") == specETag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(OpenAPISpec)
	})
}

type referencePage struct {
	Title   string
	SpecURL string
	Config  string
}

var referenceTmpl = template.Must(template.New("reference").Parse(`<!doctype html>
<html>
  <head>
    <title>{{.Title}}</title>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>body { margin: 0; }</style>
  </head>
  <body>
    <script id="api-reference" data-url="{{.SpecURL}}" data-configuration="{{.Config}}"></script>
    <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
  </body>
</html>`))

// ScalarDocsHandler renders the Scalar API reference for the document at
// specURL. The page is rendered once.
func ScalarDocsHandler(specURL string) http.Handler {
	var buf bytes.Buffer
	page := referencePage{
		Title:   "CaseWise API Reference",
		SpecURL: specURL,
		Config:  `{"theme":"purple","hideDownloadButton":false}`,
	}
	if err := referenceTmpl.Execute(&buf, page); err != nil {
		panic("docs: render reference page: " + err.Error())
	}
	html := buf.Bytes()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(html)
	})
}
