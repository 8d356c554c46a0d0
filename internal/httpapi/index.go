package httpapi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"xrayd/pkg/types"
)

//go:embed web/index.html
var webFS embed.FS

var indexTmpl = template.Must(template.ParseFS(webFS, "web/index.html"))

type indexData struct {
	Classes []types.ClassInfo
	Ready   bool
}

// indexHandler renders the upload page.
func indexHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := indexTmpl.Execute(&buf, indexData{Classes: svc.Classes(), Ready: svc.Ready()}); err != nil {
			logger().Error().Err(err).Msg("render index")
			writeJSONError(w, http.StatusInternalServerError, "failed to render page")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}
