// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"net/http"
	"strconv"
)

// ViewPage is the value of the "view" form field that asks /extract for an
// HTML result page instead of a bare download.
const ViewPage = "page"

var resultTmpl = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Extraction {{if .Error}}failed{{else}}finished{{end}}</title>
</head>
<body>
<h1>Extraction {{if .Error}}failed{{else}}finished{{end}}</h1>
{{if .Error}}<p><strong>Error:</strong> {{.Error}}</p>{{end}}
{{if .Warning}}<p><strong>Warning:</strong> {{.Warning}}</p>{{end}}
{{if .Download}}<p><a download="{{.FileName}}" href="{{.Download}}">Download {{.FileName}}</a> ({{.Rows}} rows)</p>{{end}}
<h2>Run log</h2>
<pre id="log">{{.Log}}</pre>
<h2>Run report</h2>
<pre id="report">{{.Report}}</pre>
<p><a href="/">New extraction</a></p>
</body>
</html>
`))

// resultPage is what the browser sees after POST /extract with view=page.
type resultPage struct {
	Error    string
	Warning  string
	FileName string
	Rows     int
	Download template.URL
	Log      string
	Report   string
}

// dataURL embeds body as a base64 data URL of the given content type.
func dataURL(contentType string, body []byte) template.URL {
	return template.URL("data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body))
}

func (h *Handler) writeResultPage(w http.ResponseWriter, r *http.Request, status int, p resultPage) {
	var buf bytes.Buffer
	if err := resultTmpl.Execute(&buf, p); err != nil {
		h.logger.ErrorContext(r.Context(), "rendering result page", "error", err)
		http.Error(w, "rendering result page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
