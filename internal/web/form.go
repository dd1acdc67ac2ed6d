// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"html/template"
	"net/http"

	"github.com/pdiddy/orcid-metrics/pkg/types"
)

var formTmpl = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>ORCID → Crossref → Event Data</title>
</head>
<body>
<h1>ORCID → Crossref → Event Data</h1>
<p>Upload a spreadsheet (.xlsx or .csv) with a column named <code>orcid</code>.
Without that column the first column is used.</p>
<form method="post" action="/extract" enctype="multipart/form-data">
  <input type="hidden" name="view" value="page">
  <p><label>File <input type="file" name="file" accept=".xlsx,.csv" required></label></p>
  <p><label>Email for Crossref (mailto) <input type="email" name="email" value="{{.Email}}"></label></p>
  <p><label>Pause between requests (s)
    <input type="number" name="sleep" min="0" max="{{.MaxSleep}}" step="0.05" value="{{.Sleep}}"></label></p>
  <p><label>Event Data rows per page
    <select name="rows">{{range .RowsOptions}}
      <option value="{{.}}"{{if eq . $.Rows}} selected{{end}}>{{.}}</option>{{end}}
    </select></label></p>
  <p><label>Event Data max pages per DOI
    <input type="number" name="max_pages" min="1" max="{{.MaxPages}}" value="{{.Pages}}"></label></p>
  <fieldset>
    <legend>Fixed mention columns</legend>
    <input type="hidden" name="sources" value="">{{range .Sources}}
    <label><input type="checkbox" name="sources" value="{{.}}" checked> {{.}}</label>{{end}}
  </fieldset>
  <p><label>Format
    <select name="format">
      <option value="xlsx" selected>xlsx</option>
      <option value="csv">csv</option>
      <option value="json">json</option>
    </select></label></p>
  <p><button type="submit">Extract</button>
     <button type="submit" formaction="/validate">Validate only</button></p>
</form>
</body>
</html>
`))

type formData struct {
	Email       string
	Sleep       float64
	MaxSleep    float64
	Rows        int
	RowsOptions []int
	Pages       int
	MaxPages    int
	Sources     []string
}

// HandleForm handles GET /, rendering the upload form with the defaults.
func (h *Handler) HandleForm(w http.ResponseWriter, r *http.Request) {
	d := formData{
		Email:       h.defaults.Email,
		Sleep:       h.defaults.Sleep.Seconds(),
		MaxSleep:    types.MaxSleep.Seconds(),
		Rows:        h.defaults.EventDataRows,
		RowsOptions: types.AllowedEventDataRows,
		Pages:       h.defaults.EventDataMaxPages,
		MaxPages:    types.MaxEventDataPages,
		Sources:     h.defaults.FixedSources,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTmpl.Execute(w, d); err != nil {
		h.logger.ErrorContext(r.Context(), "rendering form", "error", err)
	}
}
