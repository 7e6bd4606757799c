package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strconv"

	"github.com/bmex-dev/leveldensity/internal/isotope"
	"github.com/bmex-dev/leveldensity/internal/resolver"
)

const DefaultTitle = "Level Densities"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page is the data behind the full dashboard page.
type Page struct {
	Title  string
	Params isotope.Params
	Result *resolver.Result
	Error  string
}

func (p Page) ZValue() string { return optionalInt(p.Params.Z) }
func (p Page) AValue() string { return optionalInt(p.Params.A) }

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"folder": func(iso *isotope.Isotope) string {
			if iso == nil {
				return ""
			}
			return iso.FolderKey()
		},
	}

	tmpl, err := template.New("dashboard").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Page(w io.Writer, page Page) error {
	if page.Title == "" {
		page.Title = DefaultTitle
	}
	return r.tmpl.ExecuteTemplate(w, "page", page)
}

// Result renders only the result fragment that replaces #page-content.
func (r *Renderer) Result(res *resolver.Result) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "result", res); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Static holds the dashboard's stylesheet and script.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
