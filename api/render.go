package api

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

var views = template.Must(template.New("views").Funcs(template.FuncMap{
	"year": func() int { return time.Now().Year() },
}).ParseFS(templateFS, "templates/*.html"))

// Renderer executes the embedded HTML views for echo.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{templates: views}
}

// Render writes the named view. Views: "list" takes a listView, "about" takes nothing.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
