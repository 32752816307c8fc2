package views

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var embedded embed.FS

const (
	// DefaultLayout wraps every page; the page itself is rendered at {{embed}}.
	DefaultLayout = "layouts/base"

	templateExt = ".html"
	dateLayout  = "2 January 2006"
)

// New returns the engine over the embedded pages, layouts and partials.
func New() *html.Engine {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return NewFS(sub)
}

// NewFS builds an engine over an arbitrary template tree rooted at files.
// Templates are named by their path without extension, e.g. "posts/index".
func NewFS(files fs.FS) *html.Engine {
	engine := html.NewFileSystem(http.FS(files), templateExt)
	engine.AddFuncMap(Funcs())
	return engine
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format(dateLayout)
		},
		"media": func(name *string) string {
			if name == nil || *name == "" {
				return ""
			}
			return "/media/" + *name
		},
		"truncate": func(s string, n int) string {
			runes := []rune(s)
			if len(runes) <= n {
				return s
			}
			return string(runes[:n]) + "…"
		},
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
		"selected": func(current *uint, id uint) bool {
			return current != nil && *current == id
		},
	}
}
