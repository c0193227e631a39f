package httpapi

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/rs/zerolog/log"

	"scoreshelf/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// templateFuncs holds helpers shared by all pages. avg renders an aggregate
// that may be absent when nobody has rated yet.
var templateFuncs = template.FuncMap{
	"avg": func(v *float64) string {
		if v == nil {
			return "no data"
		}
		return strconv.FormatFloat(*v, 'f', 1, 64)
	},
}

// HTMLRenderer renders pages from the embedded template set.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the embedded templates. Parse failures are
// programming errors and panic at startup.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		tmpl: template.Must(template.New("pages").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")),
	}
}

// Render writes the named page.
func (h *HTMLRenderer) Render(w io.Writer, page string, data any) error {
	if err := h.tmpl.ExecuteTemplate(w, page+".html", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	return nil
}

func logRenderError(page string, err error) {
	log.Error().Err(err).Str("page", page).Msg("render failed")
}

// sessionView is the identity block every page template receives.
type sessionView struct {
	LoggedIn  bool
	Username  string
	CSRFToken string
}

func viewOf(sess store.Session, ok bool) sessionView {
	if !ok {
		return sessionView{}
	}
	return sessionView{LoggedIn: true, Username: sess.Username, CSRFToken: sess.CSRFToken}
}
