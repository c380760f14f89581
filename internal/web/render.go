// Package web renders the dashboard's server-side HTML pages and serves
// their static assets.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages rendered inside the shared layout.
const (
	PageDashboard      = "dashboard"
	PagePositions      = "positions"
	PageAnalysis       = "analysis"
	PageAnalysisDetail = "analysis_detail"
	PageJournal        = "journal"
	PageTrade          = "trade"
	PageSettings       = "settings"
	PageLogin          = "login"
	PageError          = "error"
)

var pages = []string{
	PageDashboard, PagePositions, PageAnalysis, PageAnalysisDetail,
	PageJournal, PageTrade, PageSettings, PageLogin, PageError,
}

// Theme cookie.
const (
	ThemeCookie = "theme"
	ThemeDark   = "dark"
	ThemeLight  = "light"
)

// ParseTheme maps a cookie value to a theme, defaulting to dark.
func ParseTheme(v string) string {
	if v == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

// Page is the data every template receives.
type Page struct {
	Title        string
	Nav          string
	Env          domain.Environment
	Environments []domain.Environment
	Theme        string
	User         string
	// Bare hides navigation (login and error pages).
	Bare bool
	Data any
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses the layout together with every page.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	base, err := template.New("layout.html").Funcs(Funcs()).ParseFS(templateFS, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse layout: %w", err)
	}
	r := &Renderer{
		pages:  make(map[string]*template.Template, len(pages)),
		logger: logger.With(slog.String("component", "web")),
	}
	for _, name := range pages {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("web: clone layout: %w", err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("web: parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page with status. Output is buffered so a template error
// still yields a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, p Page) {
	t, ok := r.pages[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	if p.Environments == nil {
		p.Environments = domain.Environments
	}
	if p.Theme == "" {
		p.Theme = ThemeDark
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		r.logger.Error("render failed",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// Static serves the embedded assets; mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}

// Funcs returns the template helpers.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money":       Money,
		"signedMoney": SignedMoney,
		"price":       Price,
		"optPrice":    OptPrice,
		"pct":         Pct,
		"optPct":      OptPct,
		"compact":     Compact,
		"count":       Count,
		"tone":        Tone,
		"optTone":     OptTone,
		"exitLabel":   ExitLabel,
		"optExit":     OptExitLabel,
		"confClass":   ConfidenceClass,
		"fearGreed":   FearGreedBand,
		"duration":    func(p domain.Position) string { return TradeDuration(p, time.Now()) },
		"ago":         Ago,
		"ts":          Timestamp,
		"optTs":       OptTimestamp,
		"title":       Title,
		"json":        toJSON,
		"derefStr": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"derefInt": func(v *int) int {
			if v == nil {
				return 0
			}
			return *v
		},
		"derefI64": func(v *int64) int64 {
			if v == nil {
				return 0
			}
			return *v
		},
		"derefF": func(v *float64) float64 {
			if v == nil {
				return 0
			}
			return *v
		},
		"pnl": func(p domain.Position) float64 {
			v, _ := p.PnL()
			return v
		},
		"pnlPct": func(p domain.Position) float64 {
			_, v := p.PnL()
			return v
		},
	}
}

// toJSON embeds v in a <script> block.
func toJSON(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}
