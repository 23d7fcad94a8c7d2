// Package views renders html/template pages and htmx fragments.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"finitefield.org/elevates-web/internal/catalog"
	"finitefield.org/elevates-web/internal/nav"
	"finitefield.org/elevates-web/internal/pricing"
	"finitefield.org/elevates-web/internal/requestctx"
	"finitefield.org/elevates-web/internal/seo"
)

//go:embed templates
var embedded embed.FS

// PageData is the layout view model. Exactly one page payload is set per page.
type PageData struct {
	Title       string
	Path        string
	SEO         seo.Meta
	JSONLD      []template.JS
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb

	Store     catalog.Store
	CSRFToken string
	CartCount int

	Home     any
	Products any
	Product  any
	Checkout any
	Profile  any
	Login    any
	Status   any
}

type templateSet struct {
	base  *template.Template
	pages map[string]*template.Template
}

// Renderer executes templates from the embedded tree, or from dir when set.
// With reload on, templates are reparsed on every call.
type Renderer struct {
	fsys   fs.FS
	reload bool

	mu  sync.RWMutex
	set *templateSet
}

// New parses the templates once so a broken tree fails at startup.
func New(dir string, reload bool) (*Renderer, error) {
	var fsys fs.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
		reload = false
	}
	set, err := parse(fsys)
	if err != nil {
		return nil, err
	}
	return &Renderer{fsys: fsys, reload: reload, set: set}, nil
}

// Funcs is shared with tests that render partials directly.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money":   pricing.FormatMoney,
		"percent": pricing.FormatPercent,
		"lower":   strings.ToLower,
	}
}

func parse(fsys fs.FS) (*templateSet, error) {
	base, err := template.New("_root").Funcs(Funcs()).ParseFS(fsys, "layout.tmpl", "partials/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	files, err := fs.Glob(fsys, "pages/*.tmpl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}
	set := &templateSet{base: base, pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		t, err := clone.ParseFS(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		set.pages[strings.TrimSuffix(path.Base(file), ".tmpl")] = t
	}
	return set, nil
}

func (r *Renderer) current() (*templateSet, error) {
	if r.reload {
		set, err := parse(r.fsys)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.set = set
		r.mu.Unlock()
		return set, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set, nil
}

// Page renders the named page inside the base layout.
func (r *Renderer) Page(w http.ResponseWriter, req *http.Request, status int, name string, data PageData) {
	set, err := r.current()
	if err != nil {
		r.fail(w, req, "template parse error", err)
		return
	}
	t, ok := set.pages[name]
	if !ok {
		r.fail(w, req, "template not found", fmt.Errorf("page %q", name))
		return
	}
	r.execute(w, req, status, t, "base", data)
}

// Fragment renders a partial template on its own.
func (r *Renderer) Fragment(w http.ResponseWriter, req *http.Request, name string, data any) {
	set, err := r.current()
	if err != nil {
		r.fail(w, req, "template parse error", err)
		return
	}
	r.execute(w, req, http.StatusOK, set.base, name, data)
}

func (r *Renderer) execute(w http.ResponseWriter, req *http.Request, status int, t *template.Template, name string, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		r.fail(w, req, "template exec error", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (r *Renderer) fail(w http.ResponseWriter, req *http.Request, msg string, err error) {
	requestctx.Logger(req.Context()).Error(msg, zap.Error(err))
	http.Error(w, msg, http.StatusInternalServerError)
}
