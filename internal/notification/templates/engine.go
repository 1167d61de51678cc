package templates

import (
	"bytes"
	"context"
	"fmt"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	texttmpl "text/template"
)

// Config controls where templates are read from. With Dir set, files are
// read from disk as <id>.tmpl and Reload reparses them on every render.
type Config struct {
	Dir    string
	Reload bool
}

// Rendered is one materialized email.
type Rendered struct {
	Subject   string
	EmailHTML string
	EmailText string
}

// Handle names a template and pins the data type it is rendered with.
type Handle[T any] struct {
	id string
}

// Expect creates a typed handle for a template ID (e.g. "account.approved").
func Expect[T any](id string) Handle[T] { return Handle[T]{id: id} }

// ID returns the template ID.
func (h Handle[T]) ID() string { return h.id }

// Engine renders the account email templates. A template file defines a
// "subject" and an "email_html" block and optionally an "email_text" block.
type Engine struct {
	src    fs.FS
	prefix string
	reload bool
	log    *slog.Logger

	mu     sync.RWMutex
	parsed map[string]*emailTemplate
}

type emailTemplate struct {
	subject *texttmpl.Template
	text    *texttmpl.Template // nil without an email_text block
	html    *htmltmpl.Template
}

// NewEngine creates an engine over the embedded templates, or over cfg.Dir
// when it is set.
func NewEngine(cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		src:    EmbeddedFS,
		prefix: "files/",
		log:    log,
		parsed: make(map[string]*emailTemplate),
	}
	if cfg.Dir != "" {
		e.src, e.prefix, e.reload = os.DirFS(cfg.Dir), "", cfg.Reload
	}
	return e
}

// Render renders the template behind h with data of its declared type.
func Render[T any](ctx context.Context, e *Engine, h Handle[T], data T) (Rendered, error) {
	return e.RenderAny(ctx, h.ID(), data)
}

// RenderAny renders the template with the given ID.
func (e *Engine) RenderAny(_ context.Context, id string, data any) (Rendered, error) {
	t, err := e.lookup(id)
	if err != nil {
		return Rendered{}, err
	}

	var out Rendered
	if out.Subject, err = execute(t.subject, "subject", data); err != nil {
		return Rendered{}, fmt.Errorf("render %s subject: %w", id, err)
	}
	out.Subject = strings.TrimSpace(out.Subject)
	if out.EmailHTML, err = execute(t.html, "email_html", data); err != nil {
		return Rendered{}, fmt.Errorf("render %s html body: %w", id, err)
	}
	if t.text != nil {
		if out.EmailText, err = execute(t.text, "email_text", data); err != nil {
			return Rendered{}, fmt.Errorf("render %s text body: %w", id, err)
		}
	}
	return out, nil
}

func (e *Engine) lookup(id string) (*emailTemplate, error) {
	if e.reload {
		return e.load(id)
	}

	e.mu.RLock()
	t, ok := e.parsed[id]
	e.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := e.load(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.parsed[id] = t
	e.mu.Unlock()
	e.log.Debug("compiled email template", "id", id, "from_disk", e.prefix == "")
	return t, nil
}

func (e *Engine) load(id string) (*emailTemplate, error) {
	name := e.prefix + id + ".tmpl"
	b, err := fs.ReadFile(e.src, name)
	if err != nil {
		return nil, fmt.Errorf("read template %q: %w", name, err)
	}

	text, err := texttmpl.New(id).Option("missingkey=error").Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", id, err)
	}
	html, err := htmltmpl.New(id).Option("missingkey=error").Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse html template %q: %w", id, err)
	}
	if text.Lookup("subject") == nil || html.Lookup("email_html") == nil {
		return nil, fmt.Errorf("template %q must define subject and email_html blocks", id)
	}

	t := &emailTemplate{subject: text, html: html}
	if text.Lookup("email_text") != nil {
		t.text = text
	}
	return t, nil
}

type executor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

func execute(t executor, block string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
