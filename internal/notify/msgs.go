package notify

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/valyala/fasttemplate"
)

const (
	msgReportStatusChanged = "report_status_changed"
	msgForcedLogout        = "forced_logout"
)

var defaultTemplates = map[string]string{
	msgReportStatusChanged: "Report #{{id}} is now {{estado}}",
	msgForcedLogout:        "Dashboard session expired, sign in again",
}

// Messages holds the alert message templates. The template file can be
// edited while the dashboard runs; Load is hot-reload safe.
type Messages struct {
	mu        sync.RWMutex
	templates map[string]*fasttemplate.Template
}

func NewMessages() *Messages {
	m := &Messages{}
	if err := m.set(defaultTemplates); err != nil {
		// built-in templates must parse
		panic(err)
	}
	return m
}

// Load replaces the templates with the contents of a JSON file mapping
// message id to template text.
func (m *Messages) Load(path string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening message templates")
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	var raw map[string]string
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return errors.Wrap(err, "decoding message templates")
	}
	return m.set(raw)
}

func (m *Messages) set(raw map[string]string) error {
	templates := make(map[string]*fasttemplate.Template, len(raw))
	for id, text := range raw {
		tpl, err := fasttemplate.NewTemplate(text, "{{", "}}")
		if err != nil {
			return errors.Wrapf(err, "parsing template %s", id)
		}
		templates[id] = tpl
	}
	m.mu.Lock()
	m.templates = templates
	m.mu.Unlock()
	return nil
}

func (m *Messages) Render(id string, args map[string]string) (string, error) {
	m.mu.RLock()
	tpl, ok := m.templates[id]
	m.mu.RUnlock()
	if !ok {
		return "", errors.Errorf("unknown message %s", id)
	}
	return tpl.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		value, ok := args[tag]
		if !ok {
			return 0, fmt.Errorf("missing argument %s", tag)
		}
		return w.Write([]byte(value))
	})
}
