package core

import (
	"bytes"
	"context"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/trezcool/nudge/fs"
)

const templatesDir = "templates/email"

var (
	templates tmplCache
	tmplErr   error
	tmplInit  sync.Once

	// ErrSendFailed is returned by email services when the provider rejects a message.
	ErrSendFailed = errors.New("email not accepted")
)

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]*tmplCacheEntry // {name: entry}

	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		Subject string
		Data    interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// Send renders and delivers msg. A nil error means the provider accepted it.
		Send(ctx context.Context, msg *EmailMessage) error
	}
)

func (m *EmailMessage) getContextData() ContextData {
	return ContextData{
		Subject: m.Subject,
		Data:    m.TemplateData,
	}
}

func (m *EmailMessage) renderText(entry *tmplCacheEntry) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if entry == nil || entry.text == nil {
		return nil
	}

	var buff bytes.Buffer
	if err := entry.text.Execute(&buff, m.getContextData()); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML(entry *tmplCacheEntry) error {
	if entry == nil || entry.html == nil {
		return nil
	}

	var buff bytes.Buffer
	if err := entry.html.Execute(&buff, m.getContextData()); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

// Render fills TextContent and HTMLContent from BodyStr or from the embedded templates named TemplateName.
func (m *EmailMessage) Render() error {
	var entry *tmplCacheEntry
	if m.TemplateName != "" {
		tmplInit.Do(func() { templates, tmplErr = parseTemplates(appfs.FS) }) // only parse once
		if tmplErr != nil {
			return tmplErr
		}
		var ok bool
		if entry, ok = templates[m.TemplateName]; !ok {
			return errors.Errorf("unknown email template %q", m.TemplateName)
		}
	}
	if err := m.renderText(entry); err != nil {
		return errors.Wrap(err, "rendering text")
	}
	return errors.Wrap(m.renderHTML(entry), "rendering html")
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

func parseTemplates(fsys fs.FS) (tmplCache, error) {
	cache := make(tmplCache)

	fps, err := fs.Glob(fsys, path.Join(templatesDir, "*"))
	if err != nil {
		return nil, errors.Wrap(err, "listing email templates")
	}

	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := cache[name]
		if !ok {
			entry = new(tmplCacheEntry)
			cache[name] = entry
		}
		base := path.Join(templatesDir, "_base"+ext)
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(fsys, base, fp)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fp)
			}
			entry.text = tmpl.Option("missingkey=error")
		} else {
			tmpl, err := htmltmpl.ParseFS(fsys, base, fp)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fp)
			}
			entry.html = tmpl.Option("missingkey=error")
		}
	}
	return cache, nil
}
