package notify

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/BearBump/CargoTrack/internal/broker/messages"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer"
	"github.com/osteele/liquid"
	"github.com/pkg/errors"
)

//go:embed templates/*.liquid
var templateFS embed.FS

const (
	layoutHead = "layout_head"
	layoutFoot = "layout_foot"
)

// Renderer turns notifications into ready-to-send emails. Templates are
// parsed once at construction; Render is safe for concurrent use.
type Renderer struct {
	company   string
	templates map[string]*liquid.Template
}

func NewRenderer(company string) (*Renderer, error) {
	if company == "" {
		company = "CargoTrack"
	}
	engine := liquid.NewEngine()
	registerFilters(engine)

	read := func(name string) (string, error) {
		b, err := templateFS.ReadFile(path.Join("templates", name+".liquid"))
		if err != nil {
			return "", errors.Wrapf(err, "read template %s", name)
		}
		return string(b), nil
	}
	head, err := read(layoutHead)
	if err != nil {
		return nil, err
	}
	foot, err := read(layoutFoot)
	if err != nil {
		return nil, err
	}

	r := &Renderer{company: company, templates: make(map[string]*liquid.Template, len(messages.Templates))}
	for _, name := range messages.Templates {
		body, err := read(name)
		if err != nil {
			return nil, err
		}
		tpl, serr := engine.ParseString(head + body + foot)
		if serr != nil {
			return nil, errors.Wrapf(serr, "parse template %s", name)
		}
		r.templates[name] = tpl
	}
	return r, nil
}

func (r *Renderer) Render(template, subject string, data map[string]any) (string, error) {
	tpl, ok := r.templates[template]
	if !ok {
		return "", errors.Errorf("unknown template %q", template)
	}
	b := liquid.Bindings{}
	for k, v := range data {
		b[k] = v
	}
	b["subject"] = subject
	b["company"] = r.company

	out, serr := tpl.RenderString(b)
	if serr != nil {
		return "", errors.Wrapf(serr, "render template %s", template)
	}
	return out, nil
}

// Message renders n into a mailer message tagged with its template name.
func (r *Renderer) Message(n messages.Notification) (mailer.Message, error) {
	html, err := r.Render(n.Template, n.Subject, n.Data)
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      n.To,
		Subject: n.Subject,
		HTML:    html,
		Tags:    []string{n.Template},
	}, nil
}

func registerFilters(engine *liquid.Engine) {
	// {{ estimatedCost | money }} -> 12.50
	engine.RegisterFilter("money", func(v any) string {
		switch x := v.(type) {
		case float64:
			return fmt.Sprintf("%.2f", x)
		case int:
			return fmt.Sprintf("%d.00", x)
		case int64:
			return fmt.Sprintf("%d.00", x)
		}
		return fmt.Sprint(v)
	})

	// {{ estimatedDelivery | shortdate }} -> Dec 25, 2024
	engine.RegisterFilter("shortdate", func(v any) string {
		var t time.Time
		switch x := v.(type) {
		case time.Time:
			t = x
		case string:
			p, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(x))
			if err != nil {
				return x
			}
			t = p
		default:
			return fmt.Sprint(v)
		}
		return t.UTC().Format("Jan 2, 2006")
	})
}
