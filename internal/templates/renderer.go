package templates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/ilindan-dev/notification-gateway/internal/domain/model"
	"github.com/rs/zerolog"
	"html/template"
)

// Outcome tells how a body was produced.
type Outcome int

const (
	// OutcomeRendered means the named template rendered successfully.
	OutcomeRendered Outcome = iota
	// OutcomeTemplateNotFound means the source had no such template.
	OutcomeTemplateNotFound
	// OutcomeRenderFailed covers source errors, parse errors and execution errors.
	OutcomeRenderFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRendered:
		return "rendered"
	case OutcomeTemplateNotFound:
		return "template_not_found"
	case OutcomeRenderFailed:
		return "render_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// RenderResult is returned by Renderer.Render. Body is always usable:
// it holds the fallback body whenever Outcome is not OutcomeRendered.
type RenderResult struct {
	Body    string
	Outcome Outcome
	Err     error
}

// Fallback reports whether Body is the fallback body.
func (r RenderResult) Fallback() bool {
	return r.Outcome != OutcomeRendered
}

// fallbackTmpl is the minimal body used when a template cannot be rendered.
var fallbackTmpl = template.Must(template.New("fallback").Parse(`<h2>{{.Subject}}</h2><p>{{.Message}}</p>`))

// Renderer renders named HTML templates with auto-escaped substitution values.
type Renderer struct {
	source Source
	logger zerolog.Logger
}

// NewRenderer creates a renderer reading templates from source.
func NewRenderer(source Source, logger *zerolog.Logger) *Renderer {
	return &Renderer{
		source: source,
		logger: logger.With().Str("component", "template_renderer").Logger(),
	}
}

// Render executes template id with data. It never fails: lookup and render
// errors are logged and answered with the fallback body built from
// data["subject"] and data["message"].
func (r *Renderer) Render(ctx context.Context, id string, data map[string]any) RenderResult {
	log := r.logger.With().Str("template", id).Logger()

	raw, err := r.source.Load(ctx, id)
	if err != nil {
		outcome := OutcomeRenderFailed
		if errors.Is(err, ErrTemplateNotFound) {
			outcome = OutcomeTemplateNotFound
		}
		log.Warn().Err(err).Stringer("outcome", outcome).Msg("template lookup failed, using fallback body")
		return r.fallback(data, outcome, err)
	}

	tmpl, err := template.New(id).Option("missingkey=error").Parse(raw)
	if err != nil {
		log.Warn().Err(err).Msg("template parse failed, using fallback body")
		return r.fallback(data, OutcomeRenderFailed, fmt.Errorf("parse template %s: %w", id, err))
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		log.Warn().Err(err).Msg("template execution failed, using fallback body")
		return r.fallback(data, OutcomeRenderFailed, fmt.Errorf("render template %s: %w", id, err))
	}

	return RenderResult{Body: out.String(), Outcome: OutcomeRendered}
}

func (r *Renderer) fallback(data map[string]any, outcome Outcome, cause error) RenderResult {
	return RenderResult{
		Body:    FallbackBody(model.ContextString(data, "subject"), model.ContextString(data, "message")),
		Outcome: outcome,
		Err:     cause,
	}
}

// FallbackBody renders the minimal "<h2>subject</h2><p>message</p>" body with escaping.
func FallbackBody(subject, message string) string {
	var out bytes.Buffer
	// Two string fields cannot fail to execute.
	_ = fallbackTmpl.Execute(&out, struct{ Subject, Message string }{subject, message})
	return out.String()
}
