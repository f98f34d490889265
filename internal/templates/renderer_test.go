package templates

import (
	"context"
	"errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"testing"
	"testing/fstest"
)

// failingSource simulates a template store that cannot be reached.
type failingSource struct{ err error }

func (s failingSource) Load(context.Context, string) (string, error) { return "", s.err }

func newTestRenderer(files fstest.MapFS) *Renderer {
	logger := zerolog.Nop()
	return NewRenderer(NewFSSource(files), &logger)
}

func TestRender_EscapesSubstitutedValues(t *testing.T) {
	r := newTestRenderer(fstest.MapFS{
		"welcome.html": {Data: []byte(`<p>Hello {{.name}}, {{.message}}</p>`)},
	})

	res := r.Render(context.Background(), "welcome", map[string]any{
		"name":    `<script>alert("x")</script>`,
		"message": "Tom & Jerry",
	})

	require.Equal(t, OutcomeRendered, res.Outcome)
	assert.False(t, res.Fallback())
	assert.NoError(t, res.Err)
	assert.NotEmpty(t, res.Body)
	assert.NotContains(t, res.Body, "<script>")
	assert.Contains(t, res.Body, "&lt;script&gt;")
	assert.Contains(t, res.Body, "Tom &amp; Jerry")
}

func TestRender_MissingTemplateFallsBack(t *testing.T) {
	r := newTestRenderer(fstest.MapFS{})

	res := r.Render(context.Background(), "does_not_exist", map[string]any{
		"subject": "Welcome",
		"message": "Hi there",
	})

	assert.Equal(t, OutcomeTemplateNotFound, res.Outcome)
	assert.True(t, res.Fallback())
	assert.ErrorIs(t, res.Err, ErrTemplateNotFound)
	assert.Equal(t, "<h2>Welcome</h2><p>Hi there</p>", res.Body)
}

func TestRender_InvalidIdentifierIsNotFound(t *testing.T) {
	r := newTestRenderer(fstest.MapFS{
		"secret.html": {Data: []byte("secret")},
	})

	res := r.Render(context.Background(), "../secret", map[string]any{"subject": "S", "message": "M"})

	assert.Equal(t, OutcomeTemplateNotFound, res.Outcome)
	assert.Equal(t, "<h2>S</h2><p>M</p>", res.Body)
}

func TestRender_MissingContextKeyIsRenderFailure(t *testing.T) {
	r := newTestRenderer(fstest.MapFS{
		"reminder.html": {Data: []byte(`<p>{{.event_title}}</p>`)},
	})

	res := r.Render(context.Background(), "reminder", map[string]any{"subject": "Reminder", "message": "Soon"})

	assert.Equal(t, OutcomeRenderFailed, res.Outcome)
	assert.Error(t, res.Err)
	assert.Equal(t, "<h2>Reminder</h2><p>Soon</p>", res.Body)
}

func TestRender_ParseErrorIsRenderFailure(t *testing.T) {
	r := newTestRenderer(fstest.MapFS{
		"broken.html": {Data: []byte(`<p>{{.name</p>`)},
	})

	res := r.Render(context.Background(), "broken", map[string]any{"subject": "S", "message": "M"})

	assert.Equal(t, OutcomeRenderFailed, res.Outcome)
	assert.Equal(t, "<h2>S</h2><p>M</p>", res.Body)
}

func TestRender_SourceErrorIsRenderFailure(t *testing.T) {
	logger := zerolog.Nop()
	r := NewRenderer(failingSource{err: errors.New("connection refused")}, &logger)

	res := r.Render(context.Background(), "base", map[string]any{"subject": "S"})

	assert.Equal(t, OutcomeRenderFailed, res.Outcome)
	assert.EqualError(t, res.Err, "connection refused")
	assert.Equal(t, "<h2>S</h2><p></p>", res.Body)
}

func TestFallbackBody_Escapes(t *testing.T) {
	assert.Equal(t, "<h2>a &lt; b</h2><p>x</p>", FallbackBody("a < b", "x"))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "rendered", OutcomeRendered.String())
	assert.Equal(t, "template_not_found", OutcomeTemplateNotFound.String())
	assert.Equal(t, "render_failed", OutcomeRenderFailed.String())
}

// The shipped templates must render with the context the events application sends.
func TestShippedTemplates(t *testing.T) {
	logger := zerolog.Nop()
	r := NewRenderer(NewFSSource(os.DirFS("../../templates")), &logger)

	event := map[string]any{
		"subject":          "RSVP Confirmation: Hack Night",
		"recipient":        "ada@campus.edu",
		"name":             "Ada",
		"event_title":      "Hack Night",
		"event_location":   "Room 101",
		"event_start_time": "Friday, 7:00 PM",
		"message":          "See you soon",
	}

	for _, id := range []string{"base", "rsvp_confirmation", "event_reminder", "event_cancellation"} {
		t.Run(id, func(t *testing.T) {
			res := r.Render(context.Background(), id, event)
			require.Equal(t, OutcomeRendered, res.Outcome, "err: %v", res.Err)
			assert.Contains(t, res.Body, "Ada")
		})
	}
}
