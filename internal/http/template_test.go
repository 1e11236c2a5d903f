package httpx

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRenderer_LoadsEveryPage(t *testing.T) {
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: os.DirFS("../../web/templates"), Logger: discardLogger()})
	require.NoError(t, err)

	for _, page := range []string{
		PageHome, PageAbout, PageCamps, PageLogin, PageRegister, PageMaintenance, PageAccount,
		PageChildForm, PageEnroll, PageAdminDashboard, PageAdminCamps, PageAdminCampForm,
		PageNotFound, PageError,
	} {
		assert.True(t, tr.HasPage(page), page)
	}
}

func testRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	fsys := fstest.MapFS{
		"layout.tmpl":        {Data: []byte(`{{define "layout"}}<html>{{template "nav" .}}{{template "content" .}}</html>{{end}}`)},
		"partials/nav.tmpl":  {Data: []byte(`{{define "nav"}}<nav>{{.Role}}</nav>{{end}}`)},
		"pages/hello.tmpl":   {Data: []byte(`{{define "content"}}<p>{{price .Cents}}</p>{{end}}`)},
		"pages/broken.tmpl":  {Data: []byte(`{{define "content"}}{{.Missing.Field}}{{end}}`)},
		"pages/escaped.tmpl": {Data: []byte(`{{define "content"}}{{.Name}}{{end}}`)},
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: fsys, Logger: discardLogger()})
	require.NoError(t, err)
	return tr
}

func TestTemplateRenderer_Render(t *testing.T) {
	tr := testRenderer(t)
	data := map[string]any{"Role": "guest", "Cents": 125000}

	w := httptest.NewRecorder()
	require.NoError(t, tr.Render(w, httptest.NewRequest(http.MethodGet, "/", nil), RenderOpts{Page: "hello", Data: data}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "<html><nav>guest</nav><p>€ 1.250,00</p></html>", w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Hx-Request", "true")
	w = httptest.NewRecorder()
	require.NoError(t, tr.Render(w, req, RenderOpts{Page: "hello", Status: http.StatusUnprocessableEntity, Data: data}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "<p>€ 1.250,00</p>", w.Body.String())
}

func TestTemplateRenderer_Failures(t *testing.T) {
	tr := testRenderer(t)

	w := httptest.NewRecorder()
	assert.Error(t, tr.Render(w, httptest.NewRequest(http.MethodGet, "/", nil), RenderOpts{Page: "nope"}))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// A failing template never leaks a half-written page.
	w = httptest.NewRecorder()
	assert.Error(t, tr.Render(w, httptest.NewRequest(http.MethodGet, "/", nil), RenderOpts{Page: "broken", Data: map[string]any{"Missing": 3}}))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "<html>")
}

func TestTemplateRenderer_EscapesData(t *testing.T) {
	tr := testRenderer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Hx-Request", "true")
	w := httptest.NewRecorder()

	require.NoError(t, tr.Render(w, req, RenderOpts{Page: "escaped", Data: map[string]any{"Name": "<script>x</script>"}}))

	assert.Equal(t, "&lt;script&gt;x&lt;/script&gt;", w.Body.String())
}

func TestNewTemplateRenderer_RequiresFS(t *testing.T) {
	_, err := NewTemplateRenderer(TemplateRendererConfig{})
	assert.Error(t, err)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "€ 0,00", formatPrice(0))
	assert.Equal(t, "€ 9,05", formatPrice(905))
	assert.Equal(t, "€ 250,00", formatPrice(25000))
	assert.Equal(t, "€ 1.250,50", formatPrice(125050))
	assert.Equal(t, "€ 1.000.000,00", formatPrice(100000000))
	assert.Equal(t, "€ -12,34", formatPrice(-1234))
	assert.Equal(t, "250,50", formatPriceInput(25050))
	assert.Equal(t, "3,07", formatPriceInput(307))
}
