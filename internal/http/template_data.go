package httpx

import (
	"net/http"

	"github.com/campiestivi/campi/internal/domain/access"
)

// PageMeta names the page being rendered.
type PageMeta struct {
	Title       string
	CurrentPage string
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData starts from the values every page needs: the menu for the
// role RouteGuard resolved, the CSRF token and the page meta.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	actor := ActorFromContext(r.Context())
	role := RoleFromContext(r.Context())
	return &TemplateDataBuilder{data: map[string]any{
		"Title":       meta.Title,
		"CurrentPage": meta.CurrentPage,
		"CurrentPath": r.URL.Path,
		"Actor":       actor,
		"Role":        string(role),
		"IsAdmin":     role == "admin",
		"SignedIn":    !actor.IsGuest(),
		"Menu":        access.MenuFor(role),
		"CSRFToken":   CSRFToken(r),
		"CSRFField":   CSRFFormField,
		"Form":        map[string]string{},
		"Errors":      map[string]string{},
	}}
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// WithForm echoes submitted values back into the form.
func (b *TemplateDataBuilder) WithForm(values map[string]string) *TemplateDataBuilder {
	if values != nil {
		b.data["Form"] = values
	}
	return b
}

// WithFlash sets a one-off success message.
func (b *TemplateDataBuilder) WithFlash(msg string) *TemplateDataBuilder {
	if msg != "" {
		b.data["Flash"] = msg
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
