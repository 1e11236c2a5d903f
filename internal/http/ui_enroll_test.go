package httpx

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/campiestivi/campi/internal/domain/model"
	authmocks "github.com/campiestivi/campi/internal/mocks/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnroll_StepFlow(t *testing.T) {
	fx := newRouterFixture(t, fixtureOptions{}).as(authmocks.UserActor("u1"))

	w := fx.get(t, "/Iscrizione?campo=c1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="child_id" value="ch1"`)
	assert.Contains(t, w.Body.String(), `name="camp_id" value="c1"`, "preselected camp travels as a hidden field")
	assert.NotContains(t, w.Body.String(), "Luca")

	w = fx.postForm(t, "/Iscrizione", url.Values{"step": {"1"}, "action": {"next"}, "child_id": {"ch1"}, "camp_id": {"c1"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="step" value="2"`)
	assert.Contains(t, w.Body.String(), "Campo Lago")
	assert.NotContains(t, w.Body.String(), "Campo Monte", "full camps are not offered")

	w = fx.postForm(t, "/Iscrizione", url.Values{"step": {"2"}, "action": {"next"}, "child_id": {"ch1"}, "camp_id": {"c1"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="step" value="3"`)

	w = fx.postForm(t, "/Iscrizione", url.Values{"step": {"3"}, "action": {"next"}, "child_id": {"ch1"}, "camp_id": {"c1"}, "health_notes": {"Nessuna"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="step" value="4"`)
	assert.Contains(t, w.Body.String(), "Anna Rossi")

	w = fx.postForm(t, "/Iscrizione", url.Values{
		"step": {"4"}, "action": {"submit"},
		"child_id": {"ch1"}, "camp_id": {"c1"}, "health_notes": {"Nessuna"},
		"accept_terms": {"on"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/Utente?esito=iscritto", w.Header().Get("Location"))
	require.Len(t, fx.enrollments.submitted, 1)
	assert.Equal(t, model.EnrollmentDraft{ChildID: "ch1", CampID: "c1", HealthNotes: "Nessuna", AcceptTerms: true}, fx.enrollments.submitted[0])
}

func TestEnroll_SubmitWithoutTermsStaysOnReview(t *testing.T) {
	fx := newRouterFixture(t, fixtureOptions{}).as(authmocks.UserActor("u1"))

	w := fx.postForm(t, "/Iscrizione", url.Values{"step": {"4"}, "child_id": {"ch1"}, "camp_id": {"c1"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `name="step" value="4"`)
	assert.Contains(t, w.Body.String(), "Devi accettare il regolamento.")
	assert.Empty(t, fx.enrollments.submitted)
}

func TestEnroll_ForeignChildSendsBackToFirstStep(t *testing.T) {
	fx := newRouterFixture(t, fixtureOptions{}).as(authmocks.UserActor("u1"))

	w := fx.postForm(t, "/Iscrizione", url.Values{"step": {"4"}, "child_id": {"ch9"}, "camp_id": {"c1"}, "accept_terms": {"on"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `name="step" value="1"`)
	assert.Contains(t, w.Body.String(), "Seleziona un figlio valido.")
	assert.Empty(t, fx.enrollments.submitted)
}

func TestEnroll_Back(t *testing.T) {
	fx := newRouterFixture(t, fixtureOptions{}).as(authmocks.UserActor("u1"))

	w := fx.postForm(t, "/Iscrizione", url.Values{"step": {"3"}, "action": {"back"}, "child_id": {"ch1"}, "camp_id": {"c1"}})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="step" value="2"`)
}

func TestEnroll_GuestIsRedirected(t *testing.T) {
	fx := newRouterFixture(t, fixtureOptions{})

	w := fx.postForm(t, "/Iscrizione", url.Values{"step": {"1"}})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/Login?redirect=/Iscrizione", w.Header().Get("Location"))
}

func TestParseStep(t *testing.T) {
	assert.Equal(t, model.StepChild, parseStep(""))
	assert.Equal(t, model.StepChild, parseStep("0"))
	assert.Equal(t, model.StepCamp, parseStep("2"))
	assert.Equal(t, model.StepReview, parseStep("9"))
}
