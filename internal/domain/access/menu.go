package access

import "github.com/campiestivi/campi/internal/domain/auth"

// MenuLink is one navigation entry. Post links must be submitted as forms.
type MenuLink struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Post  bool   `json:"post,omitempty"`
}

var (
	publicLinks = []MenuLink{
		{Label: "Home", Path: "/"},
		{Label: "Chi siamo", Path: "/About"},
		{Label: "Campi", Path: "/Campi"},
	}
	guestLinks = []MenuLink{
		{Label: "Accedi", Path: "/Login"},
		{Label: "Registrati", Path: "/Register"},
	}
	userLinks = []MenuLink{
		{Label: "Area personale", Path: "/Utente"},
		{Label: "Iscrizione", Path: "/Iscrizione"},
	}
	adminLinks = []MenuLink{
		{Label: "Dashboard", Path: "/admin/Dashboard"},
		{Label: "Gestione campi", Path: "/admin/Campi"},
	}
	logoutLink = MenuLink{Label: "Esci", Path: "/Logout", Post: true}
)

// MenuFor returns the navigation for role. It only shapes what is shown;
// access itself is decided by the Guard. Unknown roles get the guest menu.
func MenuFor(role auth.Role) []MenuLink {
	out := append([]MenuLink(nil), publicLinks...)
	switch role {
	case auth.RoleAdmin:
		out = append(out, userLinks...)
		out = append(out, adminLinks...)
		return append(out, logoutLink)
	case auth.RoleUser:
		out = append(out, userLinks...)
		return append(out, logoutLink)
	default:
		return append(out, guestLinks...)
	}
}
