package httpx

// Page template names, one per file under templates/pages.
const (
	PageHome           = "home"
	PageAbout          = "about"
	PageCamps          = "camps"
	PageLogin          = "login"
	PageRegister       = "register"
	PageMaintenance    = "maintenance"
	PageAccount        = "account"
	PageChildForm      = "child_form"
	PageEnroll         = "enroll"
	PageAdminDashboard = "admin_dashboard"
	PageAdminCamps     = "admin_camps"
	PageAdminCampForm  = "admin_camp_form"
	PageNotFound       = "not_found"
	PageError          = "error"
)

// Template paths used for loading templates from disk in dev mode.
const (
	TemplatePathFromRoot = "web/templates"
	StaticPathFromRoot   = "web/static"
)

// FormMode represents the mode of a form (create or edit).
type FormMode string

const (
	// FormModeEdit indicates the form is in edit mode.
	FormModeEdit FormMode = "edit"
	// FormModeCreate indicates the form is in create mode.
	FormModeCreate FormMode = "create"
)

const (
	msgGenericError     = "Si è verificato un errore. Riprova più tardi."
	msgSaved            = "Modifiche salvate."
	msgDeleted          = "Eliminato."
	msgEnrollmentSent   = "Iscrizione inviata. Riceverai conferma dallo staff."
	maintenanceRetrySec = "3600"
)
