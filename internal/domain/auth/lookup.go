package auth

// LookupStatus is the outcome of a provider lookup. Callers must handle every
// status explicitly; only the success variants may grant privileges.
type LookupStatus int

const (
	// LookupFailed means the provider could not answer (network, outage, bad data).
	LookupFailed LookupStatus = iota
	// LookupFound means the provider positively answered with a match.
	LookupFound
	// LookupAbsent means the provider positively answered with no match.
	LookupAbsent
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupAbsent:
		return "absent"
	default:
		return "failed"
	}
}

// PrincipalLookup is the result of asking the identity provider who is signed in.
// The zero value is a failure.
type PrincipalLookup struct {
	Status    LookupStatus
	Principal Principal
	Err       error
}

// PrincipalFound builds a successful identity lookup.
func PrincipalFound(p Principal) PrincipalLookup {
	return PrincipalLookup{Status: LookupFound, Principal: p}
}

// NoPrincipal builds a lookup for a missing, expired or invalid session.
func NoPrincipal() PrincipalLookup {
	return PrincipalLookup{Status: LookupAbsent}
}

// PrincipalFailed builds a lookup for a provider error.
func PrincipalFailed(err error) PrincipalLookup {
	return PrincipalLookup{Status: LookupFailed, Err: err}
}

// MembershipLookup is the result of checking the admin-membership set.
// The zero value is a failure.
type MembershipLookup struct {
	Status LookupStatus
	Err    error
}

// Member builds a lookup where the row exists.
func Member() MembershipLookup { return MembershipLookup{Status: LookupFound} }

// NotMember builds a lookup where the row does not exist.
func NotMember() MembershipLookup { return MembershipLookup{Status: LookupAbsent} }

// MembershipFailed builds a lookup for a store error.
func MembershipFailed(err error) MembershipLookup {
	return MembershipLookup{Status: LookupFailed, Err: err}
}
