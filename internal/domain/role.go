package domain

import "strings"

// RoleRef is the tagged raw shape a role arrives in from the CMS: either an
// inlined object carrying a name, or a bare identifier that needs a
// directory lookup. At most one of the two fields is set; neither set means
// the record carried no usable role at all.
type RoleRef struct {
	Name string
	ID   string
}

func (r RoleRef) IsZero() bool { return r.Name == "" && r.ID == "" }

// CanonicalRole is the normalized lower-case role tag every downstream
// decision works with. RoleUnknown is a real value, not an error: safety
// logic treats it conservatively.
type CanonicalRole string

const RoleUnknown CanonicalRole = "unknown"

// IsStudent matches any student-flavored role ("student", "etudiant-fr",
// "intl student", ...) the CMS operators may have configured.
func (r CanonicalRole) IsStudent() bool {
	return strings.Contains(string(r), "student")
}
