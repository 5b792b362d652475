package domain

// Completion is the profile-completion verdict that gates applying for
// housing. Missing preserves the display order of the required fields.
type Completion struct {
	Percentage int      `json:"percentage"`
	IsComplete bool     `json:"is_complete"`
	Missing    []string `json:"missing"`
}
