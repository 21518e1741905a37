package candidate

import (
	"time"

	"github.com/google/uuid"
)

// Qualification is one entry of a candidate's ordered education history.
type Qualification struct {
	Title       string `json:"title" validate:"required"`
	Institution string `json:"institution" validate:"required"`
	Grade       string `json:"grade,omitempty"`
	Year        int    `json:"year,omitempty"`
}

// Employment is one entry of a candidate's ordered employment history.
type Employment struct {
	Employer string `json:"employer" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Duties   string `json:"duties,omitempty"`
}

// Preferences holds the declared matching preferences derived into filter
// criteria on every match attempt. The struct itself is pure data and carries
// no identity.
type Preferences struct {
	Locations       []string `json:"locations,omitempty"`
	WorkModes       []string `json:"work_modes,omitempty"`
	Bands           []string `json:"bands,omitempty"`
	SalaryMin       int      `json:"salary_min,omitempty"`
	SalaryMax       int      `json:"salary_max,omitempty"`
	Keywords        []string `json:"keywords,omitempty" validate:"min=1"`
	AltKeywords     []string `json:"alt_keywords,omitempty"`
	ExcludeKeywords []string `json:"exclude_keywords,omitempty"`
}

// Profile is the full candidate record used for matching, generation and
// submission. Profiles are created at intake, mutated only by explicit
// updates and archived rather than deleted.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name" validate:"required"`
	LastName  string    `json:"last_name" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`

	Qualifications []Qualification `json:"qualifications,omitempty" validate:"dive"`
	Employment     []Employment    `json:"employment,omitempty" validate:"dive"`
	Skills         []string        `json:"skills,omitempty"`

	RequiresSponsorship bool        `json:"requires_sponsorship"`
	Preferences         Preferences `json:"preferences"`

	TrainingCompletedAt *time.Time `json:"training_completed_at,omitempty"`
	CredentialID        uuid.UUID  `json:"credential_id,omitempty"`
	Archived            bool       `json:"archived"`
	CreatedAt           time.Time  `json:"created_at"`
}

// FullName returns the display name used when filling portal forms.
func (p *Profile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// HasSkill reports whether the candidate declares the given skill.
func (p *Profile) HasSkill(skill string) bool {
	for _, s := range p.Skills {
		if s == skill {
			return true
		}
	}
	return false
}
