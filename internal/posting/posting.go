package posting

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// WorkMode classifies where the work happens, inferred from free text when
// the portal does not declare it.
type WorkMode string

const (
	WorkModeUnknown WorkMode = ""
	WorkModeRemote  WorkMode = "remote"
	WorkModeHybrid  WorkMode = "hybrid"
	WorkModeOnsite  WorkMode = "onsite"
)

// JobPosting is an externally sourced advertisement. A posting is immutable
// once ingested; a changed advert is ingested as a new record under a new
// external identifier version.
type JobPosting struct {
	// ID is the posting identifier unique per external portal.
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Organization string   `json:"organization"`
	Location     string   `json:"location,omitempty"`
	WorkMode     WorkMode `json:"work_mode,omitempty"`
	// Band is the declared pay band, e.g. "Band 4". Empty when undeclared.
	Band string `json:"band,omitempty"`
	// SalaryMin/SalaryMax are annual bounds; zero means unknown.
	SalaryMin   int       `json:"salary_min,omitempty"`
	SalaryMax   int       `json:"salary_max,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	IngestedAt  time.Time `json:"ingested_at,omitempty"`
}

// Postings is a list of postings with lookup helpers.
type Postings struct {
	Items []*JobPosting `json:"items"`
}

func (p *Postings) Len() int {
	return len(p.Items)
}

func (p *Postings) FindByID(id string) *JobPosting {
	for _, posting := range p.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

// Normalize fills derived fields that the ingested dump may omit: work mode,
// salary bounds and band are inferred from the description when undeclared.
func (p *Postings) Normalize() {
	for _, posting := range p.Items {
		if posting.WorkMode == WorkModeUnknown {
			posting.WorkMode = InferWorkMode(posting.Description + " " + posting.Location)
		}
		if posting.SalaryMin == 0 && posting.SalaryMax == 0 {
			posting.SalaryMin, posting.SalaryMax = ParseSalaryRange(posting.Description)
		}
		if posting.Band == "" {
			posting.Band = ParseBand(posting.Description)
		}
		if posting.IngestedAt.IsZero() {
			posting.IngestedAt = time.Now().UTC()
		}
	}
}

// FromFile loads an ingested postings dump.
func FromFile(path string) (*Postings, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening postings file: %w", err)
	}
	defer file.Close()

	var postings Postings
	if err := json.NewDecoder(file).Decode(&postings); err != nil {
		return nil, fmt.Errorf("decoding postings file: %w", err)
	}

	for _, posting := range postings.Items {
		if posting.ID == "" {
			return nil, fmt.Errorf("posting %q is missing an external identifier", posting.Title)
		}
	}

	postings.Normalize()
	return &postings, nil
}

// DumpToTmpFile writes the postings list to a temporary file for operator
// inspection and returns its name.
func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}
