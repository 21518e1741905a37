package candidate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Column layout of the tabular intake format. One candidate per row;
// list-valued columns use ";" between entries and "|" between sub-fields.
const (
	colFirstName = iota
	colLastName
	colEmail
	colPhone
	colAddress
	colQualifications
	colEmployment
	colSkills
	colSponsorship
	colLocations
	colBands
	colKeywords
	colAltKeywords
	colExcludeKeywords
	colSalaryMin
	colSalaryMax
	colTrainingCompleted
	columnCount
)

const (
	entrySeparator = ";"
	fieldSeparator = "|"
	dateLayout     = "2006-01-02"
)

// RowError reports a single malformed intake row. Malformed rows never abort
// the batch; every row is either imported or reported.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

var validate = validator.New()

// ImportFile reads the tabular intake file and returns the successfully parsed
// profiles alongside per-row errors.
func ImportFile(path string) ([]*Profile, []RowError, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening intake file: %w", err)
	}
	defer file.Close()

	return Import(file)
}

// Import parses candidate rows from r. The first row is expected to be a
// header and is skipped.
func Import(r io.Reader) ([]*Profile, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("reading intake header: %w", err)
	}

	var (
		profiles  []*Profile
		rowErrors []RowError
	)

	line := 1
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Err: err})
			continue
		}

		profile, err := parseRow(record)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Err: err})
			continue
		}

		if err := validate.Struct(profile); err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Err: err})
			continue
		}

		profiles = append(profiles, profile)
	}

	return profiles, rowErrors, nil
}

func parseRow(record []string) (*Profile, error) {
	if len(record) < columnCount {
		return nil, fmt.Errorf("expected %d columns, got %d", columnCount, len(record))
	}

	profile := &Profile{
		ID:        uuid.New(),
		FirstName: strings.TrimSpace(record[colFirstName]),
		LastName:  strings.TrimSpace(record[colLastName]),
		Email:     strings.TrimSpace(record[colEmail]),
		Phone:     strings.TrimSpace(record[colPhone]),
		Address:   strings.TrimSpace(record[colAddress]),
		Skills:    splitList(record[colSkills]),
		CreatedAt: time.Now().UTC(),
	}

	qualifications, err := parseQualifications(record[colQualifications])
	if err != nil {
		return nil, fmt.Errorf("qualifications: %w", err)
	}
	profile.Qualifications = qualifications

	employment, err := parseEmployment(record[colEmployment])
	if err != nil {
		return nil, fmt.Errorf("employment: %w", err)
	}
	profile.Employment = employment

	sponsorship := strings.ToLower(strings.TrimSpace(record[colSponsorship]))
	switch sponsorship {
	case "yes", "true", "y", "1":
		profile.RequiresSponsorship = true
	case "no", "false", "n", "0", "":
		profile.RequiresSponsorship = false
	default:
		return nil, fmt.Errorf("unrecognized sponsorship flag %q", record[colSponsorship])
	}

	profile.Preferences = Preferences{
		Locations:       splitList(record[colLocations]),
		Bands:           splitList(record[colBands]),
		Keywords:        splitList(record[colKeywords]),
		AltKeywords:     splitList(record[colAltKeywords]),
		ExcludeKeywords: splitList(record[colExcludeKeywords]),
	}

	if profile.Preferences.SalaryMin, err = parseOptionalInt(record[colSalaryMin]); err != nil {
		return nil, fmt.Errorf("salary minimum: %w", err)
	}
	if profile.Preferences.SalaryMax, err = parseOptionalInt(record[colSalaryMax]); err != nil {
		return nil, fmt.Errorf("salary maximum: %w", err)
	}
	if profile.Preferences.SalaryMin > 0 && profile.Preferences.SalaryMax > 0 &&
		profile.Preferences.SalaryMin > profile.Preferences.SalaryMax {
		return nil, fmt.Errorf("salary minimum %d exceeds maximum %d",
			profile.Preferences.SalaryMin, profile.Preferences.SalaryMax)
	}

	if completed := strings.TrimSpace(record[colTrainingCompleted]); completed != "" {
		parsed, err := time.Parse(dateLayout, completed)
		if err != nil {
			return nil, fmt.Errorf("training completion date: %w", err)
		}
		profile.TrainingCompletedAt = &parsed
	}

	return profile, nil
}

func parseQualifications(raw string) ([]Qualification, error) {
	var qualifications []Qualification
	for _, entry := range splitList(raw) {
		parts := strings.Split(entry, fieldSeparator)
		if len(parts) < 2 {
			return nil, fmt.Errorf("entry %q needs at least title and institution", entry)
		}

		q := Qualification{
			Title:       strings.TrimSpace(parts[0]),
			Institution: strings.TrimSpace(parts[1]),
		}
		if len(parts) > 2 {
			q.Grade = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 {
			year, err := strconv.Atoi(strings.TrimSpace(parts[3]))
			if err != nil {
				return nil, fmt.Errorf("entry %q has a non-numeric year", entry)
			}
			q.Year = year
		}
		qualifications = append(qualifications, q)
	}
	return qualifications, nil
}

func parseEmployment(raw string) ([]Employment, error) {
	var employment []Employment
	for _, entry := range splitList(raw) {
		parts := strings.Split(entry, fieldSeparator)
		if len(parts) < 2 {
			return nil, fmt.Errorf("entry %q needs at least employer and title", entry)
		}

		e := Employment{
			Employer: strings.TrimSpace(parts[0]),
			Title:    strings.TrimSpace(parts[1]),
		}
		if len(parts) > 2 {
			e.Start = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 {
			e.End = strings.TrimSpace(parts[3])
		}
		if len(parts) > 4 {
			e.Duties = strings.TrimSpace(parts[4])
		}
		employment = append(employment, e)
	}
	return employment, nil
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, entrySeparator) {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseOptionalInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
