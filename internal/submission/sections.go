package submission

import (
	"context"
	"fmt"
	"strings"

	"github.com/applymill/applymill/internal/candidate"
	"github.com/applymill/applymill/internal/posting"
)

// FormData is everything a submission attempt fills into the portal form.
type FormData struct {
	Profile   *candidate.Profile
	Posting   *posting.JobPosting
	Statement string
}

// Section is one step of the portal's fixed form sequence. The submitter
// waits for FormSelector, runs Fill, then clicks SaveSelector.
type Section struct {
	Name         string
	FormSelector string
	SaveSelector string
	Fill         func(ctx context.Context, page Page, data *FormData) error
}

// Selectors shared across sections.
const (
	secondFactorSelector    = `#otp_challenge, input[name="otp_code"]`
	validationErrorSelector = `.form-error, .field_with_errors`
	saveAndContinue         = `button[name="save_and_continue"]`
)

// Sections returns the portal's form sequence in submission order. The
// order is fixed by the portal; sections are saved one at a time and never
// skipped.
func Sections() []Section {
	return []Section{
		{
			Name:         "Personal Details",
			FormSelector: `form#personal_details`,
			SaveSelector: saveAndContinue,
			Fill:         fillPersonalDetails,
		},
		{
			Name:         "Pre-screening",
			FormSelector: `form#pre_screening`,
			SaveSelector: saveAndContinue,
			Fill:         fillPreScreening,
		},
		{
			Name:         "Education",
			FormSelector: `form#education`,
			SaveSelector: saveAndContinue,
			Fill:         fillEducation,
		},
		{
			Name:         "Training and Certifications",
			FormSelector: `form#training`,
			SaveSelector: saveAndContinue,
			Fill:         fillTraining,
		},
		{
			Name:         "Employment History",
			FormSelector: `form#employment_history`,
			SaveSelector: saveAndContinue,
			Fill:         fillEmployment,
		},
		{
			Name:         "Supporting Information",
			FormSelector: `form#supporting_information`,
			SaveSelector: saveAndContinue,
			Fill:         fillSupportingInformation,
		},
		{
			Name:         "References",
			FormSelector: `form#references`,
			SaveSelector: saveAndContinue,
			Fill:         fillReferences,
		},
		{
			Name:         "Equal Opportunities",
			FormSelector: `form#equal_opportunities`,
			SaveSelector: saveAndContinue,
			Fill:         fillEqualOpportunities,
		},
		{
			Name:         "Declaration",
			FormSelector: `form#declaration`,
			SaveSelector: saveAndContinue,
			Fill:         fillDeclaration,
		},
		{
			Name:         "Final Submit",
			FormSelector: `#application_summary`,
			SaveSelector: `#final_submit`,
			Fill:         nil,
		},
	}
}

func fillPersonalDetails(ctx context.Context, page Page, data *FormData) error {
	p := data.Profile
	fields := []struct {
		selector string
		value    string
	}{
		{`#first_name`, p.FirstName},
		{`#last_name`, p.LastName},
		{`#email`, p.Email},
		{`#phone`, p.Phone},
		{`#address`, p.Address},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := page.Fill(ctx, f.selector, f.value); err != nil {
			return err
		}
	}
	return nil
}

func fillPreScreening(ctx context.Context, page Page, data *FormData) error {
	sponsorship := `#sponsorship_no`
	rightToWork := `#right_to_work_yes`
	if data.Profile.RequiresSponsorship {
		sponsorship = `#sponsorship_yes`
		rightToWork = `#right_to_work_no`
	}
	if err := page.Click(ctx, sponsorship); err != nil {
		return err
	}
	return page.Click(ctx, rightToWork)
}

func fillEducation(ctx context.Context, page Page, data *FormData) error {
	for i, q := range data.Profile.Qualifications {
		if i > 0 {
			if err := page.Click(ctx, `#add_qualification`); err != nil {
				return err
			}
		}
		entries := []struct {
			selector string
			value    string
		}{
			{fmt.Sprintf(`#qualification_%d_title`, i), q.Title},
			{fmt.Sprintf(`#qualification_%d_institution`, i), q.Institution},
			{fmt.Sprintf(`#qualification_%d_grade`, i), q.Grade},
		}
		if q.Year != 0 {
			entries = append(entries, struct {
				selector string
				value    string
			}{fmt.Sprintf(`#qualification_%d_year`, i), fmt.Sprint(q.Year)})
		}
		for _, e := range entries {
			if e.value == "" {
				continue
			}
			if err := page.Fill(ctx, e.selector, e.value); err != nil {
				return err
			}
		}
	}
	return nil
}

func fillTraining(ctx context.Context, page Page, data *FormData) error {
	if done := data.Profile.TrainingCompletedAt; done != nil {
		return page.Fill(ctx, `#training_completed_on`, done.Format("02/01/2006"))
	}
	return nil
}

func fillEmployment(ctx context.Context, page Page, data *FormData) error {
	for i, job := range data.Profile.Employment {
		if i > 0 {
			if err := page.Click(ctx, `#add_employment`); err != nil {
				return err
			}
		}
		entries := []struct {
			selector string
			value    string
		}{
			{fmt.Sprintf(`#employment_%d_employer`, i), job.Employer},
			{fmt.Sprintf(`#employment_%d_title`, i), job.Title},
			{fmt.Sprintf(`#employment_%d_start`, i), job.Start},
			{fmt.Sprintf(`#employment_%d_end`, i), job.End},
			{fmt.Sprintf(`#employment_%d_duties`, i), job.Duties},
		}
		for _, e := range entries {
			if e.value == "" {
				continue
			}
			if err := page.Fill(ctx, e.selector, e.value); err != nil {
				return err
			}
		}
	}
	return nil
}

func fillSupportingInformation(ctx context.Context, page Page, data *FormData) error {
	return page.Fill(ctx, `#supporting_statement`, data.Statement)
}

func fillReferences(ctx context.Context, page Page, data *FormData) error {
	note := "Professional references covering the last three years are available on request."
	if len(data.Profile.Employment) > 0 {
		latest := data.Profile.Employment[0]
		note = fmt.Sprintf("Line manager at %s, contact details available on request.", latest.Employer)
	}
	return page.Fill(ctx, `#references_notes`, note)
}

func fillEqualOpportunities(ctx context.Context, page Page, _ *FormData) error {
	return page.Click(ctx, `#eo_prefer_not_to_say`)
}

func fillDeclaration(ctx context.Context, page Page, data *FormData) error {
	if err := page.Click(ctx, `#declaration_confirm`); err != nil {
		return err
	}
	name := strings.TrimSpace(data.Profile.FullName())
	return page.Fill(ctx, `#declaration_signature`, name)
}
