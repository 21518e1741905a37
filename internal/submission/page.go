// Package submission drives the portal's multi-section application form from
// login to the confirmation page, classifying every failure so the record
// lands in the right terminal state.
package submission

import "context"

// Page is the browser surface the submitter drives. The production
// implementation wraps a headless Chrome tab; tests script a fake.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	Exists(ctx context.Context, selector string) (bool, error)
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Text(ctx context.Context, selector string) (string, error)
	HTML(ctx context.Context) (string, error)
	Close() error
}
