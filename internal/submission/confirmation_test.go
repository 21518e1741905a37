package submission

import (
	"errors"
	"testing"
)

func TestExtractConfirmation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		html   string
		expect string
	}{
		{
			name:   "dedicated element",
			html:   `<html><body><div id="confirmation_reference">Reference: AR-2024-000042</div></body></html>`,
			expect: "AR-2024-000042",
		},
		{
			name:   "class selector",
			html:   `<html><body><span class="application-reference">APP-7F3K92</span></body></html>`,
			expect: "APP-7F3K92",
		},
		{
			name:   "reference buried in body text",
			html:   `<html><body><p>Thank you. Quote REF-88123A in any correspondence.</p></body></html>`,
			expect: "REF-88123A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ExtractConfirmation(tt.html)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestExtractConfirmationAmbiguous(t *testing.T) {
	t.Parallel()

	pages := []string{
		`<html><body><h1>Thank you for applying</h1></body></html>`,
		``,
	}
	for _, html := range pages {
		if _, err := ExtractConfirmation(html); !errors.Is(err, ErrAmbiguousCompletion) {
			t.Fatalf("expected ErrAmbiguousCompletion for %q, got %v", html, err)
		}
	}
}
