package posting

import "testing"

func TestInferWorkMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		expect WorkMode
	}{
		{"fully remote", "This role is fully remote with quarterly meetups", WorkModeRemote},
		{"work from home", "Work from home considered for the right applicant", WorkModeRemote},
		{"hybrid wins over remote", "Hybrid working: 2 remote days per week", WorkModeHybrid},
		{"onsite", "This is an office-based position in Leeds", WorkModeOnsite},
		{"no signal", "Join our friendly team", WorkModeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := InferWorkMode(tt.text); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestParseSalaryRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		expectMin int
		expectMax int
	}{
		{"dash range", "Salary £23,949 - £26,282 per annum", 23949, 26282},
		{"to range", "£25,000 to £30,000 depending on experience", 25000, 30000},
		{"single figure", "Salary up to £28,500", 28500, 28500},
		{"no figure", "Competitive salary", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			min, max := ParseSalaryRange(tt.text)
			if min != tt.expectMin || max != tt.expectMax {
				t.Fatalf("expected %d-%d, got %d-%d", tt.expectMin, tt.expectMax, min, max)
			}
		})
	}
}

func TestParseBand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		expect string
	}{
		{"plain band", "This post is Band 4 within the service", "Band 4"},
		{"afc prefix", "AfC Band 6 Specialist role", "Band 6"},
		{"lettered band", "band 8a leadership position", "Band 8a"},
		{"none", "Salary negotiable", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseBand(tt.text); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
