package generation

import (
	"math/rand"
	"strings"
	"testing"
)

func TestTierForBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prior  int
		expect Tier
	}{
		{0, Tier0},
		{1, Tier1},
		{5, Tier1},
		{6, Tier2},
		{10, Tier2},
		{11, Tier3},
		{12, Tier3},
		{100, Tier3},
	}

	for _, tt := range tests {
		if got := TierFor(tt.prior); got != tt.expect {
			t.Fatalf("TierFor(%d): expected %v, got %v", tt.prior, tt.expect, got)
		}
	}
}

func TestTierMonotonicity(t *testing.T) {
	t.Parallel()

	previous := TierFor(0)
	for n := 1; n <= 50; n++ {
		current := TierFor(n)
		if current < previous {
			t.Fatalf("tier decreased from %v to %v at prior=%d", previous, current, n)
		}
		previous = current
	}
}

func TestTierTemperatureEscalates(t *testing.T) {
	t.Parallel()

	tiers := []Tier{Tier0, Tier1, Tier2, Tier3}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Temperature() <= tiers[i-1].Temperature() {
			t.Fatalf("temperature must strictly increase: %v vs %v", tiers[i-1], tiers[i])
		}
	}
}

func TestSubstituteSynonymsVariesAcrossSeeds(t *testing.T) {
	t.Parallel()

	text := "I am an experienced and dedicated coordinator. My skills ensure the team can support patients and improve the accurate handling of every responsibility in this role."

	outputs := make(map[string]struct{})
	for seed := int64(0); seed < 20; seed++ {
		outputs[substituteSynonyms(text, rand.New(rand.NewSource(seed)))] = struct{}{}
	}

	if len(outputs) < 2 {
		t.Fatal("expected synonym substitution to vary across seeds")
	}
}

func TestSubstituteSynonymsReplacesMultiWordPhrases(t *testing.T) {
	t.Parallel()

	text := "I was Responsible for the waiting list and responsible for clinic scheduling."
	alternatives := []string{"accountable for", "in charge of", "tasked with"}

	replaced := false
	for seed := int64(0); seed < 20 && !replaced; seed++ {
		out := substituteSynonyms(text, rand.New(rand.NewSource(seed)))
		for _, alt := range alternatives {
			if strings.Contains(strings.ToLower(out), alt) {
				replaced = true
			}
		}
	}
	if !replaced {
		t.Fatal("multi-word phrases must be eligible for substitution")
	}

	// Leading capitalisation survives when the capitalised occurrence is hit.
	capitalised := false
	for seed := int64(0); seed < 50 && !capitalised; seed++ {
		out := substituteSynonyms("Responsible for scheduling.", rand.New(rand.NewSource(seed)))
		for _, alt := range alternatives {
			if strings.HasPrefix(out, capitalise(alt)) {
				capitalised = true
			}
		}
	}
	if !capitalised {
		t.Fatal("substituted phrases must keep leading capitalisation")
	}
}

func TestShuffleParagraphsKeepsOpeningAndClosing(t *testing.T) {
	t.Parallel()

	text := "opening\n\nmiddle one\n\nmiddle two\n\nmiddle three\n\nclosing"

	for seed := int64(0); seed < 10; seed++ {
		shuffled := shuffleParagraphs(text, rand.New(rand.NewSource(seed)))
		paragraphs := strings.Split(shuffled, "\n\n")
		if paragraphs[0] != "opening" || paragraphs[len(paragraphs)-1] != "closing" {
			t.Fatalf("opening/closing paragraphs must stay in place, got %v", paragraphs)
		}
		if len(paragraphs) != 5 {
			t.Fatalf("paragraph count changed: %d", len(paragraphs))
		}
	}
}

func TestShuffleParagraphsShortTextUntouched(t *testing.T) {
	t.Parallel()

	text := "only\n\ntwo paragraphs"
	if shuffleParagraphs(text, rand.New(rand.NewSource(1))) != text {
		t.Fatal("short text must pass through unchanged")
	}
}

func TestTier3DirectivesIncludeEmphasisAngle(t *testing.T) {
	t.Parallel()

	directives := Tier3.Directives(rand.New(rand.NewSource(7)))

	found := false
	for _, directive := range directives {
		if strings.HasPrefix(directive, "emphasise") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an emphasis directive at tier 3, got %v", directives)
	}

	if len(Tier0.Directives(rand.New(rand.NewSource(7)))) >= len(directives) {
		t.Fatal("higher tiers must carry more directives")
	}
}
