package prompt

import (
	"strings"
	"testing"

	"github.com/stablemind-ai/stablemind/internal/domain"
)

func testPersona() *domain.Persona {
	return &domain.Persona{
		Identity: domain.Identity{
			DisplayName: "Rin",
			CoreTraits:  []string{"observant", "dry-humored"},
			ToneOfVoice: "casual",
		},
		Emotion: domain.EmotionVector{
			"joy": 0.8, "sadness": 0.2, "trust": 0.6, "anger": 0.5,
		},
		Traits: domain.TraitVector{
			Current: domain.TraitMap{"warmth": 0.72, "patience": 0.45},
		},
		Beliefs: map[string]domain.Belief{
			"france_cafe_noisiness": {
				Entity: "France Cafe", Dimension: "noisiness",
				Mean: 0.2, Confidence: 0.64,
			},
		},
	}
}

func TestBuild_ContainsAllSections(t *testing.T) {
	b := NewBuilder()

	out := b.Build(testPersona(), []domain.Episode{
		{Turn: 1, UserText: "hi there"},
		{Turn: 1, AgentText: "hey"},
	}, "how are you?")

	for _, want := range []string{
		"You are Rin.",
		"Core traits: observant, dry-humored",
		"Top emotions: joy=0.80, trust=0.60",
		"warmth: high",
		"patience: low",
		"France Cafe noisiness is around 0.20 (confidence 0.64)",
		"- user: hi there",
		"- you: hey",
		"User: how are you?",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q\nprompt:\n%s", want, out)
		}
	}
}

func TestBuild_EmptyStateFallbacks(t *testing.T) {
	b := NewBuilder()

	out := b.Build(&domain.Persona{}, nil, "hello")

	for _, want := range []string{
		"You are the agent.",
		"(none yet)",
		"(neutral)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuild_MoodTieBreakIsStable(t *testing.T) {
	b := NewBuilder()
	p := testPersona()
	p.Emotion = domain.EmotionVector{"joy": 0.7, "anger": 0.7, "fear": 0.7}

	first := b.Build(p, nil, "hi")
	for i := 0; i < 10; i++ {
		if got := b.Build(p, nil, "hi"); got != first {
			t.Fatal("prompt differs across identical builds")
		}
	}
	if !strings.Contains(first, "Top emotions: anger=0.70, fear=0.70") {
		t.Errorf("tie not broken alphabetically:\n%s", first)
	}
}

func TestBuild_BeliefOrderIsSorted(t *testing.T) {
	b := NewBuilder()
	p := testPersona()
	p.Beliefs["b_gym_noisiness"] = domain.Belief{
		Entity: "B Gym", Dimension: "noisiness", Mean: 0.8, Confidence: 0.6,
	}

	out := b.Build(p, nil, "hi")
	gym := strings.Index(out, "B Gym")
	cafe := strings.Index(out, "France Cafe")
	if gym < 0 || cafe < 0 || gym > cafe {
		t.Errorf("beliefs not in key order:\n%s", out)
	}
}

func TestBuild_TraitLabels(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{0.9, "high"},
		{0.7, "high"},
		{0.5, "moderate"},
		{0.3, "low"},
		{0.1, "very low"},
	}
	for _, tc := range cases {
		if got := traitLabel(tc.value); got != tc.want {
			t.Errorf("traitLabel(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}
