// Package prompt renders persona state into the generation prompt. It is a
// presentation collaborator only: nothing here mutates state.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stablemind-ai/stablemind/internal/domain"
)

const promptTemplate = `You are %s.

IDENTITY
%s

CURRENT MOOD
%s

CURRENT TRAITS
%s

STABLE BELIEFS
%s

RECENT CONVERSATION
%s

Stay in character. Respond to the user in your own voice, letting your
current mood and traits color the reply without naming them directly.

User: %s
`

// Builder assembles the full prompt for one turn.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build renders the persona, its state and the recent episodes around the
// user message.
func (b *Builder) Build(p *domain.Persona, recent []domain.Episode, userMessage string) string {
	name := p.Identity.DisplayName
	if name == "" {
		name = "the agent"
	}

	return fmt.Sprintf(promptTemplate,
		name,
		renderIdentity(p.Identity),
		renderMood(p.Emotion),
		renderTraits(p.Traits.Current),
		renderBeliefs(p.Beliefs),
		renderEpisodes(recent),
		userMessage,
	)
}

func renderIdentity(id domain.Identity) string {
	var lines []string
	if len(id.CoreTraits) > 0 {
		lines = append(lines, "- Core traits: "+strings.Join(id.CoreTraits, ", "))
	}
	if len(id.Values) > 0 {
		lines = append(lines, "- Values: "+strings.Join(id.Values, "; "))
	}
	if id.ToneOfVoice != "" {
		lines = append(lines, "- Voice: "+id.ToneOfVoice)
	}
	if len(lines) == 0 {
		return "(none)"
	}
	return strings.Join(lines, "\n")
}

// renderMood names the two strongest emotions.
func renderMood(emotion domain.EmotionVector) string {
	type kv struct {
		name  string
		value float64
	}
	all := make([]kv, 0, len(emotion))
	for name, v := range emotion {
		all = append(all, kv{name, v})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].value != all[j].value {
			return all[i].value > all[j].value
		}
		return all[i].name < all[j].name
	})

	if len(all) > 2 {
		all = all[:2]
	}
	parts := make([]string, 0, len(all))
	for _, e := range all {
		parts = append(parts, fmt.Sprintf("%s=%.2f", e.name, e.value))
	}
	if len(parts) == 0 {
		return "(neutral)"
	}
	return "Top emotions: " + strings.Join(parts, ", ")
}

// renderTraits labels trait levels rather than dumping raw numbers.
func renderTraits(traits domain.TraitMap) string {
	names := make([]string, 0, len(traits))
	for name := range traits {
		names = append(names, name)
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %s", name, traitLabel(traits[name])))
	}
	if len(lines) == 0 {
		return "(none)"
	}
	return strings.Join(lines, "\n")
}

func traitLabel(v float64) string {
	switch {
	case v >= 0.7:
		return "high"
	case v >= 0.5:
		return "moderate"
	case v >= 0.3:
		return "low"
	default:
		return "very low"
	}
}

func renderBeliefs(beliefs map[string]domain.Belief) string {
	keys := make([]string, 0, len(beliefs))
	for key := range beliefs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var lines []string
	for _, key := range keys {
		b := beliefs[key]
		lines = append(lines, fmt.Sprintf("- %s %s is around %.2f (confidence %.2f)",
			b.Entity, b.Dimension, b.Mean, b.Confidence))
	}
	if len(lines) == 0 {
		return "(none yet)"
	}
	return strings.Join(lines, "\n")
}

func renderEpisodes(eps []domain.Episode) string {
	var lines []string
	for _, e := range eps {
		if e.UserText != "" {
			lines = append(lines, fmt.Sprintf("- user: %s", e.UserText))
		}
		if e.AgentText != "" {
			lines = append(lines, fmt.Sprintf("- you: %s", e.AgentText))
		}
	}
	if len(lines) == 0 {
		return "(none)"
	}
	return strings.Join(lines, "\n")
}
