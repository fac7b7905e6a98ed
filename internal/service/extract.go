package service

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/stablemind-ai/stablemind/internal/domain"
	"go.uber.org/zap"
)

// Observation cue values on the noisiness dimension, [0,1] scale.
const (
	ObservationDimension = "noisiness"
	NoisyValue           = 0.8
	QuietValue           = 0.2
)

// eventRule is one built-in keyword-set → event-tag rule. Built-in rules
// are checked in declaration order before the external taxonomy.
type eventRule struct {
	tag      string
	keywords []string
}

var builtinEventRules = []eventRule{
	{"major_achievement", []string{"congrats", "i did it", "won", "achieved", "accepted"}},
	{"social_rejection", []string{"rejected", "ignored", "left me", "they hate"}},
	{"betrayal", []string{"betray", "lied to me", "backstab"}},
	{"conflict", []string{"argue", "fight", "conflict"}},
	{"burnout_episode", []string{"burnout", "exhausted", "can't do this"}},
	{"positive_feedback", []string{"good job", "love this", "amazing"}},
	{"negative_feedback", []string{"this sucks", "bad", "cringe", "hate it"}},
}

// entityAnchors are place-type suffixes; a word immediately preceding one
// is captured as an explicit entity mention.
var entityAnchors = []string{"cafe", "restaurant", "bar", "park", "library", "gym"}

// deicticMarkers trigger carry-over of the previously focused entity.
var deicticMarkers = []string{"there", "it", "that place", "this place", "here"}

// leading words never captured as the entity part of "<token> <anchor>".
var entityStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "that": true, "this": true,
	"my": true, "our": true, "your": true, "some": true,
}

var noisyCues = []string{"loud", "noisy", "crowded", "music", "chaos", "blasting"}
var quietCues = []string{"quiet", "calm", "peaceful", "silent"}

// ExtractService turns raw turn text plus context into discrete events, a
// resolved focus entity and belief observations. It is pure: identical
// input and context always yield identical output.
type ExtractService struct {
	taxonomy map[string][]string
	logger   *zap.Logger
}

func NewExtractService(taxonomy map[string][]string, logger *zap.Logger) *ExtractService {
	return &ExtractService{taxonomy: taxonomy, logger: logger}
}

// Extract runs event detection, focus-entity resolution and observation
// generation over one turn of user text.
func (s *ExtractService) Extract(userMessage string, tctx domain.TurnContext) domain.Extraction {
	text := strings.ToLower(userMessage)
	ext := domain.Extraction{}

	// Events: built-in rules in fixed order, then taxonomy extension.
	// First occurrence wins, order preserved.
	seen := make(map[string]bool)
	for _, rule := range builtinEventRules {
		if seen[rule.tag] {
			continue
		}
		if matchesAny(text, rule.keywords) {
			ext.Events = append(ext.Events, rule.tag)
			seen[rule.tag] = true
		}
	}
	for _, tag := range sortedTags(s.taxonomy) {
		if seen[tag] {
			continue
		}
		if matchesAny(text, s.taxonomy[tag]) {
			ext.Events = append(ext.Events, tag)
			seen[tag] = true
		}
	}

	// Focus entity: explicit "<token> <anchor>" mention beats deictic
	// carry-over; with neither, the turn has no focus entity.
	focus := resolveExplicitEntity(text)
	if focus == "" && matchesAny(text, deicticMarkers) {
		focus = tctx.LastEntityFocus
	}
	ext.FocusEntity = focus
	if focus != "" {
		ext.Entities = append(ext.Entities, focus)
	}

	// Observations: only with a focus entity, at most one per turn, first
	// matching cue set wins.
	if focus != "" {
		switch {
		case matchesAny(text, noisyCues):
			ext.Observations = append(ext.Observations, domain.BeliefObservation{
				Entity:       focus,
				Dimension:    ObservationDimension,
				Value:        NoisyValue,
				EvidenceText: userMessage,
			})
			ext.Note = fmt.Sprintf("%s was noisy/loud.", focus)
		case matchesAny(text, quietCues):
			ext.Observations = append(ext.Observations, domain.BeliefObservation{
				Entity:       focus,
				Dimension:    ObservationDimension,
				Value:        QuietValue,
				EvidenceText: userMessage,
			})
			ext.Note = fmt.Sprintf("%s was quiet/calm.", focus)
		}
	}

	return ext
}

// resolveExplicitEntity scans for the first anchor word with a usable
// preceding token and returns "<Token> <Anchor>" title-cased.
func resolveExplicitEntity(text string) string {
	words := tokenize(text)
	for i := 1; i < len(words); i++ {
		for _, anchor := range entityAnchors {
			if words[i] != anchor {
				continue
			}
			prev := words[i-1]
			if entityStopwords[prev] {
				continue
			}
			return titleCase(prev + " " + anchor)
		}
	}
	return ""
}

// matchesAny reports whether any keyword occurs in text at word boundaries.
// Substring hits inside larger words ("won" in "wonder") do not count.
func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if containsPhrase(text, kw) {
			return true
		}
	}
	return false
}

func containsPhrase(text, phrase string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(phrase)
		if boundaryBefore(text, i) && boundaryAfter(text, end) {
			return true
		}
		start = i + 1
	}
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	return !isWordByte(text[i-1])
}

func boundaryAfter(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	return !isWordByte(text[end])
}

func isWordByte(b byte) bool {
	r := rune(b)
	return unicode.IsLetter(r) || unicode.IsDigit(r) || b == '\''
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func titleCase(s string) string {
	parts := strings.Fields(s)
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func sortedTags(taxonomy map[string][]string) []string {
	tags := make([]string, 0, len(taxonomy))
	for tag := range taxonomy {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
