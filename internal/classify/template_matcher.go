package classify

import (
	"errors"
	"strings"

	"github.com/recallhq/recall/internal/recording"
)

// ErrNoActiveTemplates is returned by [MatchTemplate] when templates is
// empty or contains no active entries.
var ErrNoActiveTemplates = errors.New("classify: no active templates found")

// MatchTemplate selects the best [recording.Template] for result from the
// given active templates, following the four-step fallback chain:
//  1. Templates whose Name equals the category: return the sole match, or
//     the highest (trigger_score, priority) match if more than one.
//  2. Otherwise, score all active templates by trigger overlap with
//     result.Reason; return the top scorer if its score is positive.
//  3. Otherwise, return the template flagged IsDefault.
//  4. Otherwise, return the first (highest-priority) active template.
//
// templates need not be pre-filtered to active-only; MatchTemplate ignores
// any entry with IsActive == false.
func MatchTemplate(templates []recording.Template, result Result) (recording.Template, error) {
	active := make([]recording.Template, 0, len(templates))
	for _, t := range templates {
		if t.IsActive {
			active = append(active, t)
		}
	}
	if len(active) == 0 {
		return recording.Template{}, ErrNoActiveTemplates
	}

	reasonLower := strings.ToLower(result.Reason)

	var categoryMatches []recording.Template
	for _, t := range active {
		if t.Name == result.Category {
			categoryMatches = append(categoryMatches, t)
		}
	}
	switch len(categoryMatches) {
	case 1:
		return categoryMatches[0], nil
	default:
		if len(categoryMatches) > 1 {
			return bestByTriggers(categoryMatches, reasonLower), nil
		}
	}

	best := bestByTriggers(active, reasonLower)
	if triggerScore(best, reasonLower) > 0 {
		return best, nil
	}

	for _, t := range active {
		if t.IsDefault {
			return t, nil
		}
	}

	first := active[0]
	for _, t := range active[1:] {
		if t.Priority > first.Priority {
			first = t
		}
	}
	return first, nil
}

// triggerScore counts how many of t's triggers occur (case-insensitively,
// as substrings) within reasonLower, which must already be lower-cased.
func triggerScore(t recording.Template, reasonLower string) int {
	score := 0
	for _, trigger := range t.Triggers {
		if trigger == "" {
			continue
		}
		if strings.Contains(reasonLower, strings.ToLower(trigger)) {
			score++
		}
	}
	return score
}

// bestByTriggers returns the template with the highest (trigger_score,
// priority), in that lexicographic order.
func bestByTriggers(templates []recording.Template, reasonLower string) recording.Template {
	best := templates[0]
	bestScore := triggerScore(best, reasonLower)
	for _, t := range templates[1:] {
		score := triggerScore(t, reasonLower)
		if score > bestScore || (score == bestScore && t.Priority > best.Priority) {
			best = t
			bestScore = score
		}
	}
	return best
}
