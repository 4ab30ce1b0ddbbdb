package autoreply

import (
	"strings"
	"time"

	"replyflow.app/relay/internal/model"
)

// Matches reports whether rule fires for the interaction at now. It checks the trigger kind,
// the rule's date window and its keyword filter, and has no side effects.
func Matches(rule model.Rule, in model.Interaction, now time.Time) bool {
	if !rule.Triggers.Has(in.Kind) {
		return false
	}
	if !withinWindow(rule, now) {
		return false
	}
	return matchesKeywords(rule, in.Text)
}

func withinWindow(rule model.Rule, now time.Time) bool {
	if rule.FilterStartDate != nil && now.Before(*rule.FilterStartDate) {
		return false
	}
	if rule.FilterEndDate != nil && now.After(*rule.FilterEndDate) {
		return false
	}
	return true
}

func matchesKeywords(rule model.Rule, text string) bool {
	if rule.KeywordCondition == model.KeywordConditionNone || len(rule.Keywords) == 0 {
		return true
	}

	lowered := strings.ToLower(text)

	for _, kw := range rule.Keywords {
		var hit bool
		if rule.KeywordMatchType == model.KeywordMatchExact {
			// exact is byte-for-byte; only partial folds case
			hit = text == kw
		} else {
			kw = strings.TrimSpace(kw)
			hit = kw != "" && strings.Contains(lowered, strings.ToLower(kw))
		}

		if rule.KeywordCondition == model.KeywordConditionAny && hit {
			return true
		}
		if rule.KeywordCondition == model.KeywordConditionAll && !hit {
			return false
		}
	}

	return rule.KeywordCondition == model.KeywordConditionAll
}
