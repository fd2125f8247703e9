package flags

import (
	"fmt"
	"strings"
)

const (
	choicePlaceholderPrefix  = "<"
	choicePlaceholderSuffix  = ">"
	choiceSeparatorLiteral   = "|"
	choiceUsageEmptyTemplate = "`%s`"
	choiceUsageFullTemplate  = "`%s` %s"
	unsupportedChoiceMessage = "unsupported --%s value %q (choose one of %s)"
	choiceListSeparator      = ", "
)

// UnsupportedChoiceError reports a flag value outside the allowed set.
type UnsupportedChoiceError struct {
	FlagName string
	Value    string
	Choices  []string
}

// Error describes the rejected value.
func (choiceError UnsupportedChoiceError) Error() string {
	return fmt.Sprintf(unsupportedChoiceMessage, choiceError.FlagName, choiceError.Value, strings.Join(choiceError.Choices, choiceListSeparator))
}

// FormatChoiceUsage renders `<a|B|c> description`, upper-casing the default choice.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := normalizeChoice(defaultChoice)
	displayed := make([]string, 0, len(choices))
	for _, choice := range uniqueChoices(choices) {
		if normalizeChoice(choice) == normalizedDefault {
			choice = strings.ToUpper(choice)
		}
		displayed = append(displayed, choice)
	}

	placeholder := choicePlaceholderPrefix + strings.Join(displayed, choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

// ResolveChoice matches value case-insensitively against choices and returns
// the canonical spelling. A blank value resolves to defaultChoice.
func ResolveChoice(flagName string, value string, defaultChoice string, choices []string) (string, error) {
	normalizedValue := normalizeChoice(value)
	if len(normalizedValue) == 0 {
		normalizedValue = normalizeChoice(defaultChoice)
	}
	allowed := uniqueChoices(choices)
	for _, choice := range allowed {
		if normalizeChoice(choice) == normalizedValue {
			return choice, nil
		}
	}
	return "", UnsupportedChoiceError{FlagName: flagName, Value: value, Choices: allowed}
}

func uniqueChoices(choices []string) []string {
	unique := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := normalizeChoice(trimmedChoice)
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}
		unique = append(unique, trimmedChoice)
	}
	return unique
}

func normalizeChoice(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
