package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValue  = "true"
	toggleFalseCanonicalValue = "false"
	toggleTypeName            = "bool"
	toggleParseErrorTemplate  = "invalid toggle value %q (use yes/no, true/false, on/off, or 1/0)"
	toggleTruePlaceholder     = "YES|no"
	toggleFalsePlaceholder    = "yes|NO"
)

var toggleLiterals = map[string]bool{
	"true":  true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"1":     true,
	"false": false,
	"no":    false,
	"n":     false,
	"off":   false,
	"0":     false,
}

// AddToggleFlag registers a boolean flag that also accepts yes/no style values
// in the --name=value form. A bare --name sets it to true. The flag reports the
// pflag "bool" type, so FlagSet.GetBool reads it.
func AddToggleFlag(flagSet *pflag.FlagSet, name string, defaultValue bool, usage string) {
	if flagSet == nil || len(strings.TrimSpace(name)) == 0 {
		return
	}
	toggle := &toggleValue{current: defaultValue}
	flagSet.Var(toggle, name, formatToggleUsage(usage, defaultValue))
	if registeredFlag := flagSet.Lookup(name); registeredFlag != nil {
		registeredFlag.NoOptDefVal = toggleTrueCanonicalValue
		registeredFlag.DefValue = toggle.String()
	}
}

// ParseToggle converts a yes/no style literal into a boolean; blank means true.
func ParseToggle(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		return true, nil
	}
	parsedValue, known := toggleLiterals[normalizedValue]
	if !known {
		return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
	}
	return parsedValue, nil
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleFalsePlaceholder
	if defaultValue {
		placeholder = toggleTruePlaceholder
	}
	return FormatChoiceUsage("", strings.Split(placeholder, choiceSeparatorLiteral), description)
}

type toggleValue struct {
	current bool
}

func (value *toggleValue) Set(rawValue string) error {
	parsedValue, parseError := ParseToggle(rawValue)
	if parseError != nil {
		return parseError
	}
	value.current = parsedValue
	return nil
}

func (value *toggleValue) String() string {
	if value != nil && value.current {
		return toggleTrueCanonicalValue
	}
	return toggleFalseCanonicalValue
}

func (value *toggleValue) Type() string {
	return toggleTypeName
}
