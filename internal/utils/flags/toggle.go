package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	toggleTrueValueConstant       = "true"
	toggleFalseValueConstant      = "false"
	toggleTypeConstant            = "bool"
	toggleParseErrorTemplate      = "invalid yes/no value %q"
	toggleUsageTemplateConstant   = "`%s` %s"
	toggleDefaultTruePlaceholder  = "<YES|no>"
	toggleDefaultFalsePlaceholder = "<yes|NO>"
	longFlagPrefixConstant        = "--"
	shortFlagPrefixConstant       = "-"
	flagValueSeparatorConstant    = "="
	argumentTerminatorConstant    = "--"
)

var (
	toggleLiterals = map[string]bool{
		"true": true, "yes": true, "on": true, "1": true, "y": true,
		"false": false, "no": false, "off": false, "0": false, "n": false,
	}

	toggleRegistry = struct {
		sync.RWMutex
		names map[string]struct{}
	}{names: map[string]struct{}{}}
)

// AddToggleFlag registers a boolean flag that also accepts yes/no style values, as in "--yes no".
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	value := &toggleValue{current: defaultValue, target: target}
	if target != nil {
		*target = defaultValue
	}
	flagSet.VarP(value, name, shorthand, usage)

	flag := flagSet.Lookup(name)
	flag.NoOptDefVal = toggleTrueValueConstant
	placeholder := toggleDefaultFalsePlaceholder
	if defaultValue {
		placeholder = toggleDefaultTruePlaceholder
	}
	flag.Usage = strings.TrimSpace(fmt.Sprintf(toggleUsageTemplateConstant, placeholder, strings.TrimSpace(usage)))

	toggleRegistry.Lock()
	defer toggleRegistry.Unlock()
	toggleRegistry.names[longFlagPrefixConstant+name] = struct{}{}
	if len(shorthand) > 0 {
		toggleRegistry.names[shortFlagPrefixConstant+shorthand] = struct{}{}
	}
}

// NormalizeToggleArguments joins a toggle flag with a following yes/no word so that pflag sees "--flag=value".
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	toggleRegistry.RLock()
	defer toggleRegistry.RUnlock()

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == argumentTerminatorConstant {
			return append(normalized, arguments[index:]...)
		}

		_, isToggle := toggleRegistry.names[current]
		if isToggle && index+1 < len(arguments) {
			if _, isLiteral := toggleLiterals[strings.ToLower(arguments[index+1])]; isLiteral {
				normalized = append(normalized, current+flagValueSeparatorConstant+arguments[index+1])
				index++
				continue
			}
		}
		normalized = append(normalized, current)
	}
	return normalized
}

type toggleValue struct {
	current bool
	target  *bool
}

func (value *toggleValue) Set(rawValue string) error {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		normalizedValue = toggleTrueValueConstant
	}

	parsedValue, known := toggleLiterals[normalizedValue]
	if !known {
		return fmt.Errorf(toggleParseErrorTemplate, rawValue)
	}

	value.current = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
	return nil
}

func (value *toggleValue) String() string {
	if value != nil && value.current {
		return toggleTrueValueConstant
	}
	return toggleFalseValueConstant
}

func (value *toggleValue) Type() string {
	return toggleTypeConstant
}
