// Package label turns a window's raw properties into the display string shown
// in its workspace name, using configured alias patterns and icons.
package label

import (
	"fmt"
	"regexp"

	"github.com/swaywsr/swaywsr/internal/config"
	"github.com/swaywsr/swaywsr/internal/tree"
)

// Rule is one compiled alias pattern and the label it maps to.
type Rule struct {
	re    *regexp.Regexp
	label string
}

// Compiled holds the compiled alias rules per window property. Built once at
// startup (and on config reload) and read-only afterwards.
type Compiled struct {
	Class    []Rule
	Instance []Rule
	Name     []Rule
	AppID    []Rule
}

// TitleError reports a window whose properties yielded no label: no alias
// matched and the configured display property was absent.
type TitleError struct {
	DisplayProperty string
}

func (e *TitleError) Error() string {
	return fmt.Sprintf("no alias matched (name, instance, class/app_id) and display property %q is unset", e.DisplayProperty)
}

// Compile builds the alias rule sets from configuration. An invalid pattern
// is a fatal configuration error.
func Compile(cfg *config.Config) (*Compiled, error) {
	c := &Compiled{}
	var err error
	if c.Class, err = compileRules("class", cfg.Aliases.Class); err != nil {
		return nil, err
	}
	if c.Instance, err = compileRules("instance", cfg.Aliases.Instance); err != nil {
		return nil, err
	}
	if c.Name, err = compileRules("name", cfg.Aliases.Name); err != nil {
		return nil, err
	}
	if c.AppID, err = compileRules("app_id", cfg.Aliases.AppID); err != nil {
		return nil, err
	}
	return c, nil
}

func compileRules(category string, patterns []config.Pattern) ([]Rule, error) {
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, fmt.Errorf("alias pattern %q in [aliases.%s]: %w", p.Expr, category, err)
		}
		rules = append(rules, Rule{re: re, label: p.Label})
	}
	return rules, nil
}

// findAlias scans rules in configured order and returns the label of the
// first pattern matching anywhere in the value.
func findAlias(value *string, rules []Rule) (string, bool) {
	if value == nil {
		return "", false
	}
	for _, r := range rules {
		if r.re.MatchString(*value) {
			return r.label, true
		}
	}
	return "", false
}

// Title computes the display string for one window. Alias precedence is
// name, then instance, then class (app_id for windows without a class); when
// no alias matches, the raw value of the configured display property is used.
// The resolved title then picks up its icon, honoring the no_names and
// no_icon_names toggles.
func (c *Compiled) Title(props tree.WindowProperties, cfg *config.Config) (string, error) {
	title, ok := findAlias(props.Title, c.Name)
	if !ok {
		title, ok = findAlias(props.Instance, c.Instance)
	}
	if !ok {
		if props.Class != nil {
			title, ok = findAlias(props.Class, c.Class)
		} else {
			title, ok = findAlias(props.AppID, c.AppID)
		}
	}
	if !ok {
		raw := displayProperty(props, cfg.General.DisplayProperty)
		if raw == nil {
			return "", &TitleError{DisplayProperty: cfg.General.DisplayProperty}
		}
		title = *raw
	}

	opts := cfg.Options
	if icon, found := cfg.Icon(title); found {
		return formatWithIcon(icon, title, opts), nil
	}
	if icon, found := cfg.FallbackIcon(); found {
		return formatWithIcon(icon, title, opts), nil
	}
	if opts.NoNames {
		return "", nil
	}
	return title, nil
}

// displayProperty selects the raw fallback value. The class property stands
// in for app_id on windows that only have the latter.
func displayProperty(props tree.WindowProperties, name string) *string {
	switch name {
	case config.PropertyName:
		return props.Title
	case config.PropertyInstance:
		return props.Instance
	case config.PropertyAppID:
		return props.AppID
	default:
		if props.Class != nil {
			return props.Class
		}
		return props.AppID
	}
}

func formatWithIcon(icon, title string, opts config.Options) string {
	if opts.NoIconNames || opts.NoNames {
		return icon
	}
	return icon + " " + title
}
