// Package shader bundles WGSL modules from reusable libraries. A module
// declares its dependencies in leading "//use name" lines, and lines can be
// kept or dropped per bundle through "//if(condition)" / "//else" /
// "//endif" sections, where a condition is a flag name, "!condition",
// "(condition)&(condition)" or "(condition)|(condition)" with no whitespace.
package shader

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrModuleExists       = errors.New("shader module already exists")
	ErrUnknownDependency  = errors.New("unknown shader dependency")
	ErrInvalidCondition   = errors.New("invalid shader condition")
	ErrMalformedDirective = errors.New("malformed shader directive")
)

type shaderLibrary struct {
	source       string
	dependencies []string
}

// Bundler assembles complete WGSL sources from named libraries plus an
// interface and implementor module pair.
type Bundler struct {
	libraries map[string]shaderLibrary
}

// NewBundler creates a bundler with no libraries.
//
// Returns:
//   - *Bundler: the new bundler.
func NewBundler() *Bundler {
	return &Bundler{libraries: map[string]shaderLibrary{}}
}

// AddLibrary registers a module other modules can pull in with "//use name".
// Libraries should contain only definitions; that is not checked here.
//
// Parameters:
//   - name: the name modules use to depend on the library.
//   - source: the library's WGSL source.
//
// Returns:
//   - error: ErrModuleExists if the name is taken.
func (b *Bundler) AddLibrary(name, source string) error {
	if _, ok := b.libraries[name]; ok {
		return fmt.Errorf("%w: %q", ErrModuleExists, name)
	}
	b.libraries[name] = shaderLibrary{
		source:       source,
		dependencies: dependencies(source),
	}
	return nil
}

// Bundle concatenates the dependency closure of both modules, the
// implementor and the interface, in that order, with the conditional
// sections of every part filtered by the given flags. The interface is
// expected to define the entry points and call into functions the
// implementor provides; neither expectation is checked.
//
// Parameters:
//   - interfaceSource: the module defining the shader entry points.
//   - implementorSource: the module implementing what the interface calls.
//   - flags: the flag names conditional sections are evaluated against.
//
// Returns:
//   - string: the bundled WGSL source.
//   - error: an error if a dependency is unknown or a directive is invalid.
func (b *Bundler) Bundle(interfaceSource, implementorSource string, flags ...string) (string, error) {
	flagSet := make(map[string]struct{}, len(flags))
	for _, flag := range flags {
		flagSet[flag] = struct{}{}
	}

	order, err := b.dependencyOrder(interfaceSource, implementorSource)
	if err != nil {
		return "", err
	}

	var bundled strings.Builder
	for _, name := range order {
		if err := appendModule(&bundled, b.libraries[name].source, flagSet); err != nil {
			return "", fmt.Errorf("library %q: %w", name, err)
		}
	}
	if err := appendModule(&bundled, implementorSource, flagSet); err != nil {
		return "", fmt.Errorf("implementor: %w", err)
	}
	if err := appendModule(&bundled, interfaceSource, flagSet); err != nil {
		return "", fmt.Errorf("interface: %w", err)
	}
	return bundled.String(), nil
}

// dependencyOrder walks the declared dependencies depth first, emitting
// every library once, before anything that uses it. Interface dependencies
// come before implementor dependencies, each in declaration order.
func (b *Bundler) dependencyOrder(interfaceSource, implementorSource string) ([]string, error) {
	var order []string
	seen := map[string]bool{}
	var visit func(name string) error
	visit = func(name string) error {
		if seen[name] {
			return nil
		}
		seen[name] = true
		library, ok := b.libraries[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownDependency, name)
		}
		for _, dependency := range library.dependencies {
			if err := visit(dependency); err != nil {
				return err
			}
		}
		order = append(order, name)
		return nil
	}
	roots := append(dependencies(interfaceSource), dependencies(implementorSource)...)
	for _, name := range roots {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// dependencies reads the leading "//use name" lines of a module. The first
// line that is not a use directive ends the list.
func dependencies(source string) []string {
	var names []string
	for _, line := range strings.Split(source, "\n") {
		rest, ok := strings.CutPrefix(line, "//use ")
		if !ok {
			break
		}
		names = append(names, strings.TrimSpace(rest))
	}
	return names
}

func appendModule(bundled *strings.Builder, source string, flags map[string]struct{}) error {
	lines := strings.Split(source, "\n")
	kept, _, err := applyFlags(lines, 0, flags, true, false)
	if err != nil {
		return err
	}
	for _, line := range kept {
		bundled.WriteString(line)
		bundled.WriteByte('\n')
	}
	return nil
}

// applyFlags filters one scope of lines. Directive lines themselves are
// never emitted. For a nested scope the returned index points just past the
// closing //endif; dropped sections are still walked so their directive
// errors surface.
func applyFlags(lines []string, offset int, flags map[string]struct{}, keep, nested bool) ([]string, int, error) {
	var kept []string
	inElse := false
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "//endif":
			if !nested {
				return nil, 0, fmt.Errorf("line %d: %w: //endif without //if", offset+i+1, ErrMalformedDirective)
			}
			return kept, i + 1, nil
		case trimmed == "//else":
			if !nested {
				return nil, 0, fmt.Errorf("line %d: %w: //else without //if", offset+i+1, ErrMalformedDirective)
			}
			if inElse {
				return nil, 0, fmt.Errorf("line %d: %w: second //else in one conditional", offset+i+1, ErrMalformedDirective)
			}
			inElse = true
			i++
		case isIf(trimmed):
			condition := trimmed[5 : len(trimmed)-1]
			value, ok := evalCondition(condition, flags)
			if !ok {
				return nil, 0, fmt.Errorf("line %d: %w: %q", offset+i+1, ErrInvalidCondition, condition)
			}
			block, next, err := applyFlags(lines[i+1:], offset+i+1, flags, value, true)
			if err != nil {
				return nil, 0, err
			}
			if keep != inElse {
				kept = append(kept, block...)
			}
			i += 1 + next
		default:
			if keep != inElse {
				kept = append(kept, line)
			}
			i++
		}
	}
	if nested {
		return nil, 0, fmt.Errorf("line %d: %w: missing //endif", offset+len(lines), ErrMalformedDirective)
	}
	return kept, i, nil
}

func isIf(line string) bool {
	return strings.HasPrefix(line, "//if(") && strings.HasSuffix(line, ")")
}

// conditionToken is one token of a condition: a paren, an operator, or a
// flag name (kind 'a').
type conditionToken struct {
	kind byte
	name string
}

func evalCondition(condition string, flags map[string]struct{}) (bool, bool) {
	tokens, ok := tokenizeCondition(condition)
	if !ok {
		return false, false
	}
	return evalTokens(tokens, flags)
}

// evalTokens evaluates the strict condition grammar: a single flag name, a
// negation of a condition, or two parenthesized conditions joined by one
// operator.
func evalTokens(tokens []conditionToken, flags map[string]struct{}) (bool, bool) {
	if len(tokens) == 0 {
		return false, false
	}
	switch tokens[0].kind {
	case 'a':
		if len(tokens) != 1 {
			return false, false
		}
		_, set := flags[tokens[0].name]
		return set, true
	case '!':
		value, ok := evalTokens(tokens[1:], flags)
		return !value, ok
	case '(':
		first, rest, ok := untilClosing(tokens)
		if !ok {
			return false, false
		}
		if len(rest) < 3 || (rest[0].kind != '&' && rest[0].kind != '|') ||
			rest[1].kind != '(' || rest[len(rest)-1].kind != ')' {
			return false, false
		}
		a, ok := evalTokens(first, flags)
		if !ok {
			return false, false
		}
		b, ok := evalTokens(rest[2:len(rest)-1], flags)
		if !ok {
			return false, false
		}
		if rest[0].kind == '&' {
			return a && b, true
		}
		return a || b, true
	}
	return false, false
}

// untilClosing splits off the tokens inside the leading parenthesized group
// and whatever follows it.
func untilClosing(tokens []conditionToken) (inside, rest []conditionToken, ok bool) {
	depth := 0
	for i, token := range tokens {
		switch token.kind {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return tokens[1:i], tokens[i+1:], true
			}
		}
	}
	return nil, nil, false
}

func tokenizeCondition(condition string) ([]conditionToken, bool) {
	var tokens []conditionToken
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, conditionToken{kind: 'a', name: current.String()})
			current.Reset()
		}
	}
	for _, r := range condition {
		switch {
		case r == '(' || r == ')' || r == '!' || r == '&' || r == '|':
			flush()
			tokens = append(tokens, conditionToken{kind: byte(r)})
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(r)
		default:
			return nil, false
		}
	}
	flush()
	return tokens, true
}
