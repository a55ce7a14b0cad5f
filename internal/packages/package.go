package packages

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

const (
	repositorySeparatorConstant           = "/"
	malformedReferenceMessageConstant     = "package reference contains more than one repository separator"
	emptyNameMessageConstant              = "package name is empty"
	parseErrorTemplateConstant            = "invalid package reference %q: %s"
	invalidPatternErrorTemplateConstant   = "invalid search pattern %q: %w"
	displayWithRepositoryTemplateConstant = "%s%s%s"
)

var (
	// ErrMalformedReference indicates a reference with more than one repository separator.
	ErrMalformedReference = errors.New(malformedReferenceMessageConstant)
	// ErrEmptyName indicates a reference that resolves to an empty package name.
	ErrEmptyName = errors.New(emptyNameMessageConstant)
)

// ParseError reports why a textual package reference was rejected.
type ParseError struct {
	Reference string
	Cause     error
}

// Error describes the rejected reference.
func (parseError ParseError) Error() string {
	return fmt.Sprintf(parseErrorTemplateConstant, parseError.Reference, parseError.Cause)
}

// Unwrap exposes the sentinel cause.
func (parseError ParseError) Unwrap() error {
	return parseError.Cause
}

// Package identifies a single package by name. The repository qualifier is kept for display only.
type Package struct {
	name       string
	repository string
}

// New constructs a Package from an already split name and optional repository.
func New(name string, repository string) (Package, error) {
	if len(name) == 0 {
		return Package{}, ParseError{Reference: name, Cause: ErrEmptyName}
	}
	return Package{name: name, repository: repository}, nil
}

// Parse reads a reference of the form `name` or `repo/name`.
func Parse(reference string) (Package, error) {
	segments := strings.Split(reference, repositorySeparatorConstant)
	switch len(segments) {
	case 1:
		if len(segments[0]) == 0 {
			return Package{}, ParseError{Reference: reference, Cause: ErrEmptyName}
		}
		return Package{name: segments[0]}, nil
	case 2:
		if len(segments[1]) == 0 {
			return Package{}, ParseError{Reference: reference, Cause: ErrEmptyName}
		}
		return Package{name: segments[1], repository: segments[0]}, nil
	default:
		return Package{}, ParseError{Reference: reference, Cause: ErrMalformedReference}
	}
}

// ParseAll parses every reference, stopping at the first failure.
func ParseAll(references []string) ([]Package, error) {
	parsed := make([]Package, 0, len(references))
	for _, reference := range references {
		pkg, parseError := Parse(reference)
		if parseError != nil {
			return nil, parseError
		}
		parsed = append(parsed, pkg)
	}
	return parsed, nil
}

// Name returns the canonical identity of the package.
func (pkg Package) Name() string {
	return pkg.name
}

// Repository returns the repository qualifier, or an empty string when absent.
func (pkg Package) Repository() string {
	return pkg.repository
}

// HasRepository reports whether the reference carried a repository qualifier.
func (pkg Package) HasRepository() bool {
	return len(pkg.repository) > 0
}

// String renders `repo/name` when a repository is present, otherwise `name`.
func (pkg Package) String() string {
	if !pkg.HasRepository() {
		return pkg.name
	}
	return fmt.Sprintf(displayWithRepositoryTemplateConstant, pkg.repository, repositorySeparatorConstant, pkg.name)
}

// Equal compares packages by name only.
func (pkg Package) Equal(other Package) bool {
	return pkg.name == other.name
}

// Compare orders packages byte-wise by name.
func (pkg Package) Compare(other Package) int {
	return strings.Compare(pkg.name, other.name)
}

// Matches treats the display string of pattern as a regular expression and searches the display string of pkg.
func (pkg Package) Matches(pattern Package) (bool, error) {
	expression, compileError := regexp.Compile(pattern.String())
	if compileError != nil {
		return false, fmt.Errorf(invalidPatternErrorTemplateConstant, pattern.String(), compileError)
	}
	return expression.MatchString(pkg.String()), nil
}

// Sort orders the slice in place by name.
func Sort(list []Package) {
	slices.SortStableFunc(list, func(left Package, right Package) int {
		return left.Compare(right)
	})
}

// Strings renders every package with String.
func Strings(list []Package) []string {
	rendered := make([]string, 0, len(list))
	for _, pkg := range list {
		rendered = append(rendered, pkg.String())
	}
	return rendered
}
