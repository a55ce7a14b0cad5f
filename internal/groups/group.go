package groups

import (
	"fmt"
	"slices"
	"strings"

	"github.com/temirov/pacdef/internal/packages"
)

const (
	commentMarkerConstant     = "#"
	lineSeparatorConstant     = "\n"
	lineErrorTemplateConstant = "line %d: %v"
)

// LineError reports a group file line that does not hold a valid package reference.
type LineError struct {
	Line  int
	Cause error
}

// Error describes the offending line.
func (lineError LineError) Error() string {
	return fmt.Sprintf(lineErrorTemplateConstant, lineError.Line, lineError.Cause)
}

// Unwrap exposes the parse failure.
func (lineError LineError) Unwrap() error {
	return lineError.Cause
}

// Group is a named, ordered collection of declared packages backed by one file.
type Group struct {
	name     string
	path     string
	packages []packages.Package
}

// NewGroup constructs a group from already parsed packages.
func NewGroup(name string, path string, members []packages.Package) *Group {
	return &Group{name: name, path: path, packages: slices.Clone(members)}
}

// ParseGroup builds a group from the contents of its backing file. Packages keep file order.
func ParseGroup(name string, path string, content []byte) (*Group, error) {
	var members []packages.Package
	for lineIndex, line := range strings.Split(string(content), lineSeparatorConstant) {
		reference := packageReferenceFromLine(line)
		if len(reference) == 0 {
			continue
		}
		pkg, parseError := packages.Parse(reference)
		if parseError != nil {
			return nil, LineError{Line: lineIndex + 1, Cause: parseError}
		}
		members = append(members, pkg)
	}
	return &Group{name: name, path: path, packages: members}, nil
}

func packageReferenceFromLine(line string) string {
	beforeComment, _, _ := strings.Cut(line, commentMarkerConstant)
	return strings.TrimSpace(beforeComment)
}

// Name returns the group name, which is the backing file name.
func (group *Group) Name() string {
	return group.name
}

// Path returns the location of the backing file.
func (group *Group) Path() string {
	return group.path
}

// Packages returns a copy of the group's packages in their current order.
func (group *Group) Packages() []packages.Package {
	return slices.Clone(group.packages)
}

// Len reports the number of packages.
func (group *Group) Len() int {
	return len(group.packages)
}

// Contains reports whether a package with the same name is declared in the group.
func (group *Group) Contains(pkg packages.Package) bool {
	return slices.ContainsFunc(group.packages, pkg.Equal)
}

// Equal compares groups by name.
func (group *Group) Equal(other *Group) bool {
	if group == nil || other == nil {
		return group == other
	}
	return group.name == other.name
}

// HasName compares the group against a plain name.
func (group *Group) HasName(name string) bool {
	return group != nil && group.name == name
}

// Content renders the package names, newline separated.
func (group *Group) Content() string {
	names := make([]string, 0, len(group.packages))
	for _, pkg := range group.packages {
		names = append(names, pkg.Name())
	}
	return strings.Join(names, lineSeparatorConstant)
}

// String returns the group name.
func (group *Group) String() string {
	return group.name
}

func (group *Group) insert(pkg packages.Package) {
	group.packages = append(group.packages, pkg)
	packages.Sort(group.packages)
}

func serializePackageLine(pkg packages.Package) []byte {
	return []byte(pkg.String() + lineSeparatorConstant)
}
