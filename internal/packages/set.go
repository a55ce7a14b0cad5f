package packages

// Set holds packages keyed by name. The first member added for a name is retained.
type Set map[string]Package

// NewSet builds a Set from the provided packages.
func NewSet(members ...Package) Set {
	set := make(Set, len(members))
	for _, member := range members {
		set.Add(member)
	}
	return set
}

// Add inserts the package unless a package with the same name is already present.
func (set Set) Add(pkg Package) bool {
	if _, exists := set[pkg.name]; exists {
		return false
	}
	set[pkg.name] = pkg
	return true
}

// Contains reports whether a package with the same name is present.
func (set Set) Contains(pkg Package) bool {
	_, exists := set[pkg.name]
	return exists
}

// Difference returns the members of set that are absent from other.
func (set Set) Difference(other Set) Set {
	difference := make(Set)
	for name, member := range set {
		if _, exists := other[name]; exists {
			continue
		}
		difference[name] = member
	}
	return difference
}

// Sorted returns the members ordered by name.
func (set Set) Sorted() []Package {
	members := make([]Package, 0, len(set))
	for _, member := range set {
		members = append(members, member)
	}
	Sort(members)
	return members
}
