package reconcile

import (
	"github.com/temirov/pacdef/internal/groups"
	"github.com/temirov/pacdef/internal/packages"
)

// ManagedPackages returns the union of every group's packages. The first declaration of a name wins.
func ManagedPackages(loaded []*groups.Group) packages.Set {
	managed := packages.NewSet()
	for _, group := range loaded {
		for _, pkg := range group.Packages() {
			managed.Add(pkg)
		}
	}
	return managed
}

// PackagesToInstall returns managed packages that are not installed, sorted by name.
func PackagesToInstall(managed packages.Set, installed []packages.Package) []packages.Package {
	return managed.Difference(packages.NewSet(installed...)).Sorted()
}

// UnmanagedPackages returns explicitly installed packages that no group declares, sorted by name.
func UnmanagedPackages(managed packages.Set, explicitlyInstalled []packages.Package) []packages.Package {
	return packages.NewSet(explicitlyInstalled...).Difference(managed).Sorted()
}
