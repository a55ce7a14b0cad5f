// Package groups loads and maintains the declared package groups.
//
// Each group is one plain-text file in the group directory; the file name is
// the group name and every non-blank line, with anything after a '#' removed,
// is a package reference. Store loads the whole directory fail-fast, appends
// packages to individual files without rewriting them, and creates, removes,
// and imports group files. The group-management commands (groups, show,
// search, new, remove, edit, import) are built on top of Store.
package groups
