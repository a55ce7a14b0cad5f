package groups

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/pacdef/internal/packages"
)

const (
	directoryMissingMessageConstant        = "group directory is not configured"
	groupNotFoundMessageConstant           = "group not found"
	groupExistsMessageConstant             = "group already exists"
	invalidGroupNameMessageConstant        = "group name must be a plain file name"
	loadErrorTemplateConstant              = "could not parse group file %s: %v"
	groupReferenceErrorTemplateConstant    = "%w: %s"
	directoryCreationErrorTemplateConstant = "unable to create group directory %s: %w"
	directoryReadErrorTemplateConstant     = "unable to read group directory %s: %w"
	appendReadErrorTemplateConstant        = "unable to read group file %s before appending: %w"
	appendOpenErrorTemplateConstant        = "unable to open group file %s for appending: %w"
	appendWriteErrorTemplateConstant       = "unable to append to group file %s: %w"
	appendCloseErrorTemplateConstant       = "unable to close group file %s: %w"
	createErrorTemplateConstant            = "unable to create group file %s: %w"
	removeErrorTemplateConstant            = "unable to remove group file %s: %w"
	importResolveErrorTemplateConstant     = "unable to resolve %s: %w"
	importLinkErrorTemplateConstant        = "unable to link %s into group directory: %w"
	directoryEntryWarningMessageConstant   = "found directory instead of group file"
	brokenSymlinkWarningMessageConstant    = "found group, but it is a broken symlink"
	notSymlinkWarningMessageConstant       = "group file is not a symlink"
	incompleteWriteWarningMessageConstant  = "could not write the whole line, check the group file"
	importSkippedWarningMessageConstant    = "group already exists, skipping import"
	groupsLoadedDebugMessageConstant       = "groups loaded"
	packageAppendedDebugMessageConstant    = "package appended to group"
	groupRemovedInfoMessageConstant        = "removing group"
	logFieldPathConstant                   = "path"
	logFieldGroupConstant                  = "group"
	logFieldGroupsConstant                 = "groups"
	logFieldPackageConstant                = "package"
	logFieldExpectedBytesConstant          = "expected_bytes"
	logFieldWrittenBytesConstant           = "written_bytes"
)

var (
	// ErrGroupNotFound indicates a group name that does not match any loaded group.
	ErrGroupNotFound = errors.New(groupNotFoundMessageConstant)
	// ErrGroupExists indicates a group name that is already taken.
	ErrGroupExists = errors.New(groupExistsMessageConstant)
	// ErrInvalidGroupName indicates a name that cannot be used as a file name inside the group directory.
	ErrInvalidGroupName = errors.New(invalidGroupNameMessageConstant)

	errDirectoryMissing = errors.New(directoryMissingMessageConstant)
)

// LoadError reports a group file that could not be read or parsed.
type LoadError struct {
	Path  string
	Cause error
}

// Error describes the failing file.
func (loadError LoadError) Error() string {
	return fmt.Sprintf(loadErrorTemplateConstant, loadError.Path, loadError.Cause)
}

// Unwrap exposes the read or parse failure.
func (loadError LoadError) Unwrap() error {
	return loadError.Cause
}

// StoreDependencies captures collaborators for Store.
type StoreDependencies struct {
	Logger         *zap.Logger
	FileSystem     FileSystem
	Directory      string
	WarnNotSymlink bool
}

// Store manages the group files inside one directory.
type Store struct {
	logger         *zap.Logger
	fileSystem     FileSystem
	directory      string
	warnNotSymlink bool
}

// NewStore validates dependencies and constructs a Store.
func NewStore(dependencies StoreDependencies) (*Store, error) {
	if len(dependencies.Directory) == 0 {
		return nil, errDirectoryMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = OSFileSystem{}
	}

	return &Store{
		logger:         logger,
		fileSystem:     fileSystem,
		directory:      dependencies.Directory,
		warnNotSymlink: dependencies.WarnNotSymlink,
	}, nil
}

// Directory returns the group directory.
func (store *Store) Directory() string {
	return store.directory
}

// EnsureDirectory creates the group directory when it is missing.
func (store *Store) EnsureDirectory() error {
	if creationError := store.fileSystem.MkdirAll(store.directory, groupDirectoryPermissionsConstant); creationError != nil {
		return fmt.Errorf(directoryCreationErrorTemplateConstant, store.directory, creationError)
	}
	return nil
}

// LoadAll reads every group file in name order. Directories and broken symlinks are reported and skipped; any unreadable or malformed group file aborts the load.
func (store *Store) LoadAll() ([]*Group, error) {
	entries, readDirectoryError := store.fileSystem.ReadDir(store.directory)
	if readDirectoryError != nil {
		return nil, fmt.Errorf(directoryReadErrorTemplateConstant, store.directory, readDirectoryError)
	}

	loaded := make([]*Group, 0, len(entries))
	for _, entry := range entries {
		groupPath := filepath.Join(store.directory, entry.Name())
		if !store.passesSanityCheck(groupPath) {
			continue
		}

		content, readError := store.fileSystem.ReadFile(groupPath)
		if readError != nil {
			return nil, LoadError{Path: groupPath, Cause: readError}
		}

		group, parseError := ParseGroup(entry.Name(), groupPath, content)
		if parseError != nil {
			return nil, LoadError{Path: groupPath, Cause: parseError}
		}
		loaded = append(loaded, group)
	}

	store.logger.Debug(groupsLoadedDebugMessageConstant, zap.Strings(logFieldGroupsConstant, groupNames(loaded)))
	return loaded, nil
}

func (store *Store) passesSanityCheck(groupPath string) bool {
	linkInfo, lstatError := store.fileSystem.Lstat(groupPath)
	if lstatError != nil {
		return true
	}

	isSymlink := linkInfo.Mode()&fs.ModeSymlink != 0
	if isSymlink {
		targetInfo, statError := store.fileSystem.Stat(groupPath)
		if statError != nil {
			store.logger.Warn(brokenSymlinkWarningMessageConstant, zap.String(logFieldPathConstant, groupPath))
			return false
		}
		linkInfo = targetInfo
	}

	if linkInfo.IsDir() {
		store.logger.Warn(directoryEntryWarningMessageConstant, zap.String(logFieldPathConstant, groupPath))
		return false
	}

	if store.warnNotSymlink && !isSymlink {
		store.logger.Warn(notSymlinkWarningMessageConstant, zap.String(logFieldPathConstant, groupPath))
	}
	return true
}

// Append adds pkg to the group in memory, re-sorts it, and appends one line to the backing file.
// A file without a final newline is terminated first. A short write is reported as a warning and not rolled back.
func (store *Store) Append(group *Group, pkg packages.Package) error {
	line := serializePackageLine(pkg)
	terminated, inspectError := store.endsWithLineSeparator(group.Path())
	if inspectError != nil {
		return fmt.Errorf(appendReadErrorTemplateConstant, group.Path(), inspectError)
	}
	if !terminated {
		line = append([]byte(lineSeparatorConstant), line...)
	}

	writer, openError := store.fileSystem.OpenAppend(group.Path())
	if openError != nil {
		return fmt.Errorf(appendOpenErrorTemplateConstant, group.Path(), openError)
	}
	group.insert(pkg)

	writtenBytes, writeError := writer.Write(line)
	closeError := writer.Close()

	if writtenBytes != len(line) {
		store.logger.Warn(
			incompleteWriteWarningMessageConstant,
			zap.String(logFieldPathConstant, group.Path()),
			zap.Int(logFieldExpectedBytesConstant, len(line)),
			zap.Int(logFieldWrittenBytesConstant, writtenBytes),
		)
	}
	if writeError != nil {
		return fmt.Errorf(appendWriteErrorTemplateConstant, group.Path(), writeError)
	}
	if closeError != nil {
		return fmt.Errorf(appendCloseErrorTemplateConstant, group.Path(), closeError)
	}

	store.logger.Debug(packageAppendedDebugMessageConstant, zap.String(logFieldGroupConstant, group.Name()), zap.String(logFieldPackageConstant, pkg.String()))
	return nil
}

// endsWithLineSeparator reports whether the file is empty, missing, or ends with a newline.
func (store *Store) endsWithLineSeparator(groupPath string) (bool, error) {
	content, readError := store.fileSystem.ReadFile(groupPath)
	if errors.Is(readError, fs.ErrNotExist) {
		return true, nil
	}
	if readError != nil {
		return false, readError
	}
	return len(content) == 0 || bytes.HasSuffix(content, []byte(lineSeparatorConstant)), nil
}

// Create makes an empty file for each name. Every name is checked before any file is created.
func (store *Store) Create(loaded []*Group, names []string) ([]string, error) {
	requested := make(map[string]struct{}, len(names))
	for _, name := range names {
		if validationError := validateGroupName(name); validationError != nil {
			return nil, validationError
		}
		if _, duplicate := requested[name]; duplicate {
			return nil, fmt.Errorf(groupReferenceErrorTemplateConstant, ErrGroupExists, name)
		}
		requested[name] = struct{}{}
		if _, findError := FindByName(loaded, name); findError == nil {
			return nil, fmt.Errorf(groupReferenceErrorTemplateConstant, ErrGroupExists, name)
		}
		if _, statError := store.fileSystem.Lstat(filepath.Join(store.directory, name)); statError == nil {
			return nil, fmt.Errorf(groupReferenceErrorTemplateConstant, ErrGroupExists, name)
		}
	}

	createdPaths := make([]string, 0, len(names))
	for _, name := range names {
		groupPath := filepath.Join(store.directory, name)
		if creationError := store.fileSystem.CreateExclusive(groupPath); creationError != nil {
			return createdPaths, fmt.Errorf(createErrorTemplateConstant, groupPath, creationError)
		}
		createdPaths = append(createdPaths, groupPath)
	}
	return createdPaths, nil
}

// Remove unlinks the named groups. All names must resolve before anything is removed.
func (store *Store) Remove(loaded []*Group, names []string) error {
	resolved, resolveError := ResolveMany(loaded, names)
	if resolveError != nil {
		return resolveError
	}

	for _, group := range resolved {
		store.logger.Info(groupRemovedInfoMessageConstant, zap.String(logFieldGroupConstant, group.Name()))
		if removeError := store.fileSystem.Remove(group.Path()); removeError != nil {
			return fmt.Errorf(removeErrorTemplateConstant, group.Path(), removeError)
		}
	}
	return nil
}

// Import links each file into the group directory by absolute path. Names that already exist are skipped with a warning.
func (store *Store) Import(loaded []*Group, files []string) ([]string, error) {
	importedNames := make([]string, 0, len(files))
	for _, file := range files {
		absolutePath, resolveError := store.fileSystem.Abs(file)
		if resolveError != nil {
			return importedNames, fmt.Errorf(importResolveErrorTemplateConstant, file, resolveError)
		}

		name := filepath.Base(absolutePath)
		linkPath := filepath.Join(store.directory, name)
		_, findError := FindByName(loaded, name)
		_, lstatError := store.fileSystem.Lstat(linkPath)
		if findError == nil || lstatError == nil {
			store.logger.Warn(importSkippedWarningMessageConstant, zap.String(logFieldGroupConstant, name), zap.String(logFieldPathConstant, absolutePath))
			continue
		}

		if linkError := store.fileSystem.Symlink(absolutePath, linkPath); linkError != nil {
			return importedNames, fmt.Errorf(importLinkErrorTemplateConstant, absolutePath, linkError)
		}
		importedNames = append(importedNames, name)
	}
	return importedNames, nil
}

// FindByName returns the group with the given name.
func FindByName(loaded []*Group, name string) (*Group, error) {
	for _, group := range loaded {
		if group.HasName(name) {
			return group, nil
		}
	}
	return nil, fmt.Errorf(groupReferenceErrorTemplateConstant, ErrGroupNotFound, name)
}

// ResolveMany resolves every name or fails without returning a partial result.
func ResolveMany(loaded []*Group, names []string) ([]*Group, error) {
	resolved := make([]*Group, 0, len(names))
	for _, name := range names {
		group, findError := FindByName(loaded, name)
		if findError != nil {
			return nil, findError
		}
		resolved = append(resolved, group)
	}
	return resolved, nil
}

func validateGroupName(name string) error {
	if len(name) == 0 || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf(groupReferenceErrorTemplateConstant, ErrInvalidGroupName, name)
	}
	return nil
}

func groupNames(loaded []*Group) []string {
	names := make([]string, 0, len(loaded))
	for _, group := range loaded {
		names = append(names, group.Name())
	}
	return names
}
