package groups_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/pacdef/internal/groups"
	"github.com/temirov/pacdef/internal/packages"
)

const (
	testGroupFilePermissionsConstant   = 0o644
	testBrokenSymlinkMessageConstant   = "found group, but it is a broken symlink"
	testDirectoryMessageConstant       = "found directory instead of group file"
	testNotSymlinkMessageConstant      = "group file is not a symlink"
	testIncompleteWriteMessageConstant = "could not write the whole line, check the group file"
)

func writeGroupFile(testInstance *testing.T, directory string, name string, content string) string {
	testInstance.Helper()
	groupPath := filepath.Join(directory, name)
	require.NoError(testInstance, os.WriteFile(groupPath, []byte(content), testGroupFilePermissionsConstant))
	return groupPath
}

func newTestStore(testInstance *testing.T, directory string, logger *zap.Logger, warnNotSymlink bool) *groups.Store {
	testInstance.Helper()
	store, storeError := groups.NewStore(groups.StoreDependencies{
		Logger:         logger,
		Directory:      directory,
		WarnNotSymlink: warnNotSymlink,
	})
	require.NoError(testInstance, storeError)
	return store
}

func mustParsePackage(testInstance *testing.T, reference string) packages.Package {
	testInstance.Helper()
	pkg, parseError := packages.Parse(reference)
	require.NoError(testInstance, parseError)
	return pkg
}

func TestNewStoreRequiresDirectory(testInstance *testing.T) {
	_, storeError := groups.NewStore(groups.StoreDependencies{})
	require.Error(testInstance, storeError)
}

func TestLoadAllReadsGroupsInNameOrder(testInstance *testing.T) {
	directory := testInstance.TempDir()
	writeGroupFile(testInstance, directory, "zeta", "zsh\n")
	writeGroupFile(testInstance, directory, "alpha", "base\nlinux # kernel\n")

	loaded, loadError := newTestStore(testInstance, directory, zap.NewNop(), false).LoadAll()

	require.NoError(testInstance, loadError)
	require.Len(testInstance, loaded, 2)
	require.Equal(testInstance, "alpha", loaded[0].Name())
	require.Equal(testInstance, []string{"base", "linux"}, packages.Strings(loaded[0].Packages()))
	require.Equal(testInstance, "zeta", loaded[1].Name())
}

func TestLoadAllSanityChecks(testInstance *testing.T) {
	directory := testInstance.TempDir()
	sourceDirectory := testInstance.TempDir()
	linkedSource := writeGroupFile(testInstance, sourceDirectory, "linked", "git\n")
	require.NoError(testInstance, os.Symlink(linkedSource, filepath.Join(directory, "linked")))
	require.NoError(testInstance, os.Symlink(filepath.Join(sourceDirectory, "missing"), filepath.Join(directory, "broken")))
	require.NoError(testInstance, os.Mkdir(filepath.Join(directory, "nested"), 0o755))
	writeGroupFile(testInstance, directory, "plain", "vim\n")

	observerCore, observerLogs := observer.New(zapcore.WarnLevel)
	loaded, loadError := newTestStore(testInstance, directory, zap.New(observerCore), true).LoadAll()

	require.NoError(testInstance, loadError)
	require.Len(testInstance, loaded, 2)
	require.Equal(testInstance, "linked", loaded[0].Name())
	require.Equal(testInstance, "plain", loaded[1].Name())

	require.Equal(testInstance, 1, observerLogs.FilterMessage(testBrokenSymlinkMessageConstant).Len())
	require.Equal(testInstance, 1, observerLogs.FilterMessage(testDirectoryMessageConstant).Len())
	notSymlinkWarnings := observerLogs.FilterMessage(testNotSymlinkMessageConstant).All()
	require.Len(testInstance, notSymlinkWarnings, 1)
	require.Equal(testInstance, filepath.Join(directory, "plain"), notSymlinkWarnings[0].ContextMap()["path"])
}

func TestLoadAllFailsOnMalformedGroup(testInstance *testing.T) {
	directory := testInstance.TempDir()
	writeGroupFile(testInstance, directory, "good", "base\n")
	badPath := writeGroupFile(testInstance, directory, "bad", "a/b/c\n")

	loaded, loadError := newTestStore(testInstance, directory, zap.NewNop(), false).LoadAll()

	require.Nil(testInstance, loaded)
	var typedError groups.LoadError
	require.ErrorAs(testInstance, loadError, &typedError)
	require.Equal(testInstance, badPath, typedError.Path)
	require.ErrorIs(testInstance, loadError, packages.ErrMalformedReference)
}

func TestAppendKeepsMemorySortedAndFileAppended(testInstance *testing.T) {
	directory := testInstance.TempDir()
	groupPath := writeGroupFile(testInstance, directory, "desktop", "zsh\n")
	store := newTestStore(testInstance, directory, zap.NewNop(), false)

	loaded, loadError := store.LoadAll()
	require.NoError(testInstance, loadError)
	group := loaded[0]

	require.NoError(testInstance, store.Append(group, mustParsePackage(testInstance, "custom/firefox")))
	require.NoError(testInstance, store.Append(group, mustParsePackage(testInstance, "alacritty")))

	require.Equal(testInstance, []string{"alacritty", "custom/firefox", "zsh"}, packages.Strings(group.Packages()))

	content, readError := os.ReadFile(groupPath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, []byte("zsh\ncustom/firefox\nalacritty\n"), content)
}

func TestAppendReturnsOpenFailure(testInstance *testing.T) {
	directory := testInstance.TempDir()
	store := newTestStore(testInstance, directory, zap.NewNop(), false)
	group := groups.NewGroup("ghost", filepath.Join(directory, "ghost"), nil)

	appendError := store.Append(group, mustParsePackage(testInstance, "base"))

	require.ErrorIs(testInstance, appendError, os.ErrNotExist)
	require.Empty(testInstance, group.Packages())
}

func TestAppendTerminatesFileWithoutFinalNewline(testInstance *testing.T) {
	testCases := []struct {
		name             string
		initialContent   string
		expectedContent  string
		expectedPackages []string
	}{
		{
			name:             "missing final newline",
			initialContent:   "firefox",
			expectedContent:  "firefox\nsteam\n",
			expectedPackages: []string{"firefox", "steam"},
		},
		{
			name:             "trailing comment without newline",
			initialContent:   "firefox\n# games",
			expectedContent:  "firefox\n# games\nsteam\n",
			expectedPackages: []string{"firefox", "steam"},
		},
		{
			name:             "empty file",
			initialContent:   "",
			expectedContent:  "steam\n",
			expectedPackages: []string{"steam"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			directory := subtest.TempDir()
			groupPath := writeGroupFile(subtest, directory, "desktop", testCase.initialContent)
			store := newTestStore(subtest, directory, zap.NewNop(), false)
			loaded, loadError := store.LoadAll()
			require.NoError(subtest, loadError)

			require.NoError(subtest, store.Append(loaded[0], mustParsePackage(subtest, "steam")))

			content, readError := os.ReadFile(groupPath)
			require.NoError(subtest, readError)
			require.Equal(subtest, testCase.expectedContent, string(content))

			reloaded, reloadError := store.LoadAll()
			require.NoError(subtest, reloadError)
			require.Equal(subtest, testCase.expectedPackages, packages.Strings(reloaded[0].Packages()))
		})
	}
}

type shortWriter struct {
	limit   int
	written []byte
}

func (writer *shortWriter) Write(data []byte) (int, error) {
	accepted := data
	if len(accepted) > writer.limit {
		accepted = accepted[:writer.limit]
	}
	writer.written = append(writer.written, accepted...)
	if len(accepted) < len(data) {
		return len(accepted), io.ErrShortWrite
	}
	return len(accepted), nil
}

func (writer *shortWriter) Close() error {
	return nil
}

type shortWriteFileSystem struct {
	groups.OSFileSystem
	writer   *shortWriter
	existing []byte
}

func (fileSystem shortWriteFileSystem) ReadFile(string) ([]byte, error) {
	return fileSystem.existing, nil
}

func (fileSystem shortWriteFileSystem) OpenAppend(string) (io.WriteCloser, error) {
	return fileSystem.writer, nil
}

func TestAppendWarnsOnIncompleteWrite(testInstance *testing.T) {
	observerCore, observerLogs := observer.New(zapcore.WarnLevel)
	writer := &shortWriter{limit: 2}
	store, storeError := groups.NewStore(groups.StoreDependencies{
		Logger:     zap.New(observerCore),
		FileSystem: shortWriteFileSystem{writer: writer},
		Directory:  "/groups",
	})
	require.NoError(testInstance, storeError)
	group := groups.NewGroup("desktop", "/groups/desktop", nil)

	appendError := store.Append(group, mustParsePackage(testInstance, "firefox"))

	require.ErrorIs(testInstance, appendError, io.ErrShortWrite)
	require.Equal(testInstance, []byte("fi"), writer.written)
	require.True(testInstance, group.Contains(mustParsePackage(testInstance, "firefox")))
	warnings := observerLogs.FilterMessage(testIncompleteWriteMessageConstant).All()
	require.Len(testInstance, warnings, 1)
	require.EqualValues(testInstance, 8, warnings[0].ContextMap()["expected_bytes"])
	require.EqualValues(testInstance, 2, warnings[0].ContextMap()["written_bytes"])
}

func TestFindByNameAndResolveMany(testInstance *testing.T) {
	loaded := []*groups.Group{
		groups.NewGroup("base", "/groups/base", nil),
		groups.NewGroup("desktop", "/groups/desktop", nil),
	}

	found, findError := groups.FindByName(loaded, "desktop")
	require.NoError(testInstance, findError)
	require.Equal(testInstance, "/groups/desktop", found.Path())

	_, missingError := groups.FindByName(loaded, "gaming")
	require.ErrorIs(testInstance, missingError, groups.ErrGroupNotFound)

	resolved, resolveError := groups.ResolveMany(loaded, []string{"desktop", "base"})
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, []string{"desktop", "base"}, []string{resolved[0].Name(), resolved[1].Name()})

	partial, partialError := groups.ResolveMany(loaded, []string{"base", "gaming"})
	require.ErrorIs(testInstance, partialError, groups.ErrGroupNotFound)
	require.Nil(testInstance, partial)
}

func TestRemoveIsAllOrNothing(testInstance *testing.T) {
	directory := testInstance.TempDir()
	basePath := writeGroupFile(testInstance, directory, "base", "base\n")
	desktopPath := writeGroupFile(testInstance, directory, "desktop", "zsh\n")
	store := newTestStore(testInstance, directory, zap.NewNop(), false)
	loaded, loadError := store.LoadAll()
	require.NoError(testInstance, loadError)

	removeError := store.Remove(loaded, []string{"base", "missing"})
	require.ErrorIs(testInstance, removeError, groups.ErrGroupNotFound)
	require.FileExists(testInstance, basePath)
	require.FileExists(testInstance, desktopPath)

	require.NoError(testInstance, store.Remove(loaded, []string{"base", "desktop"}))
	require.NoFileExists(testInstance, basePath)
	require.NoFileExists(testInstance, desktopPath)
}

func TestCreateChecksEveryNameFirst(testInstance *testing.T) {
	directory := testInstance.TempDir()
	writeGroupFile(testInstance, directory, "base", "")
	store := newTestStore(testInstance, directory, zap.NewNop(), false)
	loaded, loadError := store.LoadAll()
	require.NoError(testInstance, loadError)

	_, createError := store.Create(loaded, []string{"fresh", "base"})
	require.ErrorIs(testInstance, createError, groups.ErrGroupExists)
	require.NoFileExists(testInstance, filepath.Join(directory, "fresh"))

	_, invalidError := store.Create(loaded, []string{"../escape"})
	require.ErrorIs(testInstance, invalidError, groups.ErrInvalidGroupName)

	_, duplicateError := store.Create(loaded, []string{"twice", "twice"})
	require.ErrorIs(testInstance, duplicateError, groups.ErrGroupExists)
	require.NoFileExists(testInstance, filepath.Join(directory, "twice"))

	createdPaths, createAllError := store.Create(loaded, []string{"fresh", "gaming"})
	require.NoError(testInstance, createAllError)
	require.Equal(testInstance, []string{filepath.Join(directory, "fresh"), filepath.Join(directory, "gaming")}, createdPaths)
	content, readError := os.ReadFile(createdPaths[0])
	require.NoError(testInstance, readError)
	require.Empty(testInstance, content)
}

func TestImportLinksFilesAndSkipsExisting(testInstance *testing.T) {
	directory := testInstance.TempDir()
	sourceDirectory := testInstance.TempDir()
	writeGroupFile(testInstance, directory, "base", "base\n")
	newSource := writeGroupFile(testInstance, sourceDirectory, "desktop", "zsh\n")
	clashingSource := writeGroupFile(testInstance, sourceDirectory, "base", "linux\n")

	observerCore, observerLogs := observer.New(zapcore.WarnLevel)
	store := newTestStore(testInstance, directory, zap.New(observerCore), false)
	loaded, loadError := store.LoadAll()
	require.NoError(testInstance, loadError)

	importedNames, importError := store.Import(loaded, []string{newSource, clashingSource})

	require.NoError(testInstance, importError)
	require.Equal(testInstance, []string{"desktop"}, importedNames)
	linkTarget, readLinkError := os.Readlink(filepath.Join(directory, "desktop"))
	require.NoError(testInstance, readLinkError)
	require.Equal(testInstance, newSource, linkTarget)
	require.Equal(testInstance, 1, observerLogs.FilterMessage("group already exists, skipping import").Len())

	content, readError := os.ReadFile(filepath.Join(directory, "base"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "base\n", string(content))
}

func TestEnsureDirectoryCreatesMissingDirectory(testInstance *testing.T) {
	directory := filepath.Join(testInstance.TempDir(), "nested", "groups")
	store := newTestStore(testInstance, directory, zap.NewNop(), false)

	require.NoError(testInstance, store.EnsureDirectory())

	info, statError := os.Stat(directory)
	require.NoError(testInstance, statError)
	require.True(testInstance, info.IsDir())
	require.False(testInstance, errors.Is(statError, os.ErrNotExist))
}

func TestAppendCountsSeparatorInIncompleteWrite(testInstance *testing.T) {
	observerCore, observerLogs := observer.New(zapcore.WarnLevel)
	writer := &shortWriter{limit: 3}
	store, storeError := groups.NewStore(groups.StoreDependencies{
		Logger:     zap.New(observerCore),
		FileSystem: shortWriteFileSystem{writer: writer, existing: []byte("zsh")},
		Directory:  "/groups",
	})
	require.NoError(testInstance, storeError)
	group := groups.NewGroup("desktop", "/groups/desktop", nil)

	appendError := store.Append(group, mustParsePackage(testInstance, "firefox"))

	require.ErrorIs(testInstance, appendError, io.ErrShortWrite)
	require.Equal(testInstance, []byte("\nfi"), writer.written)
	require.True(testInstance, group.Contains(mustParsePackage(testInstance, "firefox")))
	warnings := observerLogs.FilterMessage(testIncompleteWriteMessageConstant).All()
	require.Len(testInstance, warnings, 1)
	require.EqualValues(testInstance, 9, warnings[0].ContextMap()["expected_bytes"])
	require.EqualValues(testInstance, 3, warnings[0].ContextMap()["written_bytes"])
}
