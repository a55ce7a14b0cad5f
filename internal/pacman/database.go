package pacman

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/temirov/pacdef/internal/packages"
)

const (
	localDatabaseDirectoryConstant        = "local"
	descriptionFileNameConstant           = "desc"
	nameSectionConstant                   = "%NAME%"
	reasonSectionConstant                 = "%REASON%"
	dependencyReasonConstant              = "1"
	sectionMarkerConstant                 = "%"
	optionsSectionConstant                = "[options]"
	sectionPrefixConstant                 = "["
	configurationCommentMarkerConstant    = "#"
	configurationAssignmentConstant       = "="
	databasePathOptionConstant            = "DBPath"
	databaseReadErrorTemplateConstant     = "unable to read package database %s: %w"
	descriptionErrorTemplateConstant      = "unable to read package description %s: %w"
	configurationReadTemplateConstant     = "unable to read pacman configuration %s: %w"
	descriptionNameMissingMessageConstant = "package description has no %NAME% entry"
)

var errDescriptionNameMissing = errors.New(descriptionNameMissingMessageConstant)

// DatabaseSource lists installed packages by reading the local pacman database.
type DatabaseSource struct {
	database fs.FS
	root     string
}

type installedPackage struct {
	pkg        packages.Package
	dependency bool
}

// NewDatabaseSource reads the database rooted at databasePath.
func NewDatabaseSource(databasePath string) *DatabaseSource {
	return &DatabaseSource{database: os.DirFS(databasePath), root: databasePath}
}

// NewDatabaseSourceFS reads a database exposed as an fs.FS.
func NewDatabaseSourceFS(database fs.FS, root string) *DatabaseSource {
	return &DatabaseSource{database: database, root: root}
}

// AllInstalled lists every package in the local database.
func (source *DatabaseSource) AllInstalled(executionContext context.Context) ([]packages.Package, error) {
	installed, readError := source.readLocal(executionContext)
	if readError != nil {
		return nil, readError
	}

	result := make([]packages.Package, 0, len(installed))
	for _, entry := range installed {
		result = append(result, entry.pkg)
	}
	return result, nil
}

// ExplicitlyInstalled lists packages whose install reason is not "dependency".
func (source *DatabaseSource) ExplicitlyInstalled(executionContext context.Context) ([]packages.Package, error) {
	installed, readError := source.readLocal(executionContext)
	if readError != nil {
		return nil, readError
	}

	var result []packages.Package
	for _, entry := range installed {
		if !entry.dependency {
			result = append(result, entry.pkg)
		}
	}
	return result, nil
}

func (source *DatabaseSource) readLocal(executionContext context.Context) ([]installedPackage, error) {
	entries, readDirectoryError := fs.ReadDir(source.database, localDatabaseDirectoryConstant)
	if readDirectoryError != nil {
		return nil, fmt.Errorf(databaseReadErrorTemplateConstant, path.Join(source.root, localDatabaseDirectoryConstant), readDirectoryError)
	}

	installed := make([]installedPackage, 0, len(entries))
	for _, entry := range entries {
		if contextError := executionContext.Err(); contextError != nil {
			return nil, contextError
		}
		if !entry.IsDir() {
			continue
		}

		descriptionPath := path.Join(localDatabaseDirectoryConstant, entry.Name(), descriptionFileNameConstant)
		content, readError := fs.ReadFile(source.database, descriptionPath)
		if readError != nil {
			return nil, fmt.Errorf(descriptionErrorTemplateConstant, path.Join(source.root, descriptionPath), readError)
		}

		description, parseError := parseDescription(content)
		if parseError != nil {
			return nil, fmt.Errorf(descriptionErrorTemplateConstant, path.Join(source.root, descriptionPath), parseError)
		}
		installed = append(installed, description)
	}
	return installed, nil
}

func parseDescription(content []byte) (installedPackage, error) {
	var (
		name           string
		reason         string
		currentSection string
	)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case len(line) == 0:
			currentSection = ""
		case strings.HasPrefix(line, sectionMarkerConstant) && strings.HasSuffix(line, sectionMarkerConstant):
			currentSection = line
		case currentSection == nameSectionConstant && len(name) == 0:
			name = line
		case currentSection == reasonSectionConstant && len(reason) == 0:
			reason = line
		}
	}
	if scanError := scanner.Err(); scanError != nil {
		return installedPackage{}, scanError
	}

	if len(name) == 0 {
		return installedPackage{}, errDescriptionNameMissing
	}

	pkg, parseError := packages.Parse(name)
	if parseError != nil {
		return installedPackage{}, parseError
	}
	return installedPackage{pkg: pkg, dependency: reason == dependencyReasonConstant}, nil
}

// ResolveDatabasePath returns the configured database path, else DBPath from pacman.conf, else /var/lib/pacman.
func ResolveDatabasePath(configuration Configuration, readFile func(string) ([]byte, error)) (string, error) {
	if configured := strings.TrimSpace(configuration.DatabasePath); len(configured) > 0 {
		return configured, nil
	}

	configurationPath := strings.TrimSpace(configuration.PacmanConfiguration)
	if len(configurationPath) == 0 {
		return defaultDatabasePathConstant, nil
	}
	if readFile == nil {
		readFile = os.ReadFile
	}

	content, readError := readFile(configurationPath)
	if errors.Is(readError, fs.ErrNotExist) {
		return defaultDatabasePathConstant, nil
	}
	if readError != nil {
		return "", fmt.Errorf(configurationReadTemplateConstant, configurationPath, readError)
	}

	if databasePath, found := databasePathFromConfiguration(content); found {
		return databasePath, nil
	}
	return defaultDatabasePathConstant, nil
}

func databasePathFromConfiguration(content []byte) (string, bool) {
	inOptions := false
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), configurationCommentMarkerConstant)
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if strings.HasPrefix(line, sectionPrefixConstant) {
			inOptions = line == optionsSectionConstant
			continue
		}
		if !inOptions {
			continue
		}

		key, value, hasValue := strings.Cut(line, configurationAssignmentConstant)
		if hasValue && strings.TrimSpace(key) == databasePathOptionConstant {
			if databasePath := strings.TrimSpace(value); len(databasePath) > 0 {
				return databasePath, true
			}
		}
	}
	return "", false
}
