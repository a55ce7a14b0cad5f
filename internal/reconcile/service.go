package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/pacdef/internal/groups"
	"github.com/temirov/pacdef/internal/packages"
	"github.com/temirov/pacdef/internal/ui"
	"github.com/temirov/pacdef/internal/utils/flags"
)

const (
	nothingToDoMessageConstant          = "nothing to do"
	installHeadingConstant              = "Would install the following packages:"
	removeHeadingConstant               = "Would remove the following packages and their dependencies:"
	itemIndentConstant                  = "  "
	sourceMissingMessageConstant        = "installed state source not configured"
	managerMissingMessageConstant       = "package manager not configured"
	confirmerMissingMessageConstant     = "confirmation prompter not configured"
	installedQueryErrorTemplateConstant = "unable to list installed packages: %w"
	explicitQueryErrorTemplateConstant  = "unable to list explicitly installed packages: %w"
	confirmationErrorTemplateConstant   = "unable to read confirmation: %w"
	noManagedPackagesWarningConstant    = "no packages are declared in any group"
	operatorDeclinedInfoMessageConstant = "operator declined, leaving the system unchanged"
	dryRunInfoMessageConstant           = "dry run, leaving the system unchanged"
	applyingPlanDebugMessageConstant    = "applying plan"
	logFieldPackageCountConstant        = "package_count"
	logFieldOperationConstant           = "operation"
	installOperationNameConstant        = "install"
	removeOperationNameConstant         = "remove"
)

// Outcome describes how a sync or clean run ended.
type Outcome int

// Outcomes of Sync and Clean.
const (
	OutcomeNothingToDo Outcome = iota
	OutcomeDryRun
	OutcomeDeclined
	OutcomeApplied
)

var (
	errSourceMissing    = errors.New(sourceMissingMessageConstant)
	errManagerMissing   = errors.New(managerMissingMessageConstant)
	errConfirmerMissing = errors.New(confirmerMissingMessageConstant)
)

// InstalledStateSource answers what is installed on the system.
type InstalledStateSource interface {
	AllInstalled(executionContext context.Context) ([]packages.Package, error)
	ExplicitlyInstalled(executionContext context.Context) ([]packages.Package, error)
}

// PackageManager installs and removes packages in batches.
type PackageManager interface {
	Install(executionContext context.Context, targets []packages.Package) error
	Remove(executionContext context.Context, targets []packages.Package) error
}

// Confirmer asks the operator whether to proceed.
type Confirmer interface {
	Confirm() (bool, error)
}

// ServiceDependencies describes the collaborators of Service.
type ServiceDependencies struct {
	Logger    *zap.Logger
	Source    InstalledStateSource
	Manager   PackageManager
	Confirmer Confirmer
	Output    io.Writer
	Palette   ui.Palette
}

// Service plans and applies the difference between declared and installed packages.
type Service struct {
	logger    *zap.Logger
	source    InstalledStateSource
	manager   PackageManager
	confirmer Confirmer
	output    io.Writer
	palette   ui.Palette
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Source == nil {
		return nil, errSourceMissing
	}
	if dependencies.Manager == nil {
		return nil, errManagerMissing
	}
	if dependencies.Confirmer == nil {
		return nil, errConfirmerMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	output := dependencies.Output
	if output == nil {
		output = io.Discard
	}

	return &Service{
		logger:    logger,
		source:    dependencies.Source,
		manager:   dependencies.Manager,
		confirmer: dependencies.Confirmer,
		output:    output,
		palette:   dependencies.Palette,
	}, nil
}

// Sync installs every declared package that is missing.
func (service *Service) Sync(executionContext context.Context, loaded []*groups.Group, options flags.ExecutionFlags) (Outcome, error) {
	managed := service.managed(loaded)
	installed, queryError := service.source.AllInstalled(executionContext)
	if queryError != nil {
		return OutcomeNothingToDo, fmt.Errorf(installedQueryErrorTemplateConstant, queryError)
	}

	plan := PackagesToInstall(managed, installed)
	return service.apply(executionContext, installOperationNameConstant, installHeadingConstant, plan, options, service.manager.Install)
}

// Clean removes every explicitly installed package that no group declares.
func (service *Service) Clean(executionContext context.Context, loaded []*groups.Group, options flags.ExecutionFlags) (Outcome, error) {
	plan, planError := service.Unmanaged(executionContext, loaded)
	if planError != nil {
		return OutcomeNothingToDo, planError
	}
	return service.apply(executionContext, removeOperationNameConstant, removeHeadingConstant, plan, options, service.manager.Remove)
}

// Unmanaged lists explicitly installed packages that no group declares.
func (service *Service) Unmanaged(executionContext context.Context, loaded []*groups.Group) ([]packages.Package, error) {
	managed := service.managed(loaded)
	explicitlyInstalled, queryError := service.source.ExplicitlyInstalled(executionContext)
	if queryError != nil {
		return nil, fmt.Errorf(explicitQueryErrorTemplateConstant, queryError)
	}
	return UnmanagedPackages(managed, explicitlyInstalled), nil
}

func (service *Service) managed(loaded []*groups.Group) packages.Set {
	managed := ManagedPackages(loaded)
	if len(managed) == 0 {
		service.logger.Warn(noManagedPackagesWarningConstant)
	}
	return managed
}

func (service *Service) apply(
	executionContext context.Context,
	operation string,
	heading string,
	plan []packages.Package,
	options flags.ExecutionFlags,
	action func(context.Context, []packages.Package) error,
) (Outcome, error) {
	if len(plan) == 0 {
		ui.PrintLine(service.output, nothingToDoMessageConstant)
		return OutcomeNothingToDo, nil
	}

	ui.PrintLine(service.output, service.palette.Heading(heading))
	for _, pkg := range plan {
		ui.PrintLine(service.output, itemIndentConstant+service.palette.Item(pkg.String()))
	}

	if options.DryRun {
		service.logger.Info(dryRunInfoMessageConstant, zap.String(logFieldOperationConstant, operation))
		return OutcomeDryRun, nil
	}

	if !options.AssumeYes {
		ui.PrintLine(service.output, "")
		confirmed, confirmError := service.confirmer.Confirm()
		if confirmError != nil {
			return OutcomeDeclined, fmt.Errorf(confirmationErrorTemplateConstant, confirmError)
		}
		if !confirmed {
			service.logger.Info(operatorDeclinedInfoMessageConstant, zap.String(logFieldOperationConstant, operation))
			return OutcomeDeclined, nil
		}
	}

	service.logger.Debug(applyingPlanDebugMessageConstant, zap.String(logFieldOperationConstant, operation), zap.Int(logFieldPackageCountConstant, len(plan)))
	if actionError := action(executionContext, plan); actionError != nil {
		return OutcomeApplied, actionError
	}
	return OutcomeApplied, nil
}
