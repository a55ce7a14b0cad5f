package review

import (
	"fmt"
	"io"

	"github.com/temirov/pacdef/internal/groups"
	"github.com/temirov/pacdef/internal/packages"
	"github.com/temirov/pacdef/internal/ui"
)

const (
	deleteHeadingConstant          = "Will delete the following packages:"
	assignHeadingConstant          = "Will assign packages as follows:"
	asDependencyHeadingConstant    = "Will mark the following packages as installed as dependency:"
	strategyItemTemplateConstant   = "  %s"
	assignmentItemTemplateConstant = "  %s -> %s"
)

// Action is the decision recorded for one package.
type Action int

// Review actions.
const (
	ActionSkip Action = iota
	ActionDelete
	ActionAssignToGroup
	ActionAsDependency
)

// String names the action.
func (action Action) String() string {
	switch action {
	case ActionDelete:
		return "delete"
	case ActionAssignToGroup:
		return "assign to group"
	case ActionAsDependency:
		return "as dependency"
	default:
		return "skip"
	}
}

// Review is the operator's decision for one package. Group is set only for ActionAssignToGroup.
type Review struct {
	Action  Action
	Package packages.Package
	Group   *groups.Group
}

// Strategy partitions reviews by action while keeping review order inside each partition.
type Strategy struct {
	Delete       []packages.Package
	Assign       []Review
	AsDependency []packages.Package
}

// NewStrategy splits reviews into the three batches that are executed. Skips are dropped.
func NewStrategy(reviews []Review) Strategy {
	var strategy Strategy
	for _, review := range reviews {
		switch review.Action {
		case ActionDelete:
			strategy.Delete = append(strategy.Delete, review.Package)
		case ActionAssignToGroup:
			strategy.Assign = append(strategy.Assign, review)
		case ActionAsDependency:
			strategy.AsDependency = append(strategy.AsDependency, review.Package)
		}
	}
	return strategy
}

// IsEmpty reports whether every review was a skip.
func (strategy Strategy) IsEmpty() bool {
	return len(strategy.Delete) == 0 && len(strategy.Assign) == 0 && len(strategy.AsDependency) == 0
}

// Describe prints the non-empty batches.
func (strategy Strategy) Describe(output io.Writer, palette ui.Palette) {
	if len(strategy.Delete) > 0 {
		describePackages(output, palette, deleteHeadingConstant, strategy.Delete)
	}
	if len(strategy.Assign) > 0 {
		ui.PrintLine(output, "")
		ui.PrintLine(output, palette.Heading(assignHeadingConstant))
		for _, review := range strategy.Assign {
			ui.PrintLine(output, fmt.Sprintf(assignmentItemTemplateConstant, palette.Item(review.Package.String()), palette.Group(review.Group.Name())))
		}
		ui.PrintLine(output, "")
	}
	if len(strategy.AsDependency) > 0 {
		describePackages(output, palette, asDependencyHeadingConstant, strategy.AsDependency)
	}
}

func describePackages(output io.Writer, palette ui.Palette, heading string, list []packages.Package) {
	ui.PrintLine(output, "")
	ui.PrintLine(output, palette.Heading(heading))
	for _, pkg := range list {
		ui.PrintLine(output, fmt.Sprintf(strategyItemTemplateConstant, palette.Item(pkg.String())))
	}
	ui.PrintLine(output, "")
}
