package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/temirov/pacdef/internal/groups"
	"github.com/temirov/pacdef/internal/packages"
	"github.com/temirov/pacdef/internal/prompt"
	"github.com/temirov/pacdef/internal/ui"
)

const (
	actionPromptConstant              = "assign to (g)roup, (d)elete, (s)kip, (i)nfo, (a)s dependency, (q)uit? "
	groupPromptConstant               = "Group or (c)ancel? "
	confirmPromptConstant             = "Confirm? [y, n] "
	unmanagedHeadingConstant          = "Unmanaged packages:"
	nothingToDoMessageConstant        = "nothing to do"
	enumeratedGroupTemplateConstant   = "%*d: %s"
	listItemTemplateConstant          = "  %s"
	cancelTokenConstant               = "c"
	abortedMessageConstant            = "review aborted by operator"
	managerMissingMessageConstant     = "package manager not configured"
	appenderMissingMessageConstant    = "group appender not configured"
	prompterMissingMessageConstant    = "operator prompter not configured"
	removeErrorTemplateConstant       = "unable to delete packages: %w"
	appendErrorTemplateConstant       = "unable to assign %s to group %s: %w"
	asDependencyErrorTemplateConstant = "unable to mark packages as dependencies: %w"
	infoErrorTemplateConstant         = "unable to show information for %s: %w"
	interruptedErrorTemplateConstant  = "%w: %w"
	noGroupsWarningMessageConstant    = "no groups loaded; create a group before assigning packages"
	reviewQuitInfoMessageConstant     = "review stopped by operator, nothing applied"
	reviewAppliedInfoMessageConstant  = "review applied"
	logFieldDeletedCountConstant      = "deleted"
	logFieldAssignedCountConstant     = "assigned"
	logFieldAsDependencyCountConstant = "as_dependency"
)

const (
	actionKeyAssignConstant       byte = 'g'
	actionKeyDeleteConstant       byte = 'd'
	actionKeySkipConstant         byte = 's'
	actionKeyInfoConstant         byte = 'i'
	actionKeyAsDependencyConstant byte = 'a'
	actionKeyQuitConstant         byte = 'q'
	confirmKeyYesConstant         byte = 'y'
	confirmKeyNoConstant          byte = 'n'
)

// ErrAborted indicates that the operator declined to apply the reviewed decisions.
var ErrAborted = errors.New(abortedMessageConstant)

var (
	errManagerMissing  = errors.New(managerMissingMessageConstant)
	errAppenderMissing = errors.New(appenderMissingMessageConstant)
	errPrompterMissing = errors.New(prompterMissingMessageConstant)
)

// Result describes how a review ended when no error occurred.
type Result int

// Review results.
const (
	ResultNothingToDo Result = iota
	ResultQuit
	ResultApplied
)

// OperatorPrompter reads single key presses and whole lines from the operator.
type OperatorPrompter interface {
	ReadCharacter(promptText string) (byte, error)
	ReadLine(promptText string) (string, error)
}

// PackageManager performs the side effects a review can request.
type PackageManager interface {
	Remove(executionContext context.Context, targets []packages.Package) error
	ShowInfo(executionContext context.Context, target packages.Package) error
	MarkAsDependency(executionContext context.Context, targets []packages.Package) error
}

// GroupAppender persists a package into a group.
type GroupAppender interface {
	Append(group *groups.Group, pkg packages.Package) error
}

// ReviewerDependencies describes the collaborators of Reviewer.
type ReviewerDependencies struct {
	Logger   *zap.Logger
	Manager  PackageManager
	Appender GroupAppender
	Prompter OperatorPrompter
	Output   io.Writer
	Palette  ui.Palette
}

// Reviewer runs the interactive review.
type Reviewer struct {
	logger   *zap.Logger
	manager  PackageManager
	appender GroupAppender
	prompter OperatorPrompter
	output   io.Writer
	palette  ui.Palette
}

type step int

const (
	stepRepeat step = iota
	stepAdvance
	stepQuit
)

type session struct {
	reviewer *Reviewer
	groups   []*groups.Group
	reviews  []Review
}

// actionHandler performs what one action key asks for on the package under review.
type actionHandler interface {
	handle(executionContext context.Context, current *session, pkg packages.Package) (step, error)
}

type recordHandler struct {
	action Action
}

type assignHandler struct{}

type infoHandler struct{}

type quitHandler struct{}

// NewReviewer validates dependencies and constructs a Reviewer.
func NewReviewer(dependencies ReviewerDependencies) (*Reviewer, error) {
	if dependencies.Manager == nil {
		return nil, errManagerMissing
	}
	if dependencies.Appender == nil {
		return nil, errAppenderMissing
	}
	if dependencies.Prompter == nil {
		return nil, errPrompterMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	output := dependencies.Output
	if output == nil {
		output = io.Discard
	}

	return &Reviewer{
		logger:   logger,
		manager:  dependencies.Manager,
		appender: dependencies.Appender,
		prompter: dependencies.Prompter,
		output:   output,
		palette:  dependencies.Palette,
	}, nil
}

// Run asks for a decision on every unmanaged package, then confirms and applies them.
// Declining the confirmation returns ErrAborted.
func (reviewer *Reviewer) Run(executionContext context.Context, unmanaged []packages.Package, loaded []*groups.Group) (Result, error) {
	if len(unmanaged) == 0 {
		ui.PrintLine(reviewer.output, nothingToDoMessageConstant)
		return ResultNothingToDo, nil
	}

	reviewer.printUnmanaged(unmanaged)

	current := &session{reviewer: reviewer, groups: loaded}
	for _, pkg := range unmanaged {
		ui.PrintLine(reviewer.output, reviewer.palette.Item(pkg.String()))
		outcome, reviewError := current.reviewPackage(executionContext, pkg)
		if reviewError != nil {
			return ResultNothingToDo, reviewError
		}
		if outcome == stepQuit {
			reviewer.logger.Info(reviewQuitInfoMessageConstant)
			return ResultQuit, nil
		}
	}

	strategy := NewStrategy(current.reviews)
	if strategy.IsEmpty() {
		ui.PrintLine(reviewer.output, nothingToDoMessageConstant)
		return ResultNothingToDo, nil
	}

	strategy.Describe(reviewer.output, reviewer.palette)
	confirmed, confirmError := reviewer.confirm(executionContext)
	if confirmError != nil {
		return ResultNothingToDo, confirmError
	}
	if !confirmed {
		return ResultNothingToDo, ErrAborted
	}
	if interruptError := interruption(executionContext); interruptError != nil {
		return ResultNothingToDo, interruptError
	}

	if executionError := reviewer.execute(executionContext, strategy); executionError != nil {
		return ResultNothingToDo, executionError
	}
	reviewer.logger.Info(
		reviewAppliedInfoMessageConstant,
		zap.Int(logFieldDeletedCountConstant, len(strategy.Delete)),
		zap.Int(logFieldAssignedCountConstant, len(strategy.Assign)),
		zap.Int(logFieldAsDependencyCountConstant, len(strategy.AsDependency)),
	)
	return ResultApplied, nil
}

func (reviewer *Reviewer) printUnmanaged(unmanaged []packages.Package) {
	ui.PrintLine(reviewer.output, reviewer.palette.Heading(unmanagedHeadingConstant))
	for _, pkg := range unmanaged {
		ui.PrintLine(reviewer.output, fmt.Sprintf(listItemTemplateConstant, pkg.String()))
	}
	ui.PrintLine(reviewer.output, "")
}

func (reviewer *Reviewer) confirm(executionContext context.Context) (bool, error) {
	for {
		key, readError := reviewer.readCharacter(executionContext, confirmPromptConstant)
		if readError != nil {
			return false, readError
		}
		switch normalizeKey(key) {
		case confirmKeyYesConstant:
			return true, nil
		case confirmKeyNoConstant:
			return false, nil
		}
	}
}

// execute removes first, then appends to groups, then marks dependencies. The first failure stops the run.
func (reviewer *Reviewer) execute(executionContext context.Context, strategy Strategy) error {
	if len(strategy.Delete) > 0 {
		if removeError := reviewer.manager.Remove(executionContext, strategy.Delete); removeError != nil {
			return fmt.Errorf(removeErrorTemplateConstant, removeError)
		}
	}

	for _, assignment := range strategy.Assign {
		if appendError := reviewer.appender.Append(assignment.Group, assignment.Package); appendError != nil {
			return fmt.Errorf(appendErrorTemplateConstant, assignment.Package, assignment.Group.Name(), appendError)
		}
	}

	if len(strategy.AsDependency) > 0 {
		if markError := reviewer.manager.MarkAsDependency(executionContext, strategy.AsDependency); markError != nil {
			return fmt.Errorf(asDependencyErrorTemplateConstant, markError)
		}
	}
	return nil
}

// readCharacter reads in raw mode on a terminal, so it is not abandoned mid-read; the context is checked around it.
func (reviewer *Reviewer) readCharacter(executionContext context.Context, promptText string) (byte, error) {
	if interruptError := interruption(executionContext); interruptError != nil {
		return 0, interruptError
	}
	key, readError := reviewer.prompter.ReadCharacter(promptText)
	if interruptError := interruption(executionContext); interruptError != nil {
		return 0, interruptError
	}
	return key, readError
}

// readLine returns as soon as the context is cancelled, leaving the pending read behind.
func (reviewer *Reviewer) readLine(executionContext context.Context, promptText string) (string, error) {
	if interruptError := interruption(executionContext); interruptError != nil {
		return "", interruptError
	}

	type lineReply struct {
		line string
		err  error
	}
	replies := make(chan lineReply, 1)
	go func() {
		line, readError := reviewer.prompter.ReadLine(promptText)
		replies <- lineReply{line: line, err: readError}
	}()

	select {
	case <-executionContext.Done():
		ui.PrintLine(reviewer.output, "")
		return "", interruption(executionContext)
	case reply := <-replies:
		if interruptError := interruption(executionContext); interruptError != nil {
			return "", interruptError
		}
		return reply.line, reply.err
	}
}

// interruption reports a cancelled context as prompt.ErrInterrupted.
func interruption(executionContext context.Context) error {
	if causeError := executionContext.Err(); causeError != nil {
		return fmt.Errorf(interruptedErrorTemplateConstant, prompt.ErrInterrupted, causeError)
	}
	return nil
}

func (current *session) reviewPackage(executionContext context.Context, pkg packages.Package) (step, error) {
	for {
		key, readError := current.reviewer.readCharacter(executionContext, actionPromptConstant)
		if readError != nil {
			return stepRepeat, readError
		}

		handler, known := handlerForKey(normalizeKey(key))
		if !known {
			continue
		}

		outcome, handleError := handler.handle(executionContext, current, pkg)
		if handleError != nil {
			return stepRepeat, handleError
		}
		if outcome != stepRepeat {
			return outcome, nil
		}
	}
}

func (current *session) record(action Action, pkg packages.Package, group *groups.Group) {
	current.reviews = append(current.reviews, Review{Action: action, Package: pkg, Group: group})
}

// chooseGroup returns false when the operator cancels.
func (current *session) chooseGroup(executionContext context.Context) (*groups.Group, bool, error) {
	reviewer := current.reviewer
	width := len(strconv.Itoa(len(current.groups) - 1))
	for index, group := range current.groups {
		ui.PrintLine(reviewer.output, fmt.Sprintf(enumeratedGroupTemplateConstant, width, index, reviewer.palette.Group(group.Name())))
	}

	for {
		reply, readError := reviewer.readLine(executionContext, groupPromptConstant)
		if readError != nil {
			return nil, false, readError
		}

		trimmedReply := strings.ToLower(strings.TrimSpace(reply))
		if trimmedReply == cancelTokenConstant {
			return nil, false, nil
		}

		index, conversionError := strconv.Atoi(trimmedReply)
		if conversionError == nil && index >= 0 && index < len(current.groups) {
			return current.groups[index], true, nil
		}
	}
}

func handlerForKey(key byte) (actionHandler, bool) {
	switch key {
	case actionKeyAssignConstant:
		return assignHandler{}, true
	case actionKeyDeleteConstant:
		return recordHandler{action: ActionDelete}, true
	case actionKeySkipConstant:
		return recordHandler{action: ActionSkip}, true
	case actionKeyInfoConstant:
		return infoHandler{}, true
	case actionKeyAsDependencyConstant:
		return recordHandler{action: ActionAsDependency}, true
	case actionKeyQuitConstant:
		return quitHandler{}, true
	default:
		return nil, false
	}
}

func (handler recordHandler) handle(_ context.Context, current *session, pkg packages.Package) (step, error) {
	current.record(handler.action, pkg, nil)
	return stepAdvance, nil
}

func (assignHandler) handle(executionContext context.Context, current *session, pkg packages.Package) (step, error) {
	if len(current.groups) == 0 {
		current.reviewer.logger.Warn(noGroupsWarningMessageConstant)
		return stepRepeat, nil
	}

	group, chosen, chooseError := current.chooseGroup(executionContext)
	if chooseError != nil {
		return stepRepeat, chooseError
	}
	if !chosen {
		return stepRepeat, nil
	}
	current.record(ActionAssignToGroup, pkg, group)
	return stepAdvance, nil
}

func (infoHandler) handle(executionContext context.Context, current *session, pkg packages.Package) (step, error) {
	if infoError := current.reviewer.manager.ShowInfo(executionContext, pkg); infoError != nil {
		return stepRepeat, fmt.Errorf(infoErrorTemplateConstant, pkg, infoError)
	}
	return stepRepeat, nil
}

func (quitHandler) handle(context.Context, *session, packages.Package) (step, error) {
	return stepQuit, nil
}

// normalizeKey makes action and confirmation keys case-insensitive.
func normalizeKey(key byte) byte {
	return byte(unicode.ToLower(rune(key)))
}
