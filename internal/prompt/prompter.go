package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// InterruptByte is the control character produced by Ctrl+C in raw mode.
const InterruptByte byte = 0x03

const (
	newlineByteConstant          byte = '\n'
	carriageReturnByteConstant   byte = '\r'
	affirmativeLowerByteConstant byte = 'y'
	affirmativeUpperByteConstant byte = 'Y'
)

const (
	interruptedMessageConstant   = "interrupted by operator"
	inputClosedMessageConstant   = "operator input closed"
	rawModeErrorTemplateConstant = "unable to switch terminal to raw mode: %w"
	restoreErrorTemplateConstant = "unable to restore terminal state: %w"
	readErrorTemplateConstant    = "unable to read operator input: %w"
	echoTemplateConstant         = "%c\n"
	continuePromptConstant       = "Continue? [Y/n] "
	lineTerminatorsConstant      = "\r\n"
)

var (
	// ErrInterrupted indicates the operator pressed Ctrl+C while a key press was expected.
	ErrInterrupted = errors.New(interruptedMessageConstant)
	// ErrInputClosed indicates the input stream ended before an answer was read.
	ErrInputClosed = errors.New(inputClosedMessageConstant)
)

// TerminalPrompter reads single key presses and whole lines from the operator.
type TerminalPrompter struct {
	input              io.Reader
	output             io.Writer
	lineReader         *bufio.Reader
	terminalDescriptor int
	rawModeAvailable   bool
}

// NewTerminalPrompter constructs a prompter over a terminal file. Raw mode is used only when input is a terminal.
func NewTerminalPrompter(input *os.File, output io.Writer) *TerminalPrompter {
	if input == nil {
		return NewIOPrompter(nil, output)
	}
	prompter := NewIOPrompter(input, output)
	if term.IsTerminal(int(input.Fd())) {
		prompter.terminalDescriptor = int(input.Fd())
		prompter.rawModeAvailable = true
	}
	return prompter
}

// NewIOPrompter constructs a line-oriented prompter over arbitrary streams.
func NewIOPrompter(input io.Reader, output io.Writer) *TerminalPrompter {
	if input == nil {
		input = strings.NewReader("")
	}
	if output == nil {
		output = io.Discard
	}
	return &TerminalPrompter{input: input, output: output, lineReader: bufio.NewReader(input)}
}

// ReadCharacter writes prompt and returns one character. Enter is reported as '\n'.
func (prompter *TerminalPrompter) ReadCharacter(prompt string) (byte, error) {
	if _, writeError := io.WriteString(prompter.output, prompt); writeError != nil {
		return 0, writeError
	}

	if !prompter.rawModeAvailable {
		return prompter.readCharacterFromLine()
	}

	character, readError := prompter.readRawCharacter()
	if readError != nil {
		return 0, readError
	}
	if character == carriageReturnByteConstant {
		character = newlineByteConstant
	}
	if character == InterruptByte {
		fmt.Fprintln(prompter.output)
		return 0, ErrInterrupted
	}

	if character == newlineByteConstant {
		fmt.Fprintln(prompter.output)
	} else {
		fmt.Fprintf(prompter.output, echoTemplateConstant, character)
	}
	return character, nil
}

// ReadLine writes prompt and returns the entered line without its trailing newline.
func (prompter *TerminalPrompter) ReadLine(prompt string) (string, error) {
	if _, writeError := io.WriteString(prompter.output, prompt); writeError != nil {
		return "", writeError
	}

	line, readError := prompter.lineReader.ReadString(newlineByteConstant)
	if readError != nil {
		if !errors.Is(readError, io.EOF) {
			return "", fmt.Errorf(readErrorTemplateConstant, readError)
		}
		if len(line) == 0 {
			return "", ErrInputClosed
		}
	}
	return strings.TrimRight(line, lineTerminatorsConstant), nil
}

// Confirm asks "Continue? [Y/n] ". Enter and y continue; any other key declines.
func (prompter *TerminalPrompter) Confirm() (bool, error) {
	answer, readError := prompter.ReadCharacter(continuePromptConstant)
	if readError != nil {
		return false, readError
	}
	switch answer {
	case newlineByteConstant, affirmativeLowerByteConstant, affirmativeUpperByteConstant:
		return true, nil
	default:
		return false, nil
	}
}

func (prompter *TerminalPrompter) readCharacterFromLine() (byte, error) {
	line, readError := prompter.lineReader.ReadString(newlineByteConstant)
	if readError != nil {
		if !errors.Is(readError, io.EOF) {
			return 0, fmt.Errorf(readErrorTemplateConstant, readError)
		}
		if len(line) == 0 {
			return 0, ErrInputClosed
		}
	}

	trimmedLine := strings.TrimRight(line, lineTerminatorsConstant)
	if len(trimmedLine) == 0 {
		return newlineByteConstant, nil
	}
	if trimmedLine[0] == InterruptByte {
		return 0, ErrInterrupted
	}
	return trimmedLine[0], nil
}

func (prompter *TerminalPrompter) readRawCharacter() (byte, error) {
	previousState, rawModeError := term.MakeRaw(prompter.terminalDescriptor)
	if rawModeError != nil {
		return 0, fmt.Errorf(rawModeErrorTemplateConstant, rawModeError)
	}

	buffer := make([]byte, 1)
	_, readError := io.ReadFull(prompter.input, buffer)

	if restoreError := term.Restore(prompter.terminalDescriptor, previousState); restoreError != nil {
		return 0, fmt.Errorf(restoreErrorTemplateConstant, restoreError)
	}
	if readError != nil {
		if errors.Is(readError, io.EOF) {
			return 0, ErrInputClosed
		}
		return 0, fmt.Errorf(readErrorTemplateConstant, readError)
	}
	return buffer[0], nil
}
