package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

const lineTemplateConstant = "%s\n"

// Palette styles console output. The zero value prints plain text.
type Palette struct {
	heading  *color.Color
	item     *color.Color
	group    *color.Color
	progress *color.Color
	warning  *color.Color
	failure  *color.Color
}

// NewPalette builds a palette. Colour is applied only when enabled is true.
func NewPalette(enabled bool) Palette {
	palette := Palette{
		heading:  color.New(color.Bold),
		item:     color.New(color.FgGreen),
		group:    color.New(color.FgCyan),
		progress: color.New(color.FgBlue, color.Bold),
		warning:  color.New(color.FgHiMagenta),
		failure:  color.New(color.FgRed),
	}
	for _, style := range []*color.Color{palette.heading, palette.item, palette.group, palette.progress, palette.warning, palette.failure} {
		if enabled {
			style.EnableColor()
		} else {
			style.DisableColor()
		}
	}
	return palette
}

// NewTerminalPalette enables colour unless fatih/color detected a non-terminal output or NO_COLOR.
func NewTerminalPalette() Palette {
	return NewPalette(!color.NoColor)
}

// Heading renders a section title.
func (palette Palette) Heading(text string) string {
	return render(palette.heading, text)
}

// Item renders a package reference.
func (palette Palette) Item(text string) string {
	return render(palette.item, text)
}

// Group renders a group name.
func (palette Palette) Group(text string) string {
	return render(palette.group, text)
}

// Progress renders a progress notice.
func (palette Palette) Progress(text string) string {
	return render(palette.progress, text)
}

// Warning renders a recoverable problem.
func (palette Palette) Warning(text string) string {
	return render(palette.warning, text)
}

// Failure renders an error.
func (palette Palette) Failure(text string) string {
	return render(palette.failure, text)
}

// PrintLine writes text followed by a newline.
func PrintLine(writer io.Writer, text string) {
	fmt.Fprintf(writer, lineTemplateConstant, text)
}

func render(style *color.Color, text string) string {
	if style == nil {
		return text
	}
	return style.Sprint(text)
}
