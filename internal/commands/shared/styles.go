// Copyright 2026 The DataMate-Ops Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

import (
	"github.com/charmbracelet/lipgloss"
)

// Terminal styles for dmops output. Colors are adaptive so run reports
// and validation summaries stay readable on light and dark backgrounds.
var (
	// StatusOK marks samples that produced artifacts and valid bundles.
	StatusOK = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"})

	// StatusWarn marks partial results, like a batch with some failures.
	StatusWarn = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "130", Dark: "214"})

	// StatusError marks failed samples, invalid bundles, and fatal faults.
	StatusError = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "124", Dark: "196"})

	// Muted dims secondary detail such as keys in key/value listings.
	Muted = lipgloss.NewStyle().Faint(true)

	// Bold emphasizes identifiers, like parameter names in 'dmops show'.
	Bold = lipgloss.NewStyle().Bold(true)
)

// Status glyphs prefixed to report lines.
const (
	SymbolOK    = "✓"
	SymbolWarn  = "⚠"
	SymbolError = "✗"
	SymbolInfo  = "•"
)

func glyph(style lipgloss.Style, symbol, msg string) string {
	return style.Render(symbol) + " " + msg
}

// RenderOK prefixes msg with a check mark.
func RenderOK(msg string) string {
	return glyph(StatusOK, SymbolOK, msg)
}

// RenderWarn prefixes msg with a warning sign.
func RenderWarn(msg string) string {
	return glyph(StatusWarn, SymbolWarn, msg)
}

// RenderError prefixes msg with a cross.
func RenderError(msg string) string {
	return glyph(StatusError, SymbolError, msg)
}

// RenderLabel dims a key in "key: value" listings.
func RenderLabel(label string) string {
	return Muted.Render(label)
}
