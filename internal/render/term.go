/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"magicscribe/internal/markup"
)

// TermOptions controls the terminal preview.
type TermOptions struct {
	Width int  // wrap width; 0 means 80
	Color bool // false strips all ANSI styling
}

const (
	colorMuted  = lipgloss.Color("#64748b")
	colorAmber  = lipgloss.Color("#fcd34d")
	colorYellow = lipgloss.Color("#facc15")
)

// Terminal writes a styled preview of blocks, one block per paragraph.
func Terminal(w io.Writer, blocks []Block, opts TermOptions) error {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	r := lipgloss.NewRenderer(w)
	if opts.Color {
		r.SetColorProfile(termenv.TrueColor)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	t := termView{r: r, width: opts.Width}
	for _, b := range blocks {
		if _, err := fmt.Fprintln(w, t.block(b)); err != nil {
			return err
		}
	}
	return nil
}

type termView struct {
	r     *lipgloss.Renderer
	width int
}

func (t termView) style() lipgloss.Style { return t.r.NewStyle() }

func (t termView) block(b Block) string {
	switch b.Kind {
	case KindConversation:
		return t.conversation(b)
	case KindEmptyConversation, KindEmptyDialogue:
		return t.style().Italic(true).Foreground(colorMuted).Render(b.Placeholder)
	case KindEvent:
		return t.event(b)
	case KindPlain:
		return t.style().Italic(true).Foreground(colorMuted).Width(t.width).Render(b.Text)
	case KindSfx:
		return t.style().Bold(true).Foreground(colorYellow).Render(strings.ToUpper(b.Text))
	case KindShake:
		return t.style().Bold(true).Render("~ " + b.Text + " ~")
	case KindSystem:
		return t.style().Bold(true).Foreground(colorAmber).
			Border(lipgloss.RoundedBorder()).BorderForeground(colorAmber).Padding(0, 1).
			Render(b.Icon + " " + strings.ToUpper(b.Text))
	case KindDialogue:
		return t.bubble(b.Speaker, b.Initial, b.Text, *b.Palette, true)
	default:
		return t.style().Width(t.width).Render(b.Text)
	}
}

func (t termView) conversation(b Block) string {
	names := make([]string, 0, len(b.Participants))
	for _, p := range b.Participants {
		names = append(names, t.style().Bold(true).Foreground(lipgloss.Color(p.Palette.Hex)).Render(p.Name))
	}
	rows := []string{"💬 " + strings.Join(names, ", ")}
	for _, turn := range b.Turns {
		if turn.Empty {
			rows = append(rows, t.style().Italic(true).Foreground(colorMuted).Render(turn.Placeholder))
			continue
		}
		rows = append(rows, t.bubble(turn.Speaker, turn.Initial, turn.Text, turn.Palette, turn.ShowAvatar))
	}
	return t.style().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (t termView) bubble(speaker, initial, text string, p Palette, showAvatar bool) string {
	c := lipgloss.Color(p.Hex)
	avatar := "   "
	if showAvatar {
		avatar = t.style().Bold(true).Foreground(c).Render("(" + initial + ")")
	}
	var body []string
	if showAvatar {
		body = append(body, t.style().Bold(true).Foreground(c).Render(speaker))
	}
	body = append(body, t.style().Border(lipgloss.RoundedBorder()).BorderForeground(c).Padding(0, 1).
		Width(max(t.width-12, 20)).Render(text))
	return lipgloss.JoinHorizontal(lipgloss.Top, avatar, " ", lipgloss.JoinVertical(lipgloss.Left, body...))
}

func (t termView) event(b Block) string {
	c := colorMuted
	if spec, ok := markup.LookupEvent(b.EventType); ok {
		c = lipgloss.Color(CategoryHex(spec.Category))
	}
	text := b.Text
	if b.Placeholder != "" {
		text = b.Placeholder
	}
	return t.style().Foreground(c).Border(lipgloss.ThickBorder()).BorderForeground(c).Padding(0, 1).
		Width(t.width - 4).Render(b.Icon + " " + text)
}
