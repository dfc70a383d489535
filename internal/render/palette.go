/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"strings"
	"unicode/utf16"
)

// Palette is the visual identity assigned to a speaker.
type Palette struct {
	Name      string `json:"name"`
	Bg        string `json:"bg"`
	Border    string `json:"border"`
	Text      string `json:"text"`
	Ring      string `json:"ring"`
	Bubble    string `json:"bubble"`
	TailColor string `json:"tail_color"`
	// Hex is the terminal foreground used by the lipgloss preview.
	Hex string `json:"hex"`
}

// Chip is the bubble class at the stronger opacity used for participant chips.
func (p Palette) Chip() string { return strings.Replace(p.Bubble, "/30", "/40", 1) }

var palettes = [...]Palette{
	{"blue", "from-blue-500 to-cyan-600", "border-blue-500/60", "text-blue-300", "ring-blue-400/50", "bg-blue-600/30", "rgba(37, 99, 235, 0.3)", "#2563eb"},
	{"purple", "from-purple-500 to-pink-600", "border-purple-500/60", "text-purple-300", "ring-purple-400/50", "bg-purple-600/30", "rgba(147, 51, 234, 0.3)", "#9333ea"},
	{"green", "from-green-500 to-emerald-600", "border-green-500/60", "text-green-300", "ring-green-400/50", "bg-green-600/30", "rgba(34, 197, 94, 0.3)", "#22c55e"},
	{"orange", "from-orange-500 to-red-600", "border-orange-500/60", "text-orange-300", "ring-orange-400/50", "bg-orange-600/30", "rgba(249, 115, 22, 0.3)", "#f97316"},
	{"yellow", "from-yellow-500 to-amber-600", "border-yellow-500/60", "text-yellow-300", "ring-yellow-400/50", "bg-yellow-600/30", "rgba(234, 179, 8, 0.3)", "#eab308"},
	{"indigo", "from-indigo-500 to-violet-600", "border-indigo-500/60", "text-indigo-300", "ring-indigo-400/50", "bg-indigo-600/30", "rgba(99, 102, 241, 0.3)", "#6366f1"},
	{"teal", "from-teal-500 to-cyan-600", "border-teal-500/60", "text-teal-300", "ring-teal-400/50", "bg-teal-600/30", "rgba(20, 184, 166, 0.3)", "#14b8a6"},
	{"rose", "from-rose-500 to-pink-600", "border-rose-500/60", "text-rose-300", "ring-rose-400/50", "bg-rose-600/30", "rgba(244, 63, 94, 0.3)", "#f43f5e"},
}

// Palettes returns the fixed palette list in index order.
func Palettes() []Palette {
	out := make([]Palette, len(palettes))
	copy(out, palettes[:])
	return out
}

// SpeakerHash is the rolling hash h = c + ((h << 5) - h) over UTF-16 code
// units. Only the shifted term wraps at 32 bits; the sum itself does not, so
// the result stays identical to what the web reader computes.
func SpeakerHash(name string) int64 {
	var h int64
	for _, c := range utf16.Encode([]rune(name)) {
		h = int64(c) + (int64(int32(h)<<5) - h)
	}
	return h
}

// ColorIndex maps a speaker name to its palette slot.
func ColorIndex(name string) int {
	h := SpeakerHash(name)
	if h < 0 {
		h = -h
	}
	return int(h % int64(len(palettes)))
}

// ColorOf returns the palette for a speaker. It is pure: the same name always
// yields the same palette.
func ColorOf(name string) Palette {
	return palettes[ColorIndex(name)]
}
