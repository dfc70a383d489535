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

	"magicscribe/internal/markup"
)

// Layer is a decorative element of an event banner.
type Layer struct {
	Class    string  `json:"class"`
	Glyph    string  `json:"glyph,omitempty"`
	Echo     bool    `json:"echo,omitempty"` // repeats the event text, blurred
	Children []Layer `json:"children,omitempty"`
}

// Treatment is the fixed visual recipe for one event type.
type Treatment struct {
	Icon      string `json:"icon"`
	Container string `json:"container"`
	Style     string `json:"style,omitempty"`
	// Body wraps icon and text; empty puts them straight into the container.
	Body string `json:"body,omitempty"`
	// Span wraps only the text inside the body.
	Span     string  `json:"span,omitempty"`
	Layers   []Layer `json:"layers,omitempty"`
	Overlays []Layer `json:"overlays,omitempty"`
}

// Animation returns the first animate-* class of the container, if any.
func (t Treatment) Animation() string {
	for _, c := range strings.Fields(t.Container) {
		if strings.HasPrefix(c, "animate-") {
			return c
		}
	}
	return ""
}

const (
	banner  = "relative px-5 py-4 shadow-2xl overflow-hidden "
	bannerX = "relative px-5 py-4 shadow-xl overflow-hidden "
	bannerL = "relative px-5 py-4 shadow-lg overflow-hidden "
	body    = "relative z-10 "
)

func glyphs(glyph string, classes ...string) []Layer {
	out := make([]Layer, 0, len(classes))
	for _, c := range classes {
		out = append(out, Layer{Class: c, Glyph: glyph})
	}
	return out
}

func bars(classes ...string) []Layer {
	out := make([]Layer, 0, len(classes))
	for _, c := range classes {
		out = append(out, Layer{Class: c})
	}
	return out
}

var treatments = map[markup.EventType]Treatment{
	markup.EventPowerUp: {
		Icon:      "⚡",
		Container: banner + "bg-gradient-to-br from-yellow-900/50 via-amber-900/40 to-yellow-900/50 border-2 border-yellow-500/60 text-yellow-200 rounded-xl animate-pulse-glow",
		Body:      body + "font-semibold text-lg",
		Layers:    []Layer{{Class: "absolute inset-0 bg-gradient-to-r from-transparent via-yellow-400/30 to-transparent animate-golden-shimmer"}},
	},
	markup.EventAwaken: {
		Icon:      "💫",
		Container: banner + "bg-gradient-to-br from-blue-950/80 via-purple-950/80 to-blue-950/80 border-2 border-blue-400/70 text-blue-200 rounded-xl",
		Body:      body + "font-bold text-lg",
		Layers: []Layer{
			{Class: "absolute inset-0 animate-flash"},
			{Class: "absolute inset-0", Children: glyphs("✨",
				"absolute top-2 left-4 text-blue-400/60 text-xl animate-crack-particle",
				"absolute top-4 right-6 text-blue-400/60 text-lg animate-crack-particle-delayed",
				"absolute bottom-3 left-8 text-blue-400/60 text-xl animate-crack-particle-delayed-2",
				"absolute bottom-2 right-4 text-blue-400/60 text-lg animate-crack-particle",
			)},
		},
	},
	markup.EventBreakthrough: {
		Icon:      "📜",
		Container: banner + "bg-gradient-to-br from-emerald-900/50 via-teal-900/40 to-emerald-900/50 border-2 border-emerald-400/60 text-emerald-200 rounded-xl",
		Body:      body + "font-semibold text-lg",
		Layers: []Layer{
			{Class: "absolute inset-0 animate-scroll-effect"},
			{Class: "absolute inset-0 flex items-center justify-center", Children: glyphs("⚡",
				"text-emerald-400/20 text-6xl font-bold animate-rune-float",
				"text-emerald-400/20 text-5xl font-bold animate-rune-float-delayed absolute",
			)},
		},
	},
	markup.EventSummon: {
		Icon:      "🌀",
		Container: banner + "bg-gradient-to-br from-slate-900/90 via-purple-900/50 to-slate-900/90 border-2 border-purple-400/60 text-purple-200 rounded-xl",
		Body:      body + "font-semibold",
		Layers: []Layer{
			{Class: "absolute inset-0 flex items-center justify-center", Children: bars(
				"absolute w-32 h-32 border-4 border-purple-400/40 rounded-full animate-portal-ring",
				"absolute w-24 h-24 border-4 border-purple-500/50 rounded-full animate-portal-ring-delayed",
			)},
			{Class: "absolute inset-0 bg-gradient-to-b from-transparent via-purple-500/10 to-transparent animate-smoky"},
		},
	},
	markup.EventCastSpell: {
		Icon:      "✨",
		Container: banner + "bg-gradient-to-br from-indigo-900/60 via-purple-900/50 to-indigo-900/60 border-2 border-indigo-400/70 text-indigo-200 rounded-xl",
		Body:      body + "font-bold text-lg font-mono",
		Layers: []Layer{
			{Class: "absolute inset-0 bg-gradient-to-r from-transparent via-indigo-400/20 to-transparent animate-arcane-glow"},
			{Class: "absolute inset-0 flex items-center justify-center pointer-events-none", Children: glyphs("⚛",
				"absolute top-2 left-6 text-indigo-400/40 text-2xl font-bold animate-glyph-float",
				"absolute top-4 right-8 text-indigo-400/40 text-xl font-bold animate-glyph-float-delayed",
				"absolute bottom-3 left-10 text-indigo-400/40 text-2xl font-bold animate-glyph-float-delayed-2",
				"absolute bottom-2 right-6 text-indigo-400/40 text-xl font-bold animate-glyph-float",
			)},
		},
	},
	markup.EventSkillLearn: {
		Icon:      "🎮",
		Container: banner + "bg-gradient-to-br from-slate-800/90 via-slate-700/80 to-slate-800/90 border-4 border-cyan-400/70 text-cyan-200 rounded-lg",
		Style:     "box-shadow: 0 0 20px rgba(34, 211, 238, 0.4), inset 0 0 20px rgba(34, 211, 238, 0.1)",
		Body:      body + "font-mono font-semibold",
		Span:      "text-cyan-300",
		Layers: bars(
			"absolute top-0 left-0 right-0 h-1 bg-cyan-400/60 animate-hud-scan",
			"absolute inset-0 border-2 border-cyan-400/30 rounded-lg",
		),
	},
	markup.EventCriticalHit: {
		Icon:      "💥",
		Container: banner + "bg-gradient-to-br from-red-950/80 via-orange-950/70 to-red-950/80 border-4 border-red-500/80 text-red-300 rounded-lg animate-vibration",
		Body:      body + "font-black text-2xl tracking-wider",
	},
	markup.EventSlowMotion: {
		Icon:      "⏱️",
		Container: bannerX + "bg-gradient-to-br from-blue-950/70 via-indigo-950/60 to-blue-950/70 border-2 border-blue-400/60 text-blue-200 rounded-xl",
		Style:     "animation: stretch 3s ease-in-out infinite",
		Body:      body + "italic text-lg leading-relaxed",
	},
	markup.EventCombo: {
		Icon:      "⚔️",
		Container: bannerX + "bg-gradient-to-br from-orange-900/60 via-red-900/50 to-orange-900/60 border-2 border-orange-400/60 text-orange-200 rounded-xl",
		Body:      body + "font-bold text-lg",
		Span:      "animate-combo-sequence",
	},
	markup.EventBloodshed: {
		Icon:      "🩸",
		Container: bannerX + "bg-gradient-to-br from-red-950/90 via-red-900/80 to-red-950/90 border-2 border-red-700/70 text-red-300 rounded-lg",
		Body:      body + "font-semibold",
		Layers: []Layer{{Class: "absolute inset-0", Children: bars(
			"absolute top-0 left-4 w-1 h-8 bg-red-600/60 animate-drip",
			"absolute top-2 right-6 w-1 h-6 bg-red-600/60 animate-drip-delayed",
			"absolute bottom-0 left-8 w-1 h-10 bg-red-600/60 animate-drip-delayed-2",
			"absolute bottom-4 right-4 w-1 h-7 bg-red-600/60 animate-drip",
		)}},
	},
	markup.EventStealth: {
		Icon:      "🌑",
		Container: bannerX + "bg-gradient-to-br from-slate-950/95 via-slate-900/90 to-slate-950/95 border-2 border-slate-600/50 text-slate-400 rounded-xl animate-fade-to-shadow",
		Body:      body + "italic font-semibold",
		Layers:    bars("absolute inset-0 bg-gradient-to-r from-transparent via-slate-800/30 to-transparent"),
	},
	markup.EventDanger: {
		Icon:      "⚠️",
		Container: "bg-red-900/40 border border-red-500/40 text-red-300 px-4 py-3 rounded-lg shadow animate-shake",
	},
	markup.EventProphecy: {
		Icon:      "🔮",
		Container: banner + "bg-violet-900/50 border-2 border-violet-400/60 text-violet-200 rounded-xl animate-fade-in",
		Style:     "font-family: serif; text-shadow: 0 0 20px rgba(139, 92, 246, 0.5)",
		Body:      body + "italic text-lg leading-relaxed",
		Layers:    bars("absolute inset-0 bg-gradient-to-r from-transparent via-violet-500/20 to-transparent animate-shimmer"),
		Overlays: []Layer{{Class: "absolute inset-0 opacity-30 animate-echo", Children: []Layer{
			{Class: "text-violet-300/20 blur-sm", Echo: true},
		}}},
	},
	markup.EventOmen: {
		Icon:      "👁️",
		Container: "relative bg-slate-950/90 border-2 border-red-800/80 text-red-400 px-5 py-4 rounded-lg shadow-xl overflow-hidden animate-shake",
		Style:     "box-shadow: inset 0 0 50px rgba(0, 0, 0, 0.8)",
		Body:      body + "font-semibold",
		Layers:    bars("absolute inset-0 bg-gradient-to-b from-black/60 to-transparent"),
	},
	markup.EventSacred: {
		Icon:      "✨",
		Container: banner + "bg-gradient-to-br from-yellow-100/20 via-amber-50/30 to-yellow-100/20 border-2 border-yellow-400/70 text-yellow-100 rounded-xl",
		Style:     "font-family: serif; text-shadow: 0 0 15px rgba(250, 204, 21, 0.6)",
		Body:      body + "font-semibold text-lg",
		Layers: []Layer{{Class: "absolute inset-0", Children: bars(
			"absolute top-0 left-1/4 w-1 h-full bg-yellow-300/40 animate-radiate",
			"absolute top-0 right-1/4 w-1 h-full bg-yellow-300/40 animate-radiate-delayed",
			"absolute top-0 left-1/2 w-1 h-full bg-yellow-300/40 animate-radiate-delayed-2",
		)}},
	},
	markup.EventCursed: {
		Icon:      "💀",
		Container: bannerX + "bg-slate-900/95 border-2 border-purple-800/60 text-purple-300 rounded-lg animate-glitch",
		Body:      body + "font-mono text-sm",
		Layers:    bars("absolute inset-0 bg-[linear-gradient(90deg,transparent_50%,rgba(147,51,234,0.1)_50%,transparent_50%)] bg-[length:20px_100%] animate-static"),
	},
	markup.EventMemory: {
		Icon:      "📸",
		Container: bannerL + "bg-amber-900/30 border-2 border-amber-700/50 text-amber-200 rounded-xl",
		Style:     "filter: sepia(40%) contrast(1.1)",
		Body:      body + "italic",
		Layers: bars(
			"absolute inset-0 bg-gradient-to-r from-transparent via-amber-900/20 to-transparent blur-sm",
			"absolute inset-0 border-4 border-amber-800/30 rounded-xl",
		),
	},
	markup.EventDream: {
		Icon:      "💭",
		Container: bannerX + "bg-gradient-to-br from-pink-900/30 via-purple-900/30 to-blue-900/30 border-2 border-pink-400/40 text-pink-200 rounded-2xl",
		Style:     "filter: blur(0.5px); backdrop-filter: blur(2px)",
		Body:      body + "italic text-lg leading-relaxed",
		Layers:    bars("absolute inset-0 bg-gradient-to-r from-pink-500/20 via-purple-500/20 to-blue-500/20 animate-soft-glow"),
	},
	markup.EventHeartbreak: {
		Icon:      "💔",
		Container: bannerL + "bg-red-950/50 border-2 border-red-800/60 text-red-300 rounded-lg",
		Body:      "relative z-10",
		Span:      "inline-block animate-text-break",
		Overlays: []Layer{{Class: "absolute inset-0 opacity-20", Children: bars(
			"absolute top-1/2 left-0 w-full h-0.5 bg-red-600/50 transform -rotate-2",
			"absolute top-1/2 left-0 w-full h-0.5 bg-red-600/50 transform rotate-2",
		)}},
	},
	markup.EventJoy: {
		Icon:      "😊",
		Container: bannerL + "bg-yellow-900/40 border-2 border-yellow-500/60 text-yellow-200 rounded-xl",
		Body:      body + "font-semibold",
		Layers:    bars("absolute inset-0 bg-gradient-to-r from-transparent via-yellow-400/30 to-transparent animate-shimmer"),
	},
	markup.EventConfession: {
		Icon:      "💕",
		Container: bannerL + "bg-pink-900/40 border-2 border-pink-500/60 text-pink-200 rounded-xl",
		Body:      body + "italic",
		Layers: []Layer{{Class: "absolute inset-0", Children: glyphs("💕",
			"absolute top-2 left-4 text-pink-400/40 text-2xl animate-float",
			"absolute top-4 right-6 text-pink-400/40 text-xl animate-float-delayed",
			"absolute bottom-3 left-8 text-pink-400/40 text-lg animate-float-delayed-2",
			"absolute bottom-2 right-4 text-pink-400/40 text-xl animate-float",
		)}},
	},
	markup.EventRage: {
		Icon:      "😡",
		Container: bannerX + "bg-red-950/80 border-2 border-red-600/80 text-red-400 rounded-lg",
		Body:      body + "font-bold text-lg",
		Layers:    bars("absolute inset-0 bg-gradient-to-r from-red-600/20 via-orange-600/30 to-red-600/20 animate-fire-flicker"),
	},
}

// TreatmentFor returns the treatment of a known event type.
var categoryHex = map[markup.EventCategory]string{
	markup.CategoryPower:   "#eab308",
	markup.CategoryCombat:  "#ef4444",
	markup.CategoryAction:  "#f87171",
	markup.CategoryTheme:   "#a78bfa",
	markup.CategoryEmotion: "#f472b6",
}

// CategoryHex is the accent color of an event category for non-CSS outputs.
func CategoryHex(c markup.EventCategory) string {
	if h, ok := categoryHex[c]; ok {
		return h
	}
	return "#64748b"
}

func TreatmentFor(t markup.EventType) (Treatment, bool) {
	tr, ok := treatments[t]
	return tr, ok
}
