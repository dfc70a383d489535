/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

const sampleMarkup = `The rain had not stopped for three days.

[conversation participants="Mira, Kade"]
[dialogue speaker="Mira"]Ready?[/dialogue]
[dialogue speaker="Mira"]We go at dusk.[/dialogue]
[dialogue speaker="Kade"]Always & forever <3[/dialogue]
[/conversation]
[event type="power-up"]Mira's blade ignites[/event]
[event type="unknown-thing"]Something odd[/event]
[sfx]BOOM[/sfx]
[shake]The ground trembles[/shake]
[system]Level up[/system]
[dialogue speaker="Kade"]Café?[/dialogue]`

func sampleChapter() Chapter {
	return Chapter{Series: "Ash & Ember", Number: 3, Title: "The Gate", Author: "A. Writer", Markup: sampleMarkup}
}
