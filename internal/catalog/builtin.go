package catalog

var builtinProfiles = []VoiceProfile{
	{
		Name:    "Miles",
		VoiceID: "en-US-miles",
		Moods: []string{
			"Conversational", "Promo", "Sports Commentary", "Narration", "Newscast", "Sad",
			"Angry", "Calm", "Terrified", "Inspirational", "Pirate", "Customer Support Agent",
		},
	},
	{
		Name:    "Shane",
		VoiceID: "en-AU-shane",
		Moods:   []string{"Conversational", "Narration"},
	},
	{
		Name:    "Natalie",
		VoiceID: "en-US-natalie",
		Moods: []string{
			"Promo", "Narration", "Newscast Formal", "Meditative", "Sad", "Angry",
			"Conversational", "Newscast Casual", "Furious", "Sorrowful", "Terrified", "Inspirational",
		},
	},
	{
		Name:    "Alicia",
		VoiceID: "en-US-alicia",
		Moods:   []string{"Conversational", "Angry", "Calm"},
	},
	{
		Name:    "Theo",
		VoiceID: "en-UK-theo",
		Moods:   []string{"Narration", "Promo", "Calm", "Sad", "Angry", "Character"},
	},
	{
		Name:    "Edmund",
		VoiceID: "en-US-edmund",
		Moods:   []string{"Conversational", "Promo", "Sports Commentary", "Sad", "Inspirational", "NewsCast"},
	},
}

// Default returns the built-in voice catalog.
func Default() *Catalog {
	c, err := New(builtinProfiles)
	if err != nil {
		panic("catalog: invalid built-in table: " + err.Error())
	}
	return c
}
