package announce

// Locale is the text configuration a Renderer works from. Headline is a
// fmt format taking the game name and the number of years since release.
type Locale struct {
	Headline       string
	DeveloperLabel string
	PublisherLabel string
	GenreLabel     string
	PlatformLabel  string
	WikiLabel      string
	ManyPlatforms  string

	// GenreLabels maps catalog genre names to display labels. Genres with
	// no entry are left out of the announcement.
	GenreLabels map[string]string
	// PlatformLabels maps catalog platform names to short labels. Platforms
	// with no entry are shown by their catalog name.
	PlatformLabels map[string]string
}

func (l Locale) clone() Locale {
	l.GenreLabels = cloneMap(l.GenreLabels)
	l.PlatformLabels = cloneMap(l.PlatformLabels)
	return l
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Hebrew returns the Hebrew locale the bot posts in. Each call returns a
// fresh copy.
func Hebrew() Locale {
	return Locale{
		Headline:       "%s חוגג %d שנים לשחרורו! 🎉",
		DeveloperLabel: "מפתחת",
		PublisherLabel: "מפיצה",
		GenreLabel:     "ז'אנר",
		PlatformLabel:  "פלטפורמות",
		WikiLabel:      "לערך בוויקי",
		ManyPlatforms:  "מגוון רחב של פלטפורמות",
		GenreLabels: map[string]string{
			"Action":                     "אקשן",
			"Adventure":                  "הרפתקאות",
			"Arcade":                     "ארקייד",
			"Card & Board Game":          "קלפים ולוח",
			"Fighting":                   "לחימה",
			"Hack and slash/Beat 'em up": "האק אנד סלאש",
			"Horror":                     "אימה",
			"Indie":                      "אינדי",
			"MOBA":                       "מובה",
			"Music":                      "קצב",
			"Pinball":                    "פינבול",
			"Platform":                   "פלטפורמר",
			"Point-and-click":            "פוינט אנד קליק",
			"Puzzle":                     "פאזל",
			"Quiz/Trivia":                "טריוויה",
			"Racing":                     "מירוצים",
			"Real Time Strategy (RTS)":   "אסטרטגיה בזמן אמת",
			"Role-playing (RPG)":         "משחק תפקידים",
			"Shooter":                    "יריות",
			"Simulator":                  "סימולציה",
			"Stealth":                    "התגנבות",
			"Strategy":                   "אסטרטגיה",
			"Tactical":                   "טקטיקה",
			"Turn-based strategy (TBS)":  "אסטרטגיה בתורות",
			"Visual Novel":               "ויז'ואל נובל",
		},
		PlatformLabels: map[string]string{
			"3DO Interactive Multiplayer":         "3DO",
			"Amiga":                               "Amiga",
			"Android":                             "Android",
			"Arcade":                              "Arcade",
			"Atari 2600":                          "2600",
			"Commodore C64/128/MAX":               "C64",
			"DOS":                                 "DOS",
			"Dreamcast":                           "DC",
			"Game Boy":                            "GB",
			"Game Boy Advance":                    "GBA",
			"Game Boy Color":                      "GBC",
			"iOS":                                 "iOS",
			"Linux":                               "Linux",
			"Mac":                                 "Mac",
			"Neo Geo AES":                         "Neo Geo",
			"Nintendo 3DS":                        "3DS",
			"Nintendo 64":                         "N64",
			"Nintendo DS":                         "DS",
			"Nintendo Entertainment System":       "NES",
			"Nintendo GameCube":                   "GC",
			"Nintendo Switch":                     "Switch",
			"PC (Microsoft Windows)":              "PC",
			"PlayStation":                         "PS1",
			"PlayStation 2":                       "PS2",
			"PlayStation 3":                       "PS3",
			"PlayStation 4":                       "PS4",
			"PlayStation 5":                       "PS5",
			"PlayStation Portable":                "PSP",
			"PlayStation Vita":                    "Vita",
			"Sega CD":                             "Sega CD",
			"Sega Game Gear":                      "Game Gear",
			"Sega Master System/Mark III":         "SMS",
			"Sega Mega Drive/Genesis":             "Genesis",
			"Sega Saturn":                         "Saturn",
			"Super Nintendo Entertainment System": "SNES",
			"TurboGrafx-16/PC Engine":             "TG16",
			"Web browser":                         "Web",
			"Wii":                                 "Wii",
			"Wii U":                               "Wii U",
			"Xbox":                                "Xbox",
			"Xbox 360":                            "X360",
			"Xbox One":                            "XOne",
			"Xbox Series X|S":                     "XSX",
		},
	}
}
