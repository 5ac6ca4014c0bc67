// Package track is the catalog of circuits an event can be held at.
package track

import (
	"fmt"
	"strings"
)

// Track describes one circuit
type Track struct {
	Name        string
	DisplayName string
	LengthKM    float64
	Image       string // circuit map file name
}

// catalog is kept in alphabetical order of Name
var catalog = []Track{
	{"abu_dhabi", "Abu Dhabi 🇦🇪", 5.554, "Abu_Dhabi_Circuit.png"},
	{"australia", "Australia 🇦🇺", 5.278, "Australia_Circuit.png"},
	{"austria", "Austria 🇦🇹", 4.318, "Austria_Circuit.png"},
	{"azerbaijan", "Azerbaijan 🇦🇿", 6.003, "Baku_Circuit.png"},
	{"bahrain", "Bahrain 🇧🇭", 5.412, "Bahrain_Circuit.png"},
	{"belgium", "Belgium 🇧🇪", 7.004, "Belgium_Circuit.png"},
	{"brazil", "Brazil 🇧🇷", 4.309, "Brazil_Circuit.png"},
	{"canada", "Canada 🇨🇦", 4.361, "Canada_Circuit.png"},
	{"china", "China 🇨🇳", 5.451, "China_Circuit.png"},
	{"cota", "C.O.T.A. 🇺🇸", 5.513, "USA_Circuit.png"},
	{"great_britain", "Great Britain 🇬🇧", 5.891, "Great_Britain_Circuit.png"},
	{"hungary", "Hungary 🇭🇺", 4.381, "Hungary_Circuit.png"},
	{"imola", "Imola 🇸🇲", 4.909, "Emilia_Romagna_Circuit.png"},
	{"japan", "Japan 🇯🇵", 5.807, "Japan_Circuit.png"},
	{"las_vegas", "Las Vegas 🇺🇸", 6.201, "Las_Vegas_Circuit.png"},
	{"mexico", "Mexico 🇲🇽", 4.304, "Mexico_Circuit.png"},
	{"miami", "Miami 🇺🇸", 5.412, "Miami_Circuit.png"},
	{"monaco", "Monaco 🇲🇨", 3.337, "Monaco_Circuit.png"},
	{"monza", "Monza 🇮🇹", 5.793, "Italy_Circuit.png"},
	{"netherlands", "Netherlands 🇳🇱", 4.259, "Netherlands_Circuit.png"},
	{"portugal", "Portugal 🇵🇹", 4.653, "Portugal_Circuit.png"},
	{"qatar", "Qatar 🇶🇦", 5.419, "Qatar_Circuit.png"},
	{"saudi_arabia", "Saudi Arabia 🇸🇦", 6.174, "Saudi_Arabia_Circuit.png"},
	{"singapore", "Singapore 🇸🇬", 4.940, "Singapore_Circuit.png"},
	{"spain", "Spain 🇪🇸", 4.657, "Spain_Circuit.png"},
}

// All returns every track in alphabetical order
func All() []Track {
	out := make([]Track, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a track by its short name
func Lookup(name string) (Track, error) {
	for _, t := range catalog {
		if t.Name == name {
			return t, nil
		}
	}
	return Track{}, fmt.Errorf("unknown track: %s", name)
}

// ImageURL resolves a circuit map reference against base. Absolute URLs
// are returned as-is.
func ImageURL(base, image string) string {
	if image == "" {
		return ""
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + image
}
