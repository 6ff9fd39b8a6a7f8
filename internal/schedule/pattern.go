package schedule

import (
	"strings"
	"time"
)

// dayTokens maps normalised free-text day tokens to weekdays. Spanish
// names are stored unaccented; Normalize strips accents before lookup so
// "Miércoles", "miercoles" and "mie" all resolve to Wednesday.
var dayTokens = map[string]time.Weekday{
	"domingo":   time.Sunday,
	"dom":       time.Sunday,
	"lunes":     time.Monday,
	"lun":       time.Monday,
	"martes":    time.Tuesday,
	"mar":       time.Tuesday,
	"miercoles": time.Wednesday,
	"mie":       time.Wednesday,
	"mier":      time.Wednesday,
	"jueves":    time.Thursday,
	"jue":       time.Thursday,
	"viernes":   time.Friday,
	"vie":       time.Friday,
	"sabado":    time.Saturday,
	"sab":       time.Saturday,

	"sunday":    time.Sunday,
	"sun":       time.Sunday,
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u", "Ñ", "n",
)

// Normalize lowercases a token and strips Spanish accents.
func Normalize(token string) string {
	return accentReplacer.Replace(strings.ToLower(strings.TrimSpace(token)))
}

// ParsePattern resolves a free-text weekday pattern such as
// "Lunes y Miércoles" or "Mon/Wed" into a set of weekdays. Tokens that
// do not name a day are ignored; an unresolvable pattern yields an empty
// set.
func ParsePattern(raw string) map[time.Weekday]bool {
	days := make(map[time.Weekday]bool)
	for _, token := range splitTokens(raw) {
		if token == "y" || token == "e" || token == "and" {
			continue
		}
		if day, ok := dayTokens[token]; ok {
			days[day] = true
		}
	}
	return days
}

func splitTokens(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ' ', ',', '/', '-', '|', ';', '\t':
			return true
		default:
			return false
		}
	})
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if normalised := Normalize(field); normalised != "" {
			tokens = append(tokens, normalised)
		}
	}
	return tokens
}
