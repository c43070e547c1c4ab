package format

import (
	"fmt"
	"strings"

	"osureporter/bot/internal/osuapi"
	"osureporter/bot/internal/parser"
)

// mod bit values from the osu! API.
var modBits = map[string]int{
	"NF": 1,
	"EZ": 2,
	"TD": 4,
	"HD": 8,
	"HR": 16,
	"SD": 32,
	"DT": 64,
	"RX": 128,
	"HT": 256,
	"NC": 512,
	"FL": 1024,
	"AT": 2048,
	"SO": 4096,
	"AP": 8192,
	"PF": 16384,
	"V2": 536870912,
}

// modOrder is the order mods print in, matching the community convention.
var modOrder = []string{
	"EZ", "HD", "HT", "DT", "NC", "HR", "FL", "NF", "SD", "PF", "RX", "AP", "SO", "AT", "V2", "TD",
}

// Mods converts an enabled_mods bitmask into the usual "+HDHR" form. A mod
// whose bit always co-occurs with a base mod's bit suppresses the base one:
// NC implies DT and PF implies SD, so only the stronger mod prints.
func Mods(bits int) string {
	present := map[string]bool{}
	for name, bit := range modBits {
		if bits&bit == bit {
			present[name] = true
		}
	}
	if present["NC"] {
		delete(present, "DT")
	}
	if present["PF"] {
		delete(present, "SD")
	}

	var ordered []string
	for _, name := range modOrder {
		if present[name] {
			ordered = append(ordered, name)
		}
	}
	if len(ordered) == 0 {
		return "Nomod"
	}
	return "+" + strings.Join(ordered, "")
}

// Accuracy computes a play's accuracy percentage using the per-variant
// formulas from the osu! wiki.
func Accuracy(p osuapi.Play, variant string) float64 {
	miss, c50, c100, c300 := float64(p.CountMiss), float64(p.Count50), float64(p.Count100), float64(p.Count300)
	katu, geki := float64(p.CountKatu), float64(p.CountGeki)

	var acc float64
	switch variant {
	case parser.VariantTaiko:
		acc = (0.5*c100 + c300) / (miss + c100 + c300)
	case parser.VariantCatch:
		acc = (c50 + c100 + c300) / (miss + katu + c50 + c100 + c300)
	case parser.VariantMania:
		acc = (50*c50 + 100*c100 + 200*katu + 300*(c300+geki)) / (300 * (miss + c50 + c100 + katu + c300 + geki))
	default: // standard
		acc = (50*c50 + 100*c100 + 300*c300) / (300 * (miss + c50 + c100 + c300))
	}
	return acc * 100
}

// Grade normalizes the API's internal rank grades to the familiar ones.
func Grade(rank string) string {
	switch rank {
	case "X", "XH":
		return "SS"
	case "SH":
		return "S"
	default:
		return rank
	}
}

// comma renders an integer with thousands separators.
func comma(n int) string {
	if n < 0 {
		return "-" + comma(-n)
	}
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
