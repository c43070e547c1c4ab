package parser

// Game variants, as the numeric codes the osu! v1 API expects.
const (
	VariantStandard = "0"
	VariantTaiko    = "1"
	VariantCatch    = "2"
	VariantMania    = "3"
)

// variantNames maps canonical spellings and common abbreviations to a variant
// code. Matched after stripping the optional game-name prefix from the
// bracket tag.
var variantNames = map[string]string{
	"standard": VariantStandard,
	"std":      VariantStandard,
	"taiko":    VariantTaiko,
	"catch":    VariantCatch,
	"ctb":      VariantCatch,
	"mania":    VariantMania,
}

// variantPrefixes are stripped from the bracket tag before matching, so both
// "[osu!std]" and "[std]" parse the same way.
var variantPrefixes = []string{"osu!", "o!"}

type offenseCategory struct {
	Name     string
	Keywords []string
}

// offenseTable classifies the offense segment of a title. Order is priority:
// the first category with any keyword present in the tokenized offense text
// wins. No match degrades to OffenseOther.
var offenseTable = []offenseCategory{
	{"multi", []string{"multi", "multiacc", "multi-account", "multiaccount", "multiaccounting"}},
	{"spinhack", []string{"spin", "spinhack", "spinhacker", "spinbot"}},
	{"relax", []string{"relax", "rx"}},
	{"timewarp", []string{"timewarp", "tw", "speedhack"}},
	{"aim", []string{"aim", "aimbot", "aimassist", "aimhack"}},
	{"cheating", []string{"cheat", "cheats", "cheating", "cheater", "hack", "hacks", "hacking", "hacker"}},
}

// OffenseOther is the fallback offense category.
const OffenseOther = "other"

// blatantWords set the severity flag when any appears in the offense text.
var blatantWords = []string{"blatant", "obvious", "obviously"}

type flairEntry struct {
	Display  string
	CSSClass string
	Keywords []string
}

// flairTable derives the post flair from the entire original title, first
// match wins.
var flairTable = []flairEntry{
	{"Discussion", "discussion", []string{"discussion"}},
	{"Blatant", "blatant", []string{"blatant"}},
	{"Multi-account", "multi", []string{"multi", "multiacc", "multi-account", "multiaccount"}},
	{"Cheating", "cheating", []string{"cheating", "cheater"}},
}

// defaultFlair is applied when no table entry matches and the default is
// enabled (see Config.DefaultToCheating).
var defaultFlair = flairEntry{Display: "Cheating", CSSClass: "cheating"}
