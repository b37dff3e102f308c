package tagparse

import "slices"

// Family decides how the content of a matched tag is interpreted.
type Family int

const (
	// FamilyTool tags wrap a tool call document.
	FamilyTool Family = iota
	// FamilyNarrative tags wrap commentary that is kept verbatim.
	FamilyNarrative
	// FamilySpeech tags are aliases of the speak-aloud tool.
	FamilySpeech
)

func (f Family) String() string {
	switch f {
	case FamilyTool:
		return "tool"
	case FamilyNarrative:
		return "narrative"
	case FamilySpeech:
		return "speech"
	default:
		return "unknown"
	}
}

// Form is the shape of a marker.
type Form int

const (
	// FormLiteral is an exact open tag closed by the exact closing tag: <name> ... </name>.
	FormLiteral Form = iota
	// FormPrefix is an open prefix closed by the next '>': <name attr=v ...>.
	FormPrefix
)

// Marker is one entry of the dialect table.
type Marker struct {
	Name   string
	Family Family
	Form   Form
}

// Open returns the text that starts the marker.
func (m Marker) Open() string {
	if m.Form == FormLiteral {
		return "<" + m.Name + ">"
	}
	return "<" + m.Name
}

// Close returns the text that ends the marker.
func (m Marker) Close() string {
	if m.Form == FormLiteral {
		return "</" + m.Name + ">"
	}
	return ">"
}

// SpeechTool is the canonical name every speech alias resolves to.
const SpeechTool = "tts"

var speechAliases = []string{"text_to_speech", "voice_say", "speak", "say", "tts"}

// SpeechAliases returns the tag names of the speech family.
func SpeechAliases() []string { return slices.Clone(speechAliases) }

func literal(name string, f Family) Marker { return Marker{Name: name, Family: f, Form: FormLiteral} }
func prefix(name string, f Family) Marker  { return Marker{Name: name, Family: f, Form: FormPrefix} }

// dialects is consulted top to bottom. A literal marker always precedes the
// prefix marker of the same name, otherwise "<name>" would be taken by the
// looser "<name" ... ">" pattern and its body would leak into narrative.
var dialects = buildDialects()

func buildDialects() []Marker {
	table := []Marker{
		literal("tool_call", FamilyTool),
		literal("toolcall", FamilyTool),
		literal("tool-call", FamilyTool),
		literal("invoke", FamilyTool),

		literal("poetry", FamilyNarrative),
		literal("poem_write", FamilyNarrative),
		literal("poetry_call", FamilyNarrative),
		literal("poetry_tool_call", FamilyNarrative),
		prefix("poetry_write", FamilyNarrative),
		prefix("poem_write", FamilyNarrative),
		prefix("poetry_call", FamilyNarrative),
		prefix("poetry_tool_call", FamilyNarrative),
		literal("output", FamilyNarrative),
		literal("trash", FamilyNarrative),

		prefix("tool_call", FamilyTool),
	}
	for _, name := range []string{
		"poem", "poem_call", "poem_tool_call", "poem_generator", "poem_writer",
		"poetry_writer", "poem_create", "poetry_create", "poem_generate",
		"poetry_generate", "poem_output", "poetry_output", "poem_result",
		"poetry_result", "poem_response", "poetry_response", "poem_text",
		"poetry_text", "poem_content", "poetry_content",
	} {
		table = append(table, literal(name, FamilyNarrative))
	}
	for _, alias := range speechAliases {
		table = append(table, literal(alias, FamilySpeech), prefix(alias, FamilySpeech))
	}
	return table
}

// Dialects returns a copy of the dialect table in priority order.
func Dialects() []Marker { return slices.Clone(dialects) }
