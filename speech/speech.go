// Package speech describes the externally registered speak-aloud capability.
//
// Models address it through several tag aliases; all of them resolve to Name.
// The audio backend itself lives with the tool registry.
package speech

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/inspirepan/dispatch"
	"github.com/inspirepan/dispatch/internal/tagparse"
)

// Name is the canonical tool name every alias resolves to.
const Name = tagparse.SpeechTool

// MaxTextLength bounds the text accepted by Decode, in bytes.
const MaxTextLength = 5000

// Aliases returns the tag names models use for the speech tool.
func Aliases() []string { return tagparse.SpeechAliases() }

// IsAlias reports whether tag names the speech tool.
func IsAlias(tag string) bool {
	return slices.Contains(tagparse.SpeechAliases(), tag)
}

// Args are the arguments of the speech tool.
type Args struct {
	Text   string `json:"text" jsonschema_description:"The text to convert to speech"`
	Gender string `json:"gender,omitempty" jsonschema:"enum=male,enum=female" jsonschema_description:"Voice gender (default: male)"`
	Pitch  int    `json:"pitch,omitempty" jsonschema:"minimum=1,maximum=5" jsonschema_description:"Voice pitch level 1-5 (default: 3)"`
	Speed  int    `json:"speed,omitempty" jsonschema:"minimum=1,maximum=5" jsonschema_description:"Speech speed level 1-5 (default: 3)"`
}

const description = "Text-to-Speech (TTS) - convert text to spoken audio. Input text content and get back a URL to download the generated audio file. Supports male/female voices and adjustable pitch/speed."

// Spec returns the capability descriptor of the speech tool.
func Spec() dispatch.ToolSpec {
	return dispatch.ToolSpec{
		Name:        Name,
		Description: description,
		Parameters:  GenerateSchema[Args](),
	}
}

// GenerateSchema derives an inline JSON Schema object from T.
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		Anonymous:                 true,
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""

	b, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("speech: marshal schema: %v", err))
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		panic(fmt.Sprintf("speech: unmarshal schema: %v", err))
	}
	return out
}

var (
	ErrMissingText = errors.New("speech: missing required parameter: text")
	ErrTextTooLong = errors.New("speech: text too long")
)

// Decode normalises parsed arguments into Args. Tag attributes arrive as
// strings, so numeric fields accept both numbers and numeric strings, and
// "voice" is accepted in place of "gender".
func Decode(args map[string]any) (Args, error) {
	text, _ := args["text"].(string)
	if strings.TrimSpace(text) == "" {
		return Args{}, ErrMissingText
	}
	if len(text) > MaxTextLength {
		return Args{}, fmt.Errorf("%w (max %d characters)", ErrTextTooLong, MaxTextLength)
	}

	out := Args{Text: text, Gender: "male", Pitch: 3, Speed: 3}

	voice, ok := args["gender"].(string)
	if !ok {
		voice, _ = args["voice"].(string)
	}
	if isFemale(voice) {
		out.Gender = "female"
	}
	if n, ok := level(args["pitch"]); ok {
		out.Pitch = n
	}
	if n, ok := level(args["speed"]); ok {
		out.Speed = n
	}
	return out, nil
}

func isFemale(v string) bool {
	lower := strings.ToLower(v)
	for _, s := range []string{"female", "women", "woman", "girl", "女"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// level reads a 1-5 level from a JSON number or numeric string.
func level(v any) (int, bool) {
	var n int
	switch x := v.(type) {
	case float64:
		n = int(x)
	case int:
		n = x
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		n = i
	default:
		return 0, false
	}
	if n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}
