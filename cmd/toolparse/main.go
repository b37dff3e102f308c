// Command toolparse reads a model reply on stdin and prints the narrative
// text and tool calls recovered from it as JSON.
//
// With the text protocol stdin is the raw reply. With the native protocol it
// is a ChatResponse document: {"text": "...", "tool_calls": [...]}.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"goa.design/clue/log"

	"github.com/inspirepan/dispatch"
	"github.com/inspirepan/dispatch/config"
	"github.com/inspirepan/dispatch/speech"
	"github.com/inspirepan/dispatch/toolschema"
)

type output struct {
	Text  string                    `json:"text"`
	Calls []dispatch.ParsedToolCall `json:"calls"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("toolparse", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		configF       = flags.String("config", "", "YAML configuration file")
		protocolF     = flags.String("protocol", "", "Protocol (auto, native or text); overrides the configuration")
		instructionsF = flags.Bool("instructions", false, "Print the prompt instructions for the speech tool and exit")
		dbgF          = flags.Bool("debug", false, "Enable debug logs")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configF)
	if err != nil {
		return err
	}
	if *protocolF != "" {
		cfg.Protocol = *protocolF
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	format := log.FormatTerminal
	if useJSON(cfg.Log.Format) {
		format = log.FormatJSON
	}
	ctx := log.Context(context.Background(), log.WithFormat(format), log.WithOutput(stderr))
	if *dbgF || cfg.Log.Debug {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}

	d := cfg.Dispatcher()
	tools := []dispatch.ToolSpec{speech.Spec()}
	if *instructionsF {
		_, err := io.WriteString(stdout, d.PromptInstructions(tools))
		return err
	}

	input, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	var resp dispatch.ChatResponse
	if cfg.NativeToolCalling() {
		if err := json.Unmarshal(input, &resp); err != nil {
			return fmt.Errorf("decode native response: %w", err)
		}
	} else {
		resp.Text = string(input)
	}

	text, calls := d.ParseResponse(ctx, resp)
	log.Print(ctx, log.KV{K: "protocol", V: cfg.Protocol}, log.KV{K: "calls", V: len(calls)})
	reportCalls(ctx, tools, calls)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output{Text: text, Calls: calls})
}

// reportCalls logs schema problems of known tools. Output is unaffected.
func reportCalls(ctx context.Context, tools []dispatch.ToolSpec, calls []dispatch.ParsedToolCall) {
	catalog, err := toolschema.New(tools)
	if err != nil {
		log.Error(ctx, err, log.KV{K: "msg", V: "compile tool schemas"})
		return
	}
	for _, call := range calls {
		if !catalog.Has(call.Name) {
			log.Debug(ctx, log.KV{K: "msg", V: "no schema for tool"}, log.KV{K: "tool", V: call.Name})
			continue
		}
		if call.Name == speech.Name {
			if args, err := speech.Decode(call.Arguments); err == nil {
				log.Debug(ctx, log.KV{K: "msg", V: "speech call"}, log.KV{K: "gender", V: args.Gender},
					log.KV{K: "pitch", V: args.Pitch}, log.KV{K: "speed", V: args.Speed})
				continue
			}
		}
		if err := catalog.Validate(call); err != nil {
			log.Warn(ctx, log.KV{K: "msg", V: "tool call does not match schema"}, log.KV{K: "tool", V: call.Name}, log.KV{K: "err", V: err.Error()})
		}
	}
}

// useJSON picks JSON logs when asked to, or when stderr is not a terminal
// and no format is configured.
func useJSON(name string) bool {
	switch name {
	case "json":
		return true
	case "terminal":
		return false
	default:
		return !log.IsTerminal()
	}
}
