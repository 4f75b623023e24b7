package command

import (
	"strings"

	apperrors "github.com/kbukum/ollamacmd/errors"
)

// Root is the command word every line starts with.
const Root = "ollama"

// Sub-command names.
const (
	SubList  = "list"
	SubServe = "serve"
	SubPs    = "ps"
	SubModel = "model"
	SubRun   = "run"
)

// SubCommands lists the names offered as completions.
var SubCommands = []string{SubList, SubServe, SubPs, SubModel, SubRun}

// Command is a parsed line.
type Command struct {
	Sub string
	// Arg is everything after the sub-command, trimmed.
	Arg string
}

// Parse reads "/ollama <sub> [arg]" (the slash is optional). The argument
// is greedy: "model my model" selects "my model".
func Parse(line string) (Command, error) {
	root, rest := cut(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if !strings.EqualFold(root, Root) {
		return Command{}, apperrors.InvalidInput("command", "must start with /"+Root)
	}
	sub, arg := cut(rest)
	sub = strings.ToLower(sub)

	switch sub {
	case SubList, SubServe, SubPs, SubRun:
		return Command{Sub: sub, Arg: arg}, nil
	case SubModel:
		if arg == "" {
			return Command{}, apperrors.MissingField("name")
		}
		return Command{Sub: sub, Arg: arg}, nil
	case "":
		return Command{}, apperrors.MissingField("subcommand")
	default:
		return Command{}, apperrors.InvalidInput("subcommand", "unknown sub-command "+sub)
	}
}

// cut splits s at the first run of whitespace.
func cut(s string) (head, tail string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, isSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }
