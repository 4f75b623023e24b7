package command

import (
	"strings"
)

// Suggest returns completions for the word being typed at the end of line.
// Sub-command names complete after the root; cached model names complete
// after "model" and "run".
func (h *Handler) Suggest(line string) []string {
	trimmed := strings.TrimPrefix(strings.TrimLeftFunc(line, isSpace), "/")
	root, rest, hasRest := cutWord(trimmed)
	if !hasRest {
		if strings.HasPrefix(Root, strings.ToLower(root)) {
			return []string{Root}
		}
		return nil
	}
	if !strings.EqualFold(root, Root) {
		return nil
	}

	sub, arg, hasArg := cutWord(rest)
	if !hasArg {
		return prefixed(SubCommands, strings.ToLower(sub))
	}

	switch strings.ToLower(sub) {
	case SubModel, SubRun:
		return h.registry.Suggest(strings.TrimFunc(arg, isSpace))
	default:
		return nil
	}
}

// cutWord splits s at its first whitespace run. Unlike cut it keeps the
// trailing separator visible: ok reports whether any whitespace followed word.
func cutWord(s string) (word, rest string, ok bool) {
	i := strings.IndexFunc(s, isSpace)
	if i < 0 {
		return s, "", false
	}
	return s[:i], strings.TrimLeftFunc(s[i:], isSpace), true
}

func prefixed(words []string, prefix string) []string {
	var out []string
	for _, w := range words {
		if strings.HasPrefix(w, prefix) {
			out = append(out, w)
		}
	}
	return out
}
