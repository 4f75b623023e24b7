package process

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/ollamacmd/feedback"
)

// SubCommand is the logical ollama command an Invocation runs.
type SubCommand int

const (
	SubList SubCommand = iota + 1
	SubServe
	SubPs
	SubRun
)

var subNames = map[SubCommand]string{
	SubList:  "list",
	SubServe: "serve",
	SubPs:    "ps",
	SubRun:   "run",
}

// String returns the argument passed to the executable.
func (s SubCommand) String() string {
	if name, ok := subNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SubCommand(%d)", int(s))
}

// ParseSubCommand maps a name to a SubCommand.
func ParseSubCommand(name string) (SubCommand, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for sub, n := range subNames {
		if n == name {
			return sub, true
		}
	}
	return 0, false
}

// Invocation is one request to run the executable.
type Invocation struct {
	// ID identifies the invocation in logs, traces and bridge events.
	ID string
	// SubCommand selects the ollama command.
	SubCommand SubCommand
	// Arg is the positional argument. Only SubRun passes it on.
	Arg string
	// SuccessKey is the feedback key emitted on exit code 0.
	SuccessKey string
	// SuccessArgs parameterize SuccessKey.
	SuccessArgs []any
	// Timeout bounds the invocation. Zero means unbounded.
	Timeout time.Duration
}

// NewInvocation creates an Invocation with a fresh ID and the default
// success key for sub.
func NewInvocation(sub SubCommand, arg string, timeout time.Duration) Invocation {
	inv := Invocation{
		ID:         uuid.NewString(),
		SubCommand: sub,
		Arg:        arg,
		SuccessKey: successKeys[sub],
		Timeout:    timeout,
	}
	if sub == SubRun {
		inv.SuccessArgs = []any{arg}
	}
	return inv
}

var successKeys = map[SubCommand]string{
	SubList:  feedback.KeyListSuccess,
	SubServe: feedback.KeyServiceStarted,
	SubPs:    feedback.KeyPsSuccess,
	SubRun:   feedback.KeyRunSuccess,
}

// Args returns the argument vector passed to the executable.
func (inv Invocation) Args() []string {
	args := []string{inv.SubCommand.String()}
	if inv.SubCommand == SubRun && inv.Arg != "" {
		args = append(args, inv.Arg)
	}
	return args
}
