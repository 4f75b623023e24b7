package command_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/kbukum/ollamacmd/command"
	"github.com/kbukum/ollamacmd/dispatch"
	apperrors "github.com/kbukum/ollamacmd/errors"
	"github.com/kbukum/ollamacmd/feedback"
	"github.com/kbukum/ollamacmd/models"
	"github.com/kbukum/ollamacmd/process"
)

// fakeOllama behaves like a tiny ollama: list prints a table, run echoes
// its model, serve blocks, anything else fails.
const fakeOllama = `#!/bin/sh
case "$1" in
  list)
    echo "NAME              ID              SIZE      MODIFIED"
    echo "llama3:latest     365c0bd3c000    4.7 GB    2 days ago"
    echo "mistral:latest    f974a74358d6    4.1 GB    3 weeks ago"
    ;;
  run)   echo "running $2" ;;
  ps)    echo "NAME ID SIZE PROCESSOR UNTIL" ;;
  serve) sleep 30 ;;
  *)     echo "unknown command $1" >&2; exit 1 ;;
esac
`

type fixture struct {
	handler    *command.Handler
	registry   *models.Registry
	dispatcher *dispatch.Dispatcher
}

func newFixture(t *testing.T, seed ...string) *fixture {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "ollama")
	if err := os.WriteFile(bin, []byte(fakeOllama), 0o755); err != nil {
		t.Fatal(err)
	}

	d := dispatch.New(dispatch.Config{}, nil)
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Stop(context.Background()) })

	reg := models.NewRegistry(seed...)
	h := command.NewHandler(command.Deps{
		Runner:   process.NewRunner(process.Config{Binary: bin, Timeout: 10 * time.Second, GracePeriod: 200 * time.Millisecond}, nil),
		Registry: reg,
		Queue:    d,
	})
	return &fixture{handler: h, registry: reg, dispatcher: d}
}

func wait(t *testing.T, ticket *command.Ticket) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = ticket.Wait(ctx)
	if ctx.Err() != nil {
		t.Fatal("ticket did not finish")
	}
}

func TestListRefreshesModelCache(t *testing.T) {
	f := newFixture(t)
	rec := &feedback.Recorder{}

	ticket, err := f.handler.Execute(context.Background(), "/ollama list", rec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	wait(t, ticket)

	if !ticket.Result().OK() {
		t.Fatalf("status = %v", ticket.Result().Status)
	}
	want := []string{"llama3:latest", "mistral:latest"}
	if got := f.registry.Models(); !reflect.DeepEqual(got, want) {
		t.Errorf("models = %v, want %v", got, want)
	}

	keys := rec.Keys()
	if len(keys) != 2 || keys[0] != feedback.KeyListRunning || keys[1] != feedback.KeyListSuccess {
		t.Errorf("keys = %v", keys)
	}
	if n := len(rec.Lines(feedback.StreamStdout)); n != 3 {
		t.Errorf("stdout lines = %d, want 3", n)
	}
	for _, m := range rec.Messages() {
		if m.InvocationID != ticket.ID {
			t.Fatalf("message %+v not tagged with %s", m, ticket.ID)
		}
	}
}

func TestOtherCommandsKeepCache(t *testing.T) {
	f := newFixture(t, "phi3")
	rec := &feedback.Recorder{}

	ticket, err := f.handler.ExecuteCommand(context.Background(), command.Command{Sub: "ps"}, rec)
	if err != nil {
		t.Fatal(err)
	}
	wait(t, ticket)
	if got := f.registry.Models(); !reflect.DeepEqual(got, []string{"phi3"}) {
		t.Errorf("models = %v", got)
	}
	if len(rec.Terminal()) != 1 {
		t.Errorf("terminal messages = %d", len(rec.Terminal()))
	}
}

func TestUsageErrors(t *testing.T) {
	f := newFixture(t)
	for _, line := range []string{"/ollama", "/ollama pull x", "/ollama model"} {
		rec := &feedback.Recorder{}
		ticket, err := f.handler.Execute(context.Background(), line, rec)
		if err == nil || ticket != nil {
			t.Errorf("%q accepted", line)
		}
		term := rec.Terminal()
		if len(term) != 1 || term[0].Key != feedback.KeyUsage {
			t.Errorf("%q terminal = %+v", line, term)
		}
	}
}

func TestModelSelection(t *testing.T) {
	f := newFixture(t, "llama3", "mistral")

	rec := &feedback.Recorder{}
	ticket, err := f.handler.Execute(context.Background(), "/ollama model llama3", rec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	<-ticket.Done()
	if cur, _ := f.registry.Current(); cur != "llama3" {
		t.Errorf("current = %q", cur)
	}
	if term := rec.Terminal(); len(term) != 1 || term[0].Key != feedback.KeyModelSet {
		t.Errorf("terminal = %+v", term)
	}

	rec = &feedback.Recorder{}
	_, err = f.handler.Execute(context.Background(), "/ollama model gpt-unknown", rec)
	if apperrors.CodeOf(err) != apperrors.ErrCodeModelNotFound {
		t.Fatalf("err = %v", err)
	}
	if cur, _ := f.registry.Current(); cur != "llama3" {
		t.Errorf("current changed to %q", cur)
	}
	if term := rec.Terminal(); len(term) != 1 || term[0].Key != feedback.KeyModelNotFound {
		t.Errorf("terminal = %+v", term)
	}
}

func TestRunUsesCurrentModel(t *testing.T) {
	f := newFixture(t, "llama3")
	f.registry.SetCurrent("llama3")
	rec := &feedback.Recorder{}

	ticket, err := f.handler.Execute(context.Background(), "/ollama run", rec)
	if err != nil {
		t.Fatal(err)
	}
	wait(t, ticket)

	if lines := rec.Lines(feedback.StreamStdout); len(lines) != 1 || lines[0] != "running llama3" {
		t.Errorf("lines = %q", lines)
	}
	keys := rec.Keys()
	if len(keys) != 2 || keys[0] != feedback.KeyRunStarting || keys[1] != feedback.KeyRunSuccess {
		t.Errorf("keys = %v", keys)
	}
}

func TestRunRejections(t *testing.T) {
	f := newFixture(t)
	rec := &feedback.Recorder{}
	if _, err := f.handler.Execute(context.Background(), "/ollama run", rec); apperrors.CodeOf(err) != apperrors.ErrCodeMissingField {
		t.Errorf("no model: err = %v", err)
	}

	f.registry.SetModels([]string{"llama3"})
	rec = &feedback.Recorder{}
	if _, err := f.handler.Execute(context.Background(), "/ollama run gpt-unknown", rec); apperrors.CodeOf(err) != apperrors.ErrCodeModelNotFound {
		t.Errorf("unknown model: err = %v", err)
	}
	if len(rec.Terminal()) != 1 {
		t.Errorf("terminal = %d", len(rec.Terminal()))
	}
}

type fullQueue struct{}

func (fullQueue) Submit(dispatch.Task) error { return apperrors.QueueFull(1) }

func TestBusyQueue(t *testing.T) {
	h := command.NewHandler(command.Deps{
		Runner:   process.NewRunner(process.Config{}, nil),
		Registry: models.NewRegistry(),
		Queue:    fullQueue{},
	})
	rec := &feedback.Recorder{}

	ticket, err := h.Execute(context.Background(), "/ollama list", rec)
	if ticket != nil || apperrors.CodeOf(err) != apperrors.ErrCodeQueueFull {
		t.Fatalf("ticket = %v, err = %v", ticket, err)
	}
	keys := rec.Keys()
	if len(keys) != 2 || keys[0] != feedback.KeyListRunning || keys[1] != feedback.KeyBusy {
		t.Errorf("keys = %v", keys)
	}
	if len(rec.Terminal()) != 1 {
		t.Errorf("terminal = %d", len(rec.Terminal()))
	}
}

func TestStoppedDispatcherIsNotBusy(t *testing.T) {
	d := dispatch.New(dispatch.Config{}, nil)
	h := command.NewHandler(command.Deps{
		Runner:   process.NewRunner(process.Config{}, nil),
		Registry: models.NewRegistry(),
		Queue:    d,
	})
	rec := &feedback.Recorder{}

	ticket, err := h.Execute(context.Background(), "/ollama ps", rec)
	if ticket != nil || apperrors.CodeOf(err) != apperrors.ErrCodeServiceUnavailable {
		t.Fatalf("ticket = %v, err = %v", ticket, err)
	}
	want := []string{feedback.KeyPsRunning, feedback.KeyGenericError}
	if keys := rec.Keys(); !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestShutdownCancelsRunningServe(t *testing.T) {
	f := newFixture(t)
	rec := &feedback.Recorder{}

	ticket, err := f.handler.Execute(context.Background(), "ollama serve", rec)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.dispatcher.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	wait(t, ticket)

	if got := ticket.Result().Status; got != process.StatusCanceled {
		t.Errorf("status = %v, want canceled", got)
	}
	if term := rec.Terminal(); len(term) != 1 || term[0].Key != feedback.KeyGenericError {
		t.Errorf("terminal = %+v", term)
	}
}
