package process_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	apperrors "github.com/kbukum/ollamacmd/errors"
	"github.com/kbukum/ollamacmd/feedback"
	"github.com/kbukum/ollamacmd/process"
)

// fakeOllama writes an executable shell script standing in for ollama.
func fakeOllama(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ollama")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake ollama: %v", err)
	}
	return path
}

func newRunner(t *testing.T, body string, timeout time.Duration) *process.Runner {
	t.Helper()
	return process.NewRunner(process.Config{
		Binary:      fakeOllama(t, body),
		Timeout:     timeout,
		GracePeriod: 500 * time.Millisecond,
	}, nil)
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus process.Status
		wantCode   int
		wantKey    string
	}{
		{"success", `echo "NAME ID"; exit 0`, process.StatusSucceeded, 0, feedback.KeyListSuccess},
		{"exit one", `echo "boom" >&2; exit 1`, process.StatusFailed, 1, feedback.KeyGenericError},
		{"exit 127", `exit 127`, process.StatusFailed, 127, feedback.KeyGenericError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRunner(t, tt.body, 10*time.Second)
			rec := &feedback.Recorder{}

			res := r.Run(context.Background(), r.Invocation(process.SubList, ""), rec)

			if res.Status != tt.wantStatus {
				t.Fatalf("status = %v, want %v (err %v)", res.Status, tt.wantStatus, res.Err)
			}
			if res.ExitCode != tt.wantCode {
				t.Errorf("exit code = %d, want %d", res.ExitCode, tt.wantCode)
			}
			term := rec.Terminal()
			if len(term) != 1 {
				t.Fatalf("terminal messages = %d, want 1", len(term))
			}
			if term[0].Key != tt.wantKey {
				t.Errorf("terminal key = %q, want %q", term[0].Key, tt.wantKey)
			}
			if tt.wantStatus == process.StatusFailed && apperrors.CodeOf(res.Err) != apperrors.ErrCodeNonZeroExit {
				t.Errorf("error code = %v, want NON_ZERO_EXIT", apperrors.CodeOf(res.Err))
			}
		})
	}
}

func TestRunStreamsAndPrefixesStderr(t *testing.T) {
	r := newRunner(t, `echo out-1; echo err-1 >&2; printf 'no-newline'`, 10*time.Second)
	rec := &feedback.Recorder{}

	res := r.Run(context.Background(), r.Invocation(process.SubPs, ""), rec)
	if !res.OK() {
		t.Fatalf("status = %v, err %v", res.Status, res.Err)
	}

	stdout := rec.Lines(feedback.StreamStdout)
	if len(stdout) != 2 || stdout[0] != "out-1" || stdout[1] != "no-newline" {
		t.Errorf("stdout lines = %q", stdout)
	}
	stderr := rec.Lines(feedback.StreamStderr)
	if len(stderr) != 1 || stderr[0] != process.DefaultErrorPrefix+"err-1" {
		t.Errorf("stderr lines = %q", stderr)
	}
	if res.StdoutLines != 2 || res.StderrLines != 1 {
		t.Errorf("line counts = %d/%d, want 2/1", res.StdoutLines, res.StderrLines)
	}
	if got := rec.Terminal(); len(got) != 1 || got[0].Key != feedback.KeyPsSuccess {
		t.Errorf("terminal = %+v", got)
	}
}

func TestRunPassesModelArgument(t *testing.T) {
	r := newRunner(t, `echo "$1:$2"; echo "argc=$#"`, 10*time.Second)
	rec := &feedback.Recorder{}

	inv := r.Invocation(process.SubRun, "llama3")
	res := r.Run(context.Background(), inv, rec)
	if !res.OK() {
		t.Fatalf("status = %v, err %v", res.Status, res.Err)
	}
	lines := rec.Lines(feedback.StreamStdout)
	if len(lines) != 2 || lines[0] != "run:llama3" || lines[1] != "argc=2" {
		t.Fatalf("lines = %q", lines)
	}
	term := rec.Terminal()
	if len(term) != 1 || term[0].Key != feedback.KeyRunSuccess || len(term[0].Args) != 1 || term[0].Args[0] != "llama3" {
		t.Errorf("terminal = %+v", term)
	}
}

func TestRunOnlyRunTakesArgument(t *testing.T) {
	r := newRunner(t, `echo "argc=$#"`, 10*time.Second)
	rec := &feedback.Recorder{}

	r.Run(context.Background(), r.Invocation(process.SubList, "ignored"), rec)
	if lines := rec.Lines(feedback.StreamStdout); len(lines) != 1 || lines[0] != "argc=1" {
		t.Fatalf("lines = %q", lines)
	}
}

func TestRunTimeout(t *testing.T) {
	r := newRunner(t, `echo starting; sleep 30`, 300*time.Millisecond)
	rec := &feedback.Recorder{}

	start := time.Now()
	res := r.Run(context.Background(), r.Invocation(process.SubServe, ""), rec)
	elapsed := time.Since(start)

	if res.Status != process.StatusTimedOut {
		t.Fatalf("status = %v, want timed_out (err %v)", res.Status, res.Err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("run took %v, process was not killed promptly", elapsed)
	}
	term := rec.Terminal()
	if len(term) != 1 || term[0].Key != feedback.KeyTimeout {
		t.Fatalf("terminal = %+v, want one timeout message", term)
	}
	if apperrors.CodeOf(res.Err) != apperrors.ErrCodeTimeout {
		t.Errorf("error code = %v", apperrors.CodeOf(res.Err))
	}
}

func TestRunTimeoutWithInheritedPipes(t *testing.T) {
	// The background child keeps stdout open after the script exits.
	r := newRunner(t, `sleep 30 & echo detached`, 300*time.Millisecond)
	rec := &feedback.Recorder{}

	start := time.Now()
	res := r.Run(context.Background(), r.Invocation(process.SubList, ""), rec)

	if res.Status != process.StatusTimedOut {
		t.Fatalf("status = %v, want timed_out", res.Status)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("drains were not released by the deadline")
	}
	if lines := rec.Lines(feedback.StreamStdout); len(lines) != 1 || lines[0] != "detached" {
		t.Errorf("lines = %q", lines)
	}
}

func TestRunUnboundedWhenTimeoutZero(t *testing.T) {
	r := process.NewRunner(process.Config{
		Binary:   fakeOllama(t, `sleep 0.2; echo ok`),
		Timeouts: map[string]time.Duration{"serve": 0},
	}, nil)

	inv := r.Invocation(process.SubServe, "")
	if inv.Timeout != 0 {
		t.Fatalf("serve timeout = %v, want 0", inv.Timeout)
	}
	if got := r.Invocation(process.SubList, "").Timeout; got != process.DefaultTimeout {
		t.Fatalf("list timeout = %v, want %v", got, process.DefaultTimeout)
	}

	res := r.Run(context.Background(), inv, &feedback.Recorder{})
	if !res.OK() {
		t.Fatalf("status = %v, err %v", res.Status, res.Err)
	}
}

func TestRunHighVolumeNoDeadlock(t *testing.T) {
	const n = 10000
	body := fmt.Sprintf(`i=0
while [ $i -lt %d ]; do
  echo "out $i"
  echo "err $i" >&2
  i=$((i+1))
done`, n)
	r := newRunner(t, body, 60*time.Second)
	rec := &feedback.Recorder{}

	res := r.Run(context.Background(), r.Invocation(process.SubList, ""), rec)
	if !res.OK() {
		t.Fatalf("status = %v, err %v", res.Status, res.Err)
	}

	stdout := rec.Lines(feedback.StreamStdout)
	stderr := rec.Lines(feedback.StreamStderr)
	if len(stdout) != n || len(stderr) != n {
		t.Fatalf("got %d stdout and %d stderr lines, want %d each", len(stdout), len(stderr), n)
	}
	for i := 0; i < n; i++ {
		if want := fmt.Sprintf("out %d", i); stdout[i] != want {
			t.Fatalf("stdout[%d] = %q, want %q", i, stdout[i], want)
		}
		if want := fmt.Sprintf("%serr %d", process.DefaultErrorPrefix, i); stderr[i] != want {
			t.Fatalf("stderr[%d] = %q, want %q", i, stderr[i], want)
		}
	}
	if len(rec.Terminal()) != 1 {
		t.Errorf("terminal messages = %d, want 1", len(rec.Terminal()))
	}
}

func TestRunLaunchError(t *testing.T) {
	before := runtime.NumGoroutine()

	r := process.NewRunner(process.Config{Binary: filepath.Join(t.TempDir(), "missing-ollama")}, nil)
	rec := &feedback.Recorder{}
	res := r.Run(context.Background(), r.Invocation(process.SubList, ""), rec)

	if res.Status != process.StatusLaunchError {
		t.Fatalf("status = %v, want launch_error", res.Status)
	}
	if apperrors.CodeOf(res.Err) != apperrors.ErrCodeLaunchFailed {
		t.Errorf("error code = %v", apperrors.CodeOf(res.Err))
	}
	msgs := rec.Messages()
	if len(msgs) != 1 || msgs[0].Key != feedback.KeyGenericError || !msgs[0].Terminal {
		t.Fatalf("messages = %+v, want a single generic error", msgs)
	}
	if !strings.Contains(res.Err.Error(), "not found") {
		t.Errorf("error %q does not name the cause", res.Err)
	}

	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if after := runtime.NumGoroutine(); after > before {
		t.Errorf("goroutines leaked: before %d, after %d", before, after)
	}
}

func TestRunPermissionDenied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ollama")
	if err := os.WriteFile(path, []byte("#!/bin/sh\necho hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := process.NewRunner(process.Config{Binary: path}, nil)
	rec := &feedback.Recorder{}

	res := r.Run(context.Background(), r.Invocation(process.SubPs, ""), rec)
	if res.Status != process.StatusLaunchError {
		t.Fatalf("status = %v, want launch_error", res.Status)
	}
	if len(rec.Messages()) != 1 {
		t.Errorf("messages = %d, want 1", len(rec.Messages()))
	}
}

func TestRunSinkPanicBecomesStreamError(t *testing.T) {
	r := newRunner(t, `echo first; sleep 30`, 30*time.Second)

	var terminal []feedback.Message
	sink := feedback.SinkFunc(func(msg feedback.Message) {
		if msg.Terminal {
			terminal = append(terminal, msg)
			return
		}
		panic("sink exploded")
	})

	start := time.Now()
	res := r.Run(context.Background(), r.Invocation(process.SubList, ""), sink)
	if res.Status != process.StatusStreamError {
		t.Fatalf("status = %v, want stream_error", res.Status)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("process was not killed after the stream failure")
	}
	if len(terminal) != 1 || terminal[0].Key != feedback.KeyGenericError {
		t.Fatalf("terminal = %+v", terminal)
	}
	if apperrors.CodeOf(res.Err) != apperrors.ErrCodeStreamFailed {
		t.Errorf("error code = %v", apperrors.CodeOf(res.Err))
	}
}

func TestRunLineTooLong(t *testing.T) {
	r := process.NewRunner(process.Config{
		Binary:       fakeOllama(t, `head -c 4096 /dev/zero | tr '\0' 'x'; echo`),
		MaxLineBytes: 1024,
	}, nil)
	rec := &feedback.Recorder{}

	res := r.Run(context.Background(), r.Invocation(process.SubList, ""), rec)
	if res.Status != process.StatusStreamError {
		t.Fatalf("status = %v, want stream_error", res.Status)
	}
	if len(rec.Terminal()) != 1 {
		t.Errorf("terminal messages = %d, want 1", len(rec.Terminal()))
	}
}

func TestRunCanceled(t *testing.T) {
	r := newRunner(t, `sleep 30`, 30*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	rec := &feedback.Recorder{}
	res := r.Run(ctx, r.Invocation(process.SubServe, ""), rec)
	if res.Status != process.StatusCanceled {
		t.Fatalf("status = %v, want canceled", res.Status)
	}
	if term := rec.Terminal(); len(term) != 1 || term[0].Key != feedback.KeyGenericError {
		t.Fatalf("terminal = %+v", term)
	}
}

func TestRunAlreadyCanceled(t *testing.T) {
	r := newRunner(t, `echo never`, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &feedback.Recorder{}
	res := r.Run(ctx, r.Invocation(process.SubList, ""), rec)
	if res.Status != process.StatusCanceled {
		t.Fatalf("status = %v", res.Status)
	}
	if len(rec.Lines(feedback.StreamStdout)) != 0 {
		t.Error("process should not have been started")
	}
}

func TestRunEnvIsInheritedAndExtended(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "127.0.0.1:11434")
	r := process.NewRunner(process.Config{
		Binary: fakeOllama(t, `echo "$OLLAMA_HOST $EXTRA"`),
		Env:    []string{"EXTRA=yes"},
	}, nil)
	rec := &feedback.Recorder{}

	r.Run(context.Background(), r.Invocation(process.SubPs, ""), rec)
	if lines := rec.Lines(feedback.StreamStdout); len(lines) != 1 || lines[0] != "127.0.0.1:11434 yes" {
		t.Fatalf("lines = %q", lines)
	}
}
