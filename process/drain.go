package process

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	apperrors "github.com/kbukum/ollamacmd/errors"
	"github.com/kbukum/ollamacmd/feedback"
)

const initialLineBuffer = 64 * 1024

// drain reads r line by line until end-of-stream and emits each line.
// Read errors and sink panics are reported on p.failed, never raised.
func (p *supervised) drain(wg *sync.WaitGroup, r io.Reader, stream feedback.Stream, prefix string, maxLine int, out feedback.Sink, count *int) {
	defer wg.Done()
	defer func() {
		if v := recover(); v != nil {
			p.fail(apperrors.StreamFailed(string(stream), fmt.Errorf("panic: %v", v)))
		}
	}()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(initialLineBuffer, maxLine)), maxLine)
	for sc.Scan() {
		out.Emit(feedback.Line(stream, prefix+sc.Text()))
		*count++
	}
	if err := sc.Err(); err != nil {
		p.fail(apperrors.StreamFailed(string(stream), err))
	}
}

// fail records the first failures without blocking.
func (p *supervised) fail(err error) {
	select {
	case p.failed <- err:
	default:
	}
}
