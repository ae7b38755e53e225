package loggerwriter

import (
	"bufio"
	"io"
	"io/ioutil"

	"github.com/itchio/wharf/state"
)

// Writer forwards every line written to it as a log message
// on a consumer. Close must be called once the producer is done,
// it returns after the last line has been logged.
type Writer struct {
	pw   *io.PipeWriter
	done chan struct{}
}

var _ io.WriteCloser = (*Writer)(nil)

// New returns a Writer that, when a line is written to it, logs it
// to the consumer with the given prefix. Lines prefixed "err" are
// logged as warnings.
func New(consumer *state.Consumer, prefix string) *Writer {
	pr, pw := io.Pipe()
	done := make(chan struct{})

	go func() {
		defer close(done)

		// note: we don't care terribly about bufio.Scanner error
		// conditions for this.
		s := bufio.NewScanner(pr)

		for s.Scan() {
			if prefix == "err" {
				consumer.Warnf("[%s] %s", prefix, s.Text())
			} else {
				consumer.Infof("[%s] %s", prefix, s.Text())
			}
		}

		// the scanner gives up on very long lines, keep the pipe
		// moving so the child process never blocks on its output
		io.Copy(ioutil.Discard, pr)
	}()

	return &Writer{
		pw:   pw,
		done: done,
	}
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *Writer) Close() error {
	err := w.pw.Close()
	<-w.done
	return err
}
