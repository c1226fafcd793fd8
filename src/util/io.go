package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Writer buffers output from worker goroutines in a strings.Builder. When Flush or Close is called the
// buffer is emptied and sent to the designated output writer over the Writer's channel. Used when
// per-function codegen or MIR dump work runs concurrently (compiler.Config.Threads > 1) but must still
// land in one ordered output file.
type Writer struct {
	sb strings.Builder
	c  chan string
}

// ---------------------
// ----- Constants -----
// ---------------------

var wc chan string     // Write channel used for receiving data from worker threads.
var cc chan error      // Close channel used by main thread to signal to end write operations.
var wg *sync.WaitGroup // used for synchronising when I/O finished writing to output.

// ---------------------
// ----- Functions -----
// ---------------------

// Write writes a format string to the Writer's buffer.
func (w *Writer) Write(format string, args ...interface{}) {
	w.sb.WriteString(fmt.Sprintf(format, args...))
}

// WriteString writes a plain string to the Writer's buffer.
func (w *Writer) WriteString(s string) {
	w.sb.WriteString(s)
}

// Flush empties the Writer's buffer and sends the buffer data to the
// designated output writer over the Writer's channel.
func (w *Writer) Flush() {
	w.c <- w.sb.String()
	w.sb = strings.Builder{}
}

// Close flushes the Writer's buffer and then closes the Writer's channel. The caller must have called
// wg.Add(1) (via the same *sync.WaitGroup passed to ListenWrite) before spawning the goroutine that
// owns this Writer; Close is that goroutine's matching wg.Done, the same split-ownership this module's
// other worker-pool loops use (wg.Add before `go func(){...}`, wg.Done deferred inside it).
func (w *Writer) Close() {
	w.Flush()
	w.c = nil
	wg.Done()
}

// NewWriter returns a new Writer to be used by worker threads to write strings concurrently to the
// output buffer. Must not be called before main thread has called ListenWrite.
func NewWriter() Writer {
	return Writer{
		sb: strings.Builder{},
		c:  wc,
	}
}

// ReadSource reads the source file at path in full.
func ReadSource(path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}

// ListenWrite listens for worker thread outputs. The received data is written to either file
// if File pointer f is not nil or stdout if File pointer f is nil. The function loops until
// a termination signal is sent using the Close function. threads should be the number of
// concurrent writers that will call NewWriter; pass 1 when output must stay ordered, such as
// textual LLVM IR, since enumeration order depends on the module's own internal iteration.
func ListenWrite(threads int, f *os.File, wgg *sync.WaitGroup) {
	wg = wgg
	if threads > 1 {
		wc = make(chan string, threads+1)
	} else {
		wc = make(chan string, 1)
	}
	cc = make(chan error, 1) // Make buffered to catch Close before listener is invoked.
	var w *bufio.Writer
	if f != nil {
		// Write output to file.
		w = bufio.NewWriter(f)
	} else {
		// Write output to stdout.
		w = bufio.NewWriter(os.Stdout)
	}

	// Listen for input and termination signal.
	go func(wc chan string, cc chan error) {
		defer close(wc)
		defer close(cc)
		for {
			select {
			case s := <-wc:
				if _, err := w.WriteString(s); err != nil {
					fmt.Println(err) // TODO: Handle better.
				}
				if err := w.Flush(); err != nil {
					fmt.Println(err) // TODO: Handle better.
				}
			case <-cc:
				return
			}
		}
	}(wc, cc)
}

// Close sends the termination signal to the writer listener.
func Close() {
	cc <- nil
}
