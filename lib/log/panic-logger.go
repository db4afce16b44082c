package log

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

// PanicHandler writes the panic value and a stack trace to a crash log in
// the temp dir and to stderr, then panics again. Use it deferred at the top
// of main and of every goroutine.
func PanicHandler() {
	r := recover()
	if r == nil {
		return
	}

	filename := time.Now().Format("mailthread-crash-20060102-150405.log")
	filename = os.TempDir() + string(os.PathSeparator) + filename

	panicLog, err := os.OpenFile(filename,
		os.O_SYNC|os.O_APPEND|os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		// we tried, not possible. bye
		panic(r)
	}
	defer panicLog.Close()

	outputs := io.MultiWriter(panicLog, os.Stderr)

	// if any error happens here, we do not care.
	fmt.Fprintln(panicLog, strings.Repeat("#", 80))
	fmt.Fprint(panicLog, strings.Repeat(" ", 34))
	fmt.Fprintln(panicLog, "PANIC CAUGHT!")
	fmt.Fprint(panicLog, strings.Repeat(" ", 24))
	fmt.Fprintln(panicLog, time.Now().Format("2006-01-02T15:04:05.000000-0700"))
	fmt.Fprintln(panicLog, strings.Repeat("#", 80))
	fmt.Fprintf(outputs, "%s\n", panicMessage)
	fmt.Fprintf(panicLog, "Error: %v\n\n", r)
	panicLog.Write(debug.Stack()) //nolint:errcheck // we are crashing anyway
	fmt.Fprintf(os.Stderr, "\nThis error was also written to: %s\n", filename)
	panic(r)
}

const panicMessage = `
mailthread has encountered a critical error and has terminated. Please send
this log along with the mailbox (or just its headers) that triggered it.
`
