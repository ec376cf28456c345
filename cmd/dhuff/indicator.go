package main

import (
	"fmt"
	"io"
	"os"
)

type indicator struct {
	quiet bool
	out   io.Writer
}

func (i indicator) writer() io.Writer {
	if i.out == nil {
		return os.Stdout
	}
	return i.out
}

func (i indicator) start(name, msg string) {
	if i.quiet {
		return
	}
	fmt.Fprintf(i.writer(), "%s\t- %s", name, msg)
}

func (i indicator) finish(msg string) {
	if i.quiet {
		return
	}
	fmt.Fprintf(i.writer(), " %s\n", msg)
}

// finishRatio reports the packed size in tenths of a percent of the original.
func (i indicator) finishRatio(msg string, packed, original int64) {
	if i.quiet {
		return
	}
	ratio := int64(1000)
	if original > 0 {
		ratio = packed * 1000 / original
	}
	fmt.Fprintf(i.writer(), " %s(%d.%d%%)\n", msg, ratio/10, ratio%10)
}
