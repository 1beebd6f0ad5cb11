package cli

import (
	"fmt"
	"io"
)

// printer writes progress messages unless silenced
type printer struct {
	w      io.Writer
	silent bool
}

func (p *printer) println(msg string) {
	if !p.silent {
		fmt.Fprintln(p.w, msg)
	}
}

func (p *printer) printf(format string, args ...interface{}) {
	if !p.silent {
		fmt.Fprintf(p.w, format, args...)
	}
}
