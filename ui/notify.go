package ui

import (
	"fmt"
	"io"
	"os"
)

// ConsoleNotifier prints the workflow's transient messages, the terminal
// counterpart of corner toasts.
type ConsoleNotifier struct {
	out io.Writer
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stderr
	}
	return &ConsoleNotifier{out: out}
}

func (n *ConsoleNotifier) Success(msg string) {
	fmt.Fprintln(n.out, msg)
}

func (n *ConsoleNotifier) Failure(msg string) {
	fmt.Fprintln(n.out, "Error:", msg)
}
