package main

import (
	"errors"
	"fmt"
	"io"
)

// shownError is a failure the command already rendered, e.g. as the
// dashboard's empty-state message. It still sets the exit status.
type shownError struct{ error }

func (e shownError) Unwrap() error { return e.error }

// reportError prints err unless the command already showed it.
func reportError(w io.Writer, err error) {
	var shown shownError
	if errors.As(err, &shown) {
		return
	}
	fmt.Fprintln(w, "Error:", err)
}
