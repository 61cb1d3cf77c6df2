package command

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Tag describes where a command came from.
type Tag struct {
	Description string
	File        string
	Line        int
}

// Here returns a Tag for the caller's source location.
func Here(description string) Tag {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		return Tag{Description: description}
	}
	return Tag{Description: description, File: file, Line: line}
}

// At returns a Tag for a caller further up the stack. At(0, d) is
// Here(d); At(1, d) names the caller of the function calling At.
func At(skip int, description string) Tag {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Tag{Description: description}
	}
	return Tag{Description: description, File: file, Line: line}
}

// Location returns "file.go:42", or "" when unknown.
func (t Tag) Location() string {
	if t.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(t.File), t.Line)
}

// String returns the description followed by the location.
func (t Tag) String() string {
	if loc := t.Location(); loc != "" {
		return t.Description + " (" + loc + ")"
	}
	return t.Description
}
