package main

import (
	stderrors "errors"
	"fmt"
	"io"

	"typeidx/internal/errors"
)

// printError writes err to w. Coded errors carry their suggested fixes; in
// json and yaml format the error is printed as a document.
func printError(w io.Writer, err error, format OutputFormat) {
	var te *errors.TypeIdxError
	if !stderrors.As(err, &te) {
		te = errors.NewError(errors.InternalError, err.Error(), nil, nil)
	}
	if len(te.SuggestedFixes) == 0 {
		te.SuggestedFixes = errors.GetSuggestedFixes(te.Code)
	}

	if format == FormatJSON || format == FormatYAML {
		doc := struct {
			Error *errors.TypeIdxError `json:"error" yaml:"error"`
			Cause string               `json:"cause,omitempty" yaml:"cause,omitempty"`
		}{Error: te}
		if cause := te.Unwrap(); cause != nil {
			doc.Cause = cause.Error()
		}
		if out, ferr := FormatResponse(doc, format); ferr == nil {
			fmt.Fprintln(w, out)
			return
		}
	}

	fmt.Fprintf(w, "Error [%s]: %s\n", te.Code, te.Message)
	if cause := te.Unwrap(); cause != nil {
		fmt.Fprintf(w, "  Cause: %v\n", cause)
	}
	for _, fix := range te.SuggestedFixes {
		switch fix.Type {
		case errors.RunCommand:
			fmt.Fprintf(w, "  Try: %s\n", fix.Command)
		case errors.OpenDocs:
			fmt.Fprintf(w, "  See: %s\n", fix.URL)
		}
	}
}
