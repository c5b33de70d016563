package cli

import (
	"fmt"
	"io"

	"github.com/grovetools/ras/errors"
)

// ErrorHandler prints user-friendly messages for coded errors
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a handler writing to out
func NewErrorHandler(out io.Writer, verbose bool) *ErrorHandler {
	return &ErrorHandler{Verbose: verbose, Out: out}
}

// Handle prints err and returns it unchanged
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	rasErr, ok := errors.As(err)
	if !ok {
		fmt.Fprintf(h.Out, "%s %v\n", errorStyle.Render("Error:"), err)
		return err
	}

	switch rasErr.Code {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "%s no ras.yml found\n", errorStyle.Render("Error:"))
		fmt.Fprintln(h.Out, mutedStyle.Render("Run ras inside a workspace, set RAS_DOCKER_PATH or pass --config."))

	case errors.ErrCodeManifestNotFound:
		fmt.Fprintf(h.Out, "%s manifest %v does not exist\n", errorStyle.Render("Error:"), rasErr.Details["path"])
		fmt.Fprintln(h.Out, mutedStyle.Render("Check the apps and assets in ras.yml against the workspace repository."))

	case errors.ErrCodeCorruptRepository:
		fmt.Fprintf(h.Out, "%s %v is not a checkout of %v\n", errorStyle.Render("Error:"), rasErr.Details["path"], rasErr.Details["url"])
		fmt.Fprintln(h.Out, mutedStyle.Render("Move it aside or run 'ras clear' to start over."))

	case errors.ErrCodeNotInitialized:
		fmt.Fprintf(h.Out, "%s %v has not been checked out\n", errorStyle.Render("Error:"), rasErr.Details["path"])
		fmt.Fprintln(h.Out, mutedStyle.Render("Run 'ras init' first."))

	case errors.ErrCodeCommandNotFound:
		fmt.Fprintf(h.Out, "%s %s\n", errorStyle.Render("Error:"), rasErr.Message)
		fmt.Fprintln(h.Out, mutedStyle.Render("Make sure git is installed and on PATH."))

	case errors.ErrCodeAggregatedOperation:
		fmt.Fprintf(h.Out, "%s %s\n", errorStyle.Render("Error:"), rasErr.Message)
		h.printFailures(rasErr, "  ")

	default:
		fmt.Fprintf(h.Out, "%s %s\n", errorStyle.Render("Error:"), rasErr.Message)
		if rasErr.Cause != nil && !h.Verbose {
			fmt.Fprintf(h.Out, "  %v\n", rasErr.Cause)
		}
	}

	if h.Verbose {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", rasErr.ToJSON())
	}
	return err
}

// printFailures lists every failure of an aggregated error, descending
// into nested aggregates.
func (h *ErrorHandler) printFailures(rasErr *errors.RasError, indent string) {
	for _, failure := range rasErr.Failures() {
		if nested, ok := errors.As(failure); ok && nested.Code == errors.ErrCodeAggregatedOperation {
			fmt.Fprintf(h.Out, "%s%s %s\n", indent, errorStyle.Render("✗"), nested.Message)
			h.printFailures(nested, indent+"  ")
			continue
		}
		fmt.Fprintf(h.Out, "%s%s %v\n", indent, errorStyle.Render("✗"), failure)
	}
}
