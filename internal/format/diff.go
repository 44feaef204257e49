package format

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffOptions controls diff generation.
type DiffOptions struct {
	Context int // Number of context lines to show
}

// DefaultDiffOptions returns default diff options.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{Context: 3}
}

// Diff returns a unified diff from original to formatted, or "" when they
// are equal.
func Diff(filename, original, formatted string, opts DiffOptions) (string, error) {
	if original == formatted {
		return "", nil
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(formatted),
		FromFile: filename + "\t(original)",
		ToFile:   filename + "\t(formatted)",
		Context:  opts.Context,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", filename, err)
	}
	return text, nil
}

// FormatWithDiff formats source and returns both the formatted text and the
// diff against the input.
func FormatWithDiff(filename, source string, opts Options, diffOpts DiffOptions) (formatted, diff string, err error) {
	formatted, err = File(filename, source, opts, nil)
	if err != nil {
		return "", "", err
	}
	diff, err = Diff(filename, source, formatted, diffOpts)
	return formatted, diff, err
}
