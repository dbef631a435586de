package diagfmt

// PrettyOpts configures Pretty rendering.
type PrettyOpts struct {
	// Color toggles ANSI colors.
	Color bool
}
