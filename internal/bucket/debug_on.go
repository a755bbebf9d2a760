//go:build kcoredebug

package bucket

// debugChecks enables invariant assertions; build with -tags kcoredebug.
const debugChecks = true
