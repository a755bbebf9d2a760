//go:build !kcoredebug

package bucket

const debugChecks = false
