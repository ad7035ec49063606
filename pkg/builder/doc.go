// Package builder assembles compiler command lines from configured flag
// sets and executes them directly, without generating a Makefile first.
// Commands run through an embedded POSIX shell interpreter so behavior is
// identical across platforms.
package builder
