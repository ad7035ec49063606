// Package makefile implements a programmatic Makefile model: variables with
// the different GNU Make assignment kinds, file targets, pattern rules,
// phony targets and clean lists, plus a renderer that writes the result in a
// stable order.
package makefile
