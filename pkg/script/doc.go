// Package script evaluates Starlark build scripts that declare a Makefile
// model: variables, flag sets, targets, pattern rules and user-settable
// options. The shell helpers run on mvdan.cc/sh so execute() behaves the
// same on every platform.
package script
