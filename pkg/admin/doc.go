// Package admin maps the logical queue administration operations onto the
// CUPS command line tools. Every operation is one external invocation; a
// non-zero exit becomes a *ConvergenceError and nothing is retried.
package admin
