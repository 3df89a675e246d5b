// Package output renders run reports, fixture listings and run history for
// the terminal, with colours when writing to a TTY.
package output
