// Package textutil sanitizes backlog file names into values that are safe to
// use as local file names and directory tokens.
package textutil
