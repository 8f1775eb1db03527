// Package textutil provides filename sanitization for project tokens and
// user-supplied output names.
package textutil
