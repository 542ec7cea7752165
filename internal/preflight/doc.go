// Package preflight provides readiness checks for the filesystem paths and
// the vision provider that ocr-rename depends on.
//
// The CLI "ocr-rename status" command runs them so a misconfigured key or an
// unwritable output directory shows up before a long analysis starts.
package preflight
