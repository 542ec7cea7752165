// Package pdfpages cuts the leading pages out of scanned book PDFs so a vision
// request carries the title page and colophon without the whole scan.
package pdfpages
