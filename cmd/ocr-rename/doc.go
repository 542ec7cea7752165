// Command ocr-rename identifies scanned PDF books with a vision model, writes
// a review dataset for a human to approve, renames the approved files without
// collisions, and undoes a rename run from its log.
//
// Subcommands:
//
//	analyze <dir>                 identify PDFs (concurrently, or as a message batch)
//	rename <review> --dir <dir>   apply approved rows from a review CSV/XLSX
//	undo <log> --dir <dir>        reverse a rename run
//	batch status|results|list     follow submitted batches
//	config init|validate          manage the configuration file
package main
