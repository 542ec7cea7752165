// Package language normalizes the language a vision model reports for a book
// into ISO 639-1 codes and display names.
//
// Models answer with a mix of two-letter codes, bibliographic three-letter
// codes and English words ("ar", "ara", "Arabic"); review files always carry
// the two-letter form when the language is recognized.
package language
