// Package language normalizes the language codes that appear in catalog rows
// and configuration.
//
// TMDB reports original_language as ISO 639-1, but hand-edited configs and
// imported datasets also carry ISO 639-2 codes, BCP 47 tags such as "en-US",
// or plain English words. Everything is folded to the two-letter base so the
// fetch filter compares like with like.
package language
