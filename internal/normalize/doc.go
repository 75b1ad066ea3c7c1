// Package normalize rewrites retrieved WGS sequence archives into one
// canonical FASTA form.
//
// Each archive is a gzip-compressed FASTA file whose headers come in one of
// two encodings:
//
//   - New format: already canonical, the project id appears within the
//     first 7 characters of the first line. The file is copied through
//     byte for byte.
//   - Old format: the accession and description are joined by a pipe, e.g.
//     "AAAB01000001.1|Some description". Every header line is rewritten to
//     ">accession description"; sequence lines pass through unchanged.
//
// Malformed or empty content is a corruption fault. It is reported as a
// *CorruptError and must never be retried: re-reading a local file cannot
// change its bytes.
package normalize
