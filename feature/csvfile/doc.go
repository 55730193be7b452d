// Package csvfile reads and writes users as delimited files.
//
// The format is one user per row with the header columns name, password,
// mail, groups, visibility. The groups column holds a semicolon-separated
// list of group names; referenced groups are synthesized on read so the
// resulting snapshot is self-contained.
//
// CSV carries users only. Group attributes beyond the name (description,
// privileges) do not survive a round trip; use the spreadsheet or JSON
// formats when they matter.
package csvfile
