// Package spreadsheet reads and writes principal snapshots as Excel
// workbooks.
//
// A workbook carries two sheets. "Users" has the columns Name, Password,
// Display Name, Email, Groups, Visibility; "Groups" has Name, Display Name,
// Description, Groups, Visibility, Privileges. The Groups and Privileges
// cells hold JSON arrays, so multi-valued fields survive the trip through a
// spreadsheet editor.
//
// Columns are located by header name, not position, so administrators can
// reorder or append columns without breaking the reader.
package spreadsheet
