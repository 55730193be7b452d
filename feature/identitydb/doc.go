// Package identitydb reads the desired user and group population from a
// relational identity database.
//
// # Schema
//
// Three tables are expected: users (username, display_name, mail,
// visibility), user_groups (name, display_name, description, visibility),
// and memberships (username, group_name). Rows are read through GORM, so
// both MySQL and SQLite connections from core/database work.
//
// The reader is read-only. Provisioning flows treat the identity database as
// the source of truth and the analytics platform as the target.
package identitydb
