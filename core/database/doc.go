// Package database handles identity database connections.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// MySQL and SQLite connections based on the application's configuration.
//
// # Connect
//
// The generic Connect function establishes a connection to the database. It is agnostic
// to the identity schema; the feature/identitydb package defines the models that are
// read from the connection.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
