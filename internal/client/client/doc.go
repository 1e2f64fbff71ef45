// Package client contains the client-side building blocks shared by both
// backends of AllergoZyme.
//
// # Overview
//
// The package provides:
//  1. The contract of the hosted auth + table service (see Service) that the
//     remote adapter depends on. The Postgres implementation lives in
//     internal/server/services.
//  2. Local persistence bootstrap (InitDatabase, RunMigrations): the SQLite
//     database that plays the part of browser storage, migrated with the
//     embedded goose migrations.
//
// # Error Handling
//
// Service implementations return *common.Error values for conditions the
// user should see (conflicts, bad credentials, missing rows). Anything else
// is a connection or database failure and is surfaced as a network error.
package client
