// Package platform implements the REST client for the analytics platform's
// public user and group APIs.
//
// # Authentication
//
// The client logs in with the configured admin credentials and keeps the
// session cookie in a jar. A request answered with 401 triggers a single
// re-login and retry, so long-running syncs survive session expiry.
//
// # Operations
//
//   - FetchUsersAndGroups: downloads all principals as a snapshot.
//   - SyncPrincipals: uploads a snapshot to the bulk sync endpoint.
//   - DeleteUsers / DeleteGroups: resolves names to platform ids through the
//     metadata headers endpoint, then deletes by id. Names that cannot be
//     resolved are skipped and reported, not fatal.
//   - TransferOwnership: moves all objects from one user to another.
//   - UpdateUserPassword: sets a new password for a single user.
//
// The Client interface is mocked in core/platform/mocks for feature tests.
package platform
