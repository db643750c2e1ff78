// Package cli implements the yapplr command-line client: account
// registration, login, password reset and a whoami. The session token from a
// successful login is kept in a private file and sent as a bearer token by
// later commands.
package cli
