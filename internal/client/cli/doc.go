// Package cli implements authctl, a small command-line client for the auth
// service. Called with a subcommand it performs one RPC and prints the result
// as JSON; called without one it starts an interactive shell that keeps the
// session between commands.
//
// Subcommands
//
//	register [-first NAME] [-last NAME] [-email EMAIL] [-phone E164]
//	login    [-email EMAIL]
//	refresh  -token REFRESH_TOKEN
//	revoke   -token REFRESH_TOKEN
//	validate -token ACCESS_TOKEN
//
// Missing fields are prompted for; passwords are always read from the
// terminal without echo.
package cli
