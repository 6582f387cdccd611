// Package scopes models the access scopes attached to a service token.
//
// A scope is a (permission, environment, secret path) triple. Users pick a
// permission label, either read or readWrite, which Normalize expands into
// the permission list the backend stores ([read] or [read, write]).
//
// Secret paths lose a single trailing slash, except the root path "/".
// Environments are slugs of at most 50 characters.
//
// Scope order is kept as entered because it is the order users see and
// submit, but it carries no meaning for authorization.
package scopes
