// Package pgstore provides a PostgreSQL implementation of the
// authkit.UserStore contract, built on pgx connection pools with optimistic
// version checking on writes.
package pgstore
