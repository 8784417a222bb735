// Package daemon ties the queue drain loop, the API server, and the
// single-instance lock into one lifecycle.
package daemon
