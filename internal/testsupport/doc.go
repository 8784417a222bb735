// Package testsupport provides shared helpers for package tests: temp-dir
// configs with fast intervals and pre-opened stores.
package testsupport
