// Package mapx provides generic map helpers and utilities for working with
// decoded JSON documents.
package mapx
