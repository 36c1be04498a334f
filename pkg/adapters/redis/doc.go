// Package redis provides Redis-backed partition storage and report distribution.
package redis
