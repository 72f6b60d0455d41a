// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// models.go — a User type whose package name collides with ../../b/models.

// Package models holds codec test fixtures.
package models

// User has the same name and layout in both fixture packages.
type User struct {
	ID   int    `msgpack:"id"`
	Name string `msgpack:"name"`
}
