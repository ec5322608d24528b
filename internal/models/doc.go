// Package models defines domain entities and persistence interfaces for the song vault service.
//
// Persistent entities:
//   - [Song] : A user's catalog entry with tuning and enrichment fields (cover art, duration, Spotify id)
//   - [Playlist] : A named grouping of songs with optional public share token
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
