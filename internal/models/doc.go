// Package models defines domain entities and persistence interfaces for statify.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs mapped from Spotify Web API responses
//   - [Profile] : The authenticated user
//   - [Artist], [Track], [Play], [Playlist] : Ranked and historical listening data
//   - [GenreCount] : Genres aggregated from top artists
//   - [TokenResponse], [ErrorResponse] : OAuth2 token endpoint payloads
//
// 2. Persistent Entities: Database-backed records
//   - [PendingSignup] : Email addresses awaiting manual allow-listing
//
// Persistent entities implement [Model]; [Repository] defines create/get/delete/list access.
// Pending signups are never updated, so the repository interface has no Update.
package models
