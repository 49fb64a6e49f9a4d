// Package repositories implements SQLite persistence for statify.
//
// Key Implementations:
//   - [PendingSignupRepository] : The pending_users queue of email addresses awaiting allow-listing.
//     Records are created and hard-deleted; there is no update path.
//   - [KeyValueRepository] : The client-side kv_store table backing the session store
//     (access token and curated playlist).
//
// Missing rows surface as [shared.ErrNotFound] so HTTP handlers can map them to 404.
package repositories
