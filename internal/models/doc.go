// Package models defines the core domain models for the faceguard daemon.
//
// # Models
//
//   - Enrollment: a stored biometric vector bound to an identity
//   - User: a person known to the remote service, with optional expiry
//   - AccessWindow: a weekly time window restricting when a user may enter
//   - Photo: a source-photo descriptor from the remote catalog
//   - Cache: the full local snapshot (users, photos, enrollments, windows)
//   - AccessEvent: the outcome of one access decision, reported upstream
//
// # Design Principles
//
//  1. **Wire compatibility**: JSON tags match the persisted cache document
//     and the remote sync payload, so one set of structs serves both.
//  2. **Local vs remote identities**: enrollments derived from on-device
//     photos have no UserID and carry IsLocal=true; they bypass expiry and
//     schedule checks and are never reported upstream.
//  3. **Derived embeddings only**: embedding vectors are always computed on
//     the device from photo bytes; vectors arriving in a remote payload are
//     discarded, never trusted.
package models
