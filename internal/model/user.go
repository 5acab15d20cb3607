package model

import "time"

// User represents an application user record as stored in the
// `users` table. Passwords are never kept in plaintext; only the
// bcrypt hash is persisted.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  RegisteredAt – timestamp of registration (UTC).
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    RegisteredAt time.Time // users.registered_at
}

// Session models an entry in the `sessions` table. Each session
// belongs to a user and contains metadata for expiry and
// revocation. The raw session id travels inside the signed cookie;
// only its SHA‑256 hash is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  TokenHash – SHA‑256 hex digest of the raw session id.
//  ExpiresAt – expiration timestamp of the session.
//  RevokedAt – when the session was ended by logout (nil while active).
//  CreatedAt – timestamp of creation.
type Session struct {
    ID        uint64     // sessions.id
    UserID    uint64     // sessions.user_id
    TokenHash string     // sessions.token_hash
    ExpiresAt time.Time  // sessions.expires_at
    RevokedAt *time.Time // sessions.revoked_at (nullable)
    CreatedAt time.Time  // sessions.created_at
}
