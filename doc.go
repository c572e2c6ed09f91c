// Package accounts provides the account and credential lifecycle:
// registration, email verification, password login, and JWT issuance,
// built over a generic typed persistence layer.
//
// Account lifecycle:
//   - Accounts are created unverified, carrying a random verification
//     code with a 24 hour expiry. A single successful VerifyEmail call
//     moves the account to verified and clears the code; the transition
//     is one-way.
//   - Login is gated on the verified state. Unknown email and password
//     mismatch collapse into one credential error so callers cannot
//     enumerate accounts.
//
// Persistence:
//   - The generic store.Store and store.Service types give every entity
//     uniform CRUD, transaction, and error-normalization semantics; the
//     repository package specializes them for accounts and password
//     resets. All state lives in the database, read and written
//     per-request.
package accounts
