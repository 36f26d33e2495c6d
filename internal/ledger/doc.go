// Package ledger persists the upload history in SQLite: which remote records
// were created and which source-record identities produced them, plus the
// reverse index used to detect already-uploaded work. A ledger is opened
// exclusively for one run and every mutation commits durably before the next
// record is processed.
package ledger
