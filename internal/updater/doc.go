// Package updater installs new bundle versions into the cache. ApplyUpdate
// fetches the version's archive into the staging area, verifies it, extracts
// it into a fresh slot, verifies the bundle, and only then activates it by
// writing the update record. Every failure leaves the previously active
// bundle and the record untouched.
package updater
