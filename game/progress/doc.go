// Package progress remembers which orbs and fragments a player has already
// collected, so they stay gone on later plays of a level.
//
// Two backends implement Store: JSONStore writes a single JSON file (or
// nothing, with an empty path) and PostgresStore keeps a collectibles
// table. Open selects one by name, matching the PROGRESS_STORE setting.
package progress
