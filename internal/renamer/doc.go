// Package renamer turns approved review records into a collision-free rename
// plan, executes it against a directory, and replays the resulting log in
// reverse to undo it.
//
// The directory is the only shared state. Every existence check happens at
// operation time, and a per-directory advisory lock keeps two local runs from
// racing each other.
package renamer
