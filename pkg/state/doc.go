// Package state persists the unfollow session across page reloads and
// process restarts
//
// A Store is a small JSON key-value document. FileStore writes it to
// state.json in the per-user data directory using a temp file and rename
// so a crash never leaves a half-written file:
//   - Linux: $XDG_DATA_HOME/tmu or ~/.local/share/tmu
//   - macOS: ~/Library/Application Support/tmu
//   - Windows: %APPDATA%\tmu
//
// Session layers typed accessors over a Store for the run status, run
// options, the running total, the allow-list and the timer settings
package state
