// Package watcher keeps the missing flag of registered working copies
// in sync with the filesystem. It watches the parent directory of each
// registered path with fsnotify and reconciles the full set on a
// periodic tick, flipping the flag through the store whenever a
// working copy disappears or reappears.
package watcher
