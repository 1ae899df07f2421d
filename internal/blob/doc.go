// Package blob stores cached image files on the local filesystem, grouped
// into one directory per patient key. Writes are atomic (temp file + rename)
// and the whole tree can be deleted in one call when the cache is cleared.
package blob
