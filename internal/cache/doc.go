// Package cache provides a file-based cache for backend responses.
//
// Entries are keyed by a SHA-256 hash of the backend name, model,
// temperature and the exact system and user prompts. Each entry stores the
// response text with a creation timestamp and a TTL (in seconds). Expired
// entries are skipped on read and removed during cache-clear operations.
//
// [Wrap] puts a cache in front of any providers.Backend. The default cache
// directory is $XDG_CACHE_HOME/codeward (or the OS-appropriate equivalent).
// Prompts are redacted before they reach the backend, so cached keys never
// derive from raw secrets.
package cache
