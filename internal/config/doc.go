// Package config loads and merges codeward configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (CODEWARD_MODELS, CODEWARD_LOG_DIR, CODEWARD_CODESERVER_URL, etc.)
//  3. Config file ($XDG_CONFIG_HOME/codeward/config.json)
//  4. Built-in defaults
//
// Job files override the merged result per job; see package job.
package config
