// Package filtering decides which upstream content enters the aggregated catalog.
//
// Two filters are provided:
//
//   - NameFilter drops marketplace plugins whose name appears in the source's
//     denylist. Matching is exact and case-sensitive.
//   - PathFilter drops files and directories from skill copies using glob
//     patterns from sync_settings.exclude_patterns.
//
// # Path patterns
//
// Patterns without a "/" match the base name of an entry at any depth:
//
//   - ".git" drops every .git directory and everything below it
//   - "*.pyc" drops compiled Python files anywhere in the tree
//
// Patterns containing a "/" match the path relative to the skill root, with
// "*" limited to one segment and "**" spanning segments:
//
//   - "tests/**" drops everything under the top-level tests directory
//
// # Logging
//
// FilterService logs every excluded plugin with the reason, so a plugin that
// is missing from the output can be traced back to the denylist entry that
// removed it.
package filtering
