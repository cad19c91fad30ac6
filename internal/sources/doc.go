// Package sources turns configured upstream repositories into catalog entries.
//
// The package defines the SourceHandler interface, which validates a source
// configuration and processes it into a Result: the plugins the source
// contributes, each with its provenance tag, or the reason it contributed
// nothing.
//
// Architecture:
//   - SourceHandler: Validates a source and processes it into a Result
//   - SourceHandlerFactory: Creates the handler for a source type
//   - Result: Explicit per-source outcome (ok, skipped as already processed, failed)
//
// Current implementations:
//   - marketplaceSourceHandler: Reads .claude-plugin/marketplace.json from a
//     repository, drops denylisted plugins, rewrites "./" sources into
//     references into the upstream repository and tags every plugin with the
//     source's tag prefix. A repository and branch pair is processed at most
//     once per run.
//   - skillSourceHandler: Replaces the skill's target directory with a copy of
//     the repository (minus exclude patterns) and synthesizes one plugin
//     record whose version comes from SKILL.md.
//
// Handlers never decide whether a run continues. They report failures in the
// Result and leave that decision to the caller.
package sources
