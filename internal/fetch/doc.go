// Package fetch materializes the artifacts listed in a library manifest.
//
// # Components
//
//   - Fetcher: ensures a single entry exists under the libraries directory,
//     downloading it through the injected Transport when missing and
//     rejecting downloads smaller than a minimum size.
//   - Orchestrator: walks a manifest in order, reports integer progress and
//     decides per entry whether a failure is tolerated or aborts the run.
//   - Native pass: the same walk over native archives, extracting every
//     archive into the natives directory after it is present.
//
// # Failure policy
//
// Failures of entries matched by the manifest's critical markers abort the
// run with a FatalDependencyMissingError. Any other failure is logged,
// recorded in the Report and the walk continues. Extraction failures never
// abort. Each entry gets a single attempt per run.
package fetch
