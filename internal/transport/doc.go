// Package transport is the network and archive layer of the launcher.
//
// A Downloader fetches URLs into files through a temporary file and an
// atomic rename, retrying transient failures with exponential backoff.
// An Extractor unpacks zip archives: whole modpacks into an instance root,
// or the platform binaries of a native jar into the natives directory.
// HTTPTransport combines the two into the contract the fetch package
// consumes.
package transport
