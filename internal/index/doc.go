// Package index fetches the remote package index: a JSON object mapping
// each package name to its metadata, of which only the archive "url" is
// required. The index is fetched fresh on every call and never cached.
package index
