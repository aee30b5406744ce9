// Package source abstracts where changelog entries come from. The
// retrieval engine never owns changelog data; it reads from a Source for
// full rebuilds and, when the source supports it, subscribes to a Watcher
// change feed for incremental sync.
//
// PostgresSource reads the application's changelogs table directly and
// streams row changes over LISTEN/NOTIFY. StaticSource serves a fixed
// entry set loaded from a JSON or YAML file, which is what the CLI uses.
package source
