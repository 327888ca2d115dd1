// Package config defines the engine configuration and its defaults.
//
// Configuration is a plain struct loaded from TOML. A missing file is not
// an error; every field has a working default. The loader subpackage reads
// and validates files, and the watcher subpackage reloads them when they
// change on disk.
package config
