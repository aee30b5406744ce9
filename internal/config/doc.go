// Package config loads engine configuration from a YAML file layered over
// defaults. A missing file is not an error; everything has a working
// default and provider credentials come from the environment, never from
// the file.
package config
