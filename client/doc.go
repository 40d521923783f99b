// Package client drives a controller over its command channel and plays
// YAML scenes.
package client
