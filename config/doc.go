// Package config loads the controller configuration with viper.
//
// Sources, lowest precedence first: Default(), the file passed to Load
// (YAML, TOML or JSON by extension), LEDHOST_* environment variables with
// dots replaced by underscores (LEDHOST_SINK_KIND=i2c).
package config
