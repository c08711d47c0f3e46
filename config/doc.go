// Package config handles YAML configuration of the recruitment service.
//
// Configuration files support ${VAR} syntax for environment variable
// interpolation. See config/config.yml for the example.
package config
