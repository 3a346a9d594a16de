// Package config provides platform configuration for steward.
//
// Configuration is loaded from a single directory holding config.yaml. The
// default directory is ~/.config/steward; commands accept --config-path to
// point somewhere else. A missing config.yaml yields the documented
// defaults, a malformed or invalid one is fatal.
//
// # Layout
//
// config.yaml names the platform directories and collaborator endpoints:
//
//	dataDir: /var/lib/steward/apps
//	hooksDir: /var/lib/steward/hooks
//	stagingDir: /var/lib/steward/staging
//	logLevel: info
//	platform:
//	  version: 11.2.0
//	  dependencies:
//	    php: 8.2.7
//	catalog:
//	  url: https://apps.steward.dev/catalog.yml
//	gateway:
//	  confPath: /etc/ssowat/conf.json
//	  unit: ssowat.service
//	directory:
//	  dir: /etc/steward
//	  domains: [example.org]
//	password:
//	  minLength: 8
//	  minClasses: 2
//
// Validation collects every problem into a ValidationErrors value rather
// than failing one field at a time.
package config
