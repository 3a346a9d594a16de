// Package app bootstraps steward: it loads the platform configuration,
// initializes logging, and wires the collaborator graph (repository,
// script gateway, permission registry, identity directory, catalog,
// source acquirer, hooks, journal) into a lifecycle manager. The cmd
// verbs go through this package so every command sees the same wiring.
package app
