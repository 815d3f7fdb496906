// Package common holds helpers shared by several services.
//
// It provides a lightweight gRPC client for the control API of a running
// instance, with per-call timeouts, and detection of other running instances.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
