// Package headless provides an in-memory browser engine backend.
// It renders nothing; it keeps the state the host layer reads and records
// every call the host layer makes, so it doubles as the test engine.
// Importing the package registers it as the platform provider.
package headless
