package store

// Exported for tests.
var DecodeHistory = decodeHistory
