package main

// Exit codes.
const (
	ExitSuccess = 0 // Success
	ExitError   = 1 // General error (runtime failure, malformed response)
	ExitUsage   = 2 // Usage error (missing arguments, uninitialized registry, empty response)
)
