// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// version.go — build-time version metadata injected via -ldflags and
// reported by the kvpool CLI.

package kvpool

// Build-time variables injected via -ldflags.
// Defaults represent an unversioned local development build.
//
//	BuildDate format : YYYY.MM.DD-HHMM  (24-hour clock)
//	BuildEnv  values : dev | qa | prod
var (
	// Set by: -ldflags "-X 'github.com/AndrewDonelson/kvpool.BuildDate=2026.10.16-0900'"
	BuildDate = "0000.00.00-0000"

	// Set by: -ldflags "-X 'github.com/AndrewDonelson/kvpool.BuildEnv=prod'"
	BuildEnv = "dev"
)

// Version returns "YYYY.MM.DD-HHMM-env", e.g. "2026.10.16-0900-prod".
func Version() string {
	return BuildDate + "-" + BuildEnv
}
