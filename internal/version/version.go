// Package version records the tool's release version.
package version

// Current is the version reported by the CLI and stamped into contracts
// as the default created_by suffix. Plain semver, no "v" prefix.
const Current = "0.1.0"
