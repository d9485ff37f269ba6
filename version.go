// Package renderd provides the version information for renderd.
package renderd

// Version is the current version of renderd.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
