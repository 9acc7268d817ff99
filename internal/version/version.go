// internal/version/version.go
package version

// Version is stamped by the release workflow via -ldflags.
var Version = "0.1.0-dev"
