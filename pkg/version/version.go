// Package version reports the build version stamped by the linker.
package version

import "runtime/debug"

// value is set with -ldflags "-X storefront/pkg/version.value=v1.2.3".
var value string

// Version returns the stamped version, the module version recorded in the
// build info, or "dev".
func Version() string {
	if value != "" {
		return value
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
