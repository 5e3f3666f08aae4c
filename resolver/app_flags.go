package resolver

// DefaultAppFlags returns the generic userspace C flags used for
// application sources when the configuration does not supply its own.
func DefaultAppFlags() []string {
	return []string{
		"-Wall",
		"-Wextra",
		"-std=gnu11",
		"-x", "c",
		"-I", ".",
		"-I", "/usr/local/include",
		"-I", "/usr/include",
	}
}
