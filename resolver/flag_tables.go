package resolver

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/FooFooDamon/kmodflags/resolver/models"
)

// kernelIncludeDirs are searched in this order, relative to the kernel root.
// "%s" is replaced with the architecture.
var kernelIncludeDirs = []string{
	"include",
	"include/uapi",
	"include/generated/uapi",
	"arch/%s/include",
	"arch/%s/include/generated",
	"arch/%s/include/uapi",
	"arch/%s/include/generated/uapi",
}

// KernelRoot is where the kernel source tree is expected for the given options.
func KernelRoot(opts Options) string {
	return filepath.Join(opts.HomeDir, opts.KernelSourceSubdir)
}

// buildKernelFlags assembles the kernel-module table. Only the include
// directories and the forced kconfig.h depend on HomeDir.
func buildKernelFlags(opts Options) models.FlagSet {
	root := KernelRoot(opts)

	flags := make(models.FlagSet, 0, 32)
	flags = append(flags, opts.DiagnosticFlags...)
	flags = append(flags, "-I", opts.SupportDir)

	for _, dir := range kernelIncludeDirs {
		if strings.Contains(dir, "%s") {
			dir = fmt.Sprintf(dir, opts.Arch)
		}
		flags = append(flags, "-I", filepath.Join(root, filepath.FromSlash(dir)))
	}

	flags = append(flags, "-include", filepath.Join(root, "include", "linux", "kconfig.h"))

	flags = append(flags, "-D__KERNEL__", "-DMODULE")
	for _, def := range opts.ArchDefines {
		flags = append(flags, "-D"+def)
	}
	flags = append(flags, modNameDefine(opts.ModuleName))

	return append(flags, opts.ExtraKernelFlags...)
}

func modNameDefine(name string) string {
	return fmt.Sprintf("-DKBUILD_MODNAME=\"%s\"", name)
}
