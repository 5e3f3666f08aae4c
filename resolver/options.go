package resolver

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Options enumerates everything that shapes the two flag tables.
// Every field is checked by NewConfiguration; nothing is silently ignored.
type Options struct {
	// HomeDir roots the kernel source tree. Empty is allowed and yields a
	// relative kernel root that simply does not exist.
	HomeDir string

	// KernelSourceSubdir is the kernel tree location relative to HomeDir.
	KernelSourceSubdir string `validate:"required"`

	// SupportDir is an extra include directory for driver-local headers.
	SupportDir string `validate:"required"`

	// Arch selects the arch/<Arch>/include directories.
	Arch string `validate:"required,archname"`

	// ArchDefines are preprocessor defines without the -D prefix.
	ArchDefines []string `validate:"dive,required,nodashd"`

	// ModuleName becomes KBUILD_MODNAME.
	ModuleName string `validate:"required,cident"`

	// DiagnosticFlags lead the kernel table (warnings, language standard, language mode).
	DiagnosticFlags []string `validate:"required,min=1,dive,required"`

	// ExtraKernelFlags are appended after the module defines.
	ExtraKernelFlags []string `validate:"dive,required"`

	// AppFlags is the userspace table, supplied by the generic C/C++ provider.
	AppFlags []string `validate:"required,min=1,dive,required"`

	// AppBasenames are the file stems compiled as userspace sources.
	AppBasenames []string `validate:"dive,required,excludes=/"`
}

var (
	archNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)
	cIdentPattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// DefaultOptions returns the options of the dual_pcan_usb driver on a
// 32-bit ARMv7 target, with HomeDir taken from the environment.
func DefaultOptions() Options {
	return Options{
		HomeDir:            os.Getenv("HOME"),
		KernelSourceSubdir: "src/linux",
		SupportDir:         ".",
		Arch:               "arm",
		ArchDefines:        []string{"__LINUX_ARM_ARCH__=7"},
		ModuleName:         "dual_pcan_usb",
		DiagnosticFlags:    []string{"-Wall", "-std=gnu89", "-x", "c"},
		AppFlags:           DefaultAppFlags(),
		AppBasenames:       []string{"setting_app"},
	}
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("archname", func(fl validator.FieldLevel) bool {
		return archNamePattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("cident", func(fl validator.FieldLevel) bool {
		return cIdentPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("nodashd", func(fl validator.FieldLevel) bool {
		return !strings.HasPrefix(fl.Field().String(), "-D")
	})
	return validate
}

// Validate reports the first invalid field in a readable form.
func (o Options) Validate() error {
	err := newValidator().Struct(o)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("invalid option %s: failed %q check (value %q)", fe.Namespace(), fe.Tag(), fmt.Sprint(fe.Value()))
	}
	return fmt.Errorf("invalid options: %w", err)
}
