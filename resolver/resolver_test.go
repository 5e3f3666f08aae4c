package resolver

import (
	"sync"
	"testing"

	"github.com/FooFooDamon/kmodflags/resolver/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(home string) Options {
	opts := DefaultOptions()
	opts.HomeDir = home
	return opts
}

func mustConfiguration(t *testing.T, opts Options) *Configuration {
	t.Helper()
	conf, err := NewConfiguration(opts)
	require.NoError(t, err)
	return conf
}

func TestResolveFlags_ApplicationSource(t *testing.T) {
	conf := mustConfiguration(t, testOptions("/home/dev"))

	for _, path := range []string{"setting_app.c", "src/setting_app.c", "/abs/path/setting_app.h", "setting_app"} {
		res := conf.ResolveFlags(path)
		assert.Equal(t, models.KindApplication, res.Kind, path)
		assert.Equal(t, models.FlagSet(DefaultAppFlags()), res.Flags, path)
		assert.True(t, res.Cacheable)
	}
}

func TestResolveFlags_KernelModuleSource(t *testing.T) {
	conf := mustConfiguration(t, testOptions("/home/dev"))

	res := conf.ResolveFlags("driver_main.c")
	assert.Equal(t, models.KindKernelModule, res.Kind)
	assert.True(t, res.Cacheable)

	expected := models.FlagSet{
		"-Wall", "-std=gnu89", "-x", "c",
		"-I", ".",
		"-I", "/home/dev/src/linux/include",
		"-I", "/home/dev/src/linux/include/uapi",
		"-I", "/home/dev/src/linux/include/generated/uapi",
		"-I", "/home/dev/src/linux/arch/arm/include",
		"-I", "/home/dev/src/linux/arch/arm/include/generated",
		"-I", "/home/dev/src/linux/arch/arm/include/uapi",
		"-I", "/home/dev/src/linux/arch/arm/include/generated/uapi",
		"-include", "/home/dev/src/linux/include/linux/kconfig.h",
		"-D__KERNEL__",
		"-DMODULE",
		"-D__LINUX_ARM_ARCH__=7",
		`-DKBUILD_MODNAME="dual_pcan_usb"`,
	}
	assert.Equal(t, expected, res.Flags)
}

func TestResolveFlags_FallsBackToKernelModule(t *testing.T) {
	conf := mustConfiguration(t, testOptions("/home/dev"))
	kernel := conf.KernelFlags()

	paths := []string{
		"",
		"/",
		"setting_app/",
		"Setting_App.c",
		"setting_app.c.orig",
		"setting_app_extra.c",
		".setting_app",
		"no_extension",
		"a.b.c",
		"../../weird..path..c",
	}
	for _, path := range paths {
		res := conf.ResolveFlags(path)
		assert.Equal(t, models.KindKernelModule, res.Kind, path)
		assert.Equal(t, kernel, res.Flags, path)
	}
}

func TestSourceStem(t *testing.T) {
	cases := map[string]string{
		"setting_app.c":        "setting_app",
		"dir/sub/usb_driver.h": "usb_driver",
		"/abs/main.c":          "main",
		"a.b.c":                "a.b",
		"noext":                "noext",
		".bashrc":              ".bashrc",
		"..a.b":                "..a",
		"trailing.":            "trailing",
		"dir/":                 "",
		"":                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, SourceStem(in), in)
	}
}

func TestExtend_AppendsExtraFlagsWithoutDedup(t *testing.T) {
	base := mustConfiguration(t, testOptions("/home/dev"))
	baseFlags := base.KernelFlags()

	extra := []string{"-I", "/opt/pcan/include", `-DKBUILD_MODNAME="dual_pcan_usb"`}
	extended, err := base.Extend(Extension{ExtraKernelFlags: extra})
	require.NoError(t, err)

	res := extended.ResolveFlags("usb_transport.c")
	require.Len(t, res.Flags, len(baseFlags)+len(extra))
	assert.Equal(t, baseFlags, res.Flags[:len(baseFlags)])
	assert.Equal(t, models.FlagSet(extra), res.Flags[len(baseFlags):])

	modNameCount := 0
	for _, flag := range res.Flags {
		if flag == `-DKBUILD_MODNAME="dual_pcan_usb"` {
			modNameCount++
		}
	}
	assert.Equal(t, 2, modNameCount)

	// The base configuration is untouched.
	assert.Equal(t, baseFlags, base.KernelFlags())
	assert.Equal(t, base.AppFlags(), extended.AppFlags())
}

func TestExtend_OverridesBasenames(t *testing.T) {
	base := mustConfiguration(t, testOptions("/home/dev"))

	extended, err := base.Extend(Extension{AppBasenames: []string{"can_tool", "monitor"}})
	require.NoError(t, err)

	assert.Equal(t, models.KindApplication, extended.Classify("tools/can_tool.c"))
	assert.Equal(t, models.KindKernelModule, extended.Classify("setting_app.c"))
	assert.Equal(t, models.KindApplication, base.Classify("setting_app.c"))
	assert.Equal(t, []string{"can_tool", "monitor"}, extended.AppBasenames())
}

func TestExtend_RejectsBadInput(t *testing.T) {
	base := mustConfiguration(t, testOptions("/home/dev"))

	_, err := base.Extend(Extension{ExtraKernelFlags: []string{"-DOK", ""}})
	assert.Error(t, err)

	_, err = base.Extend(Extension{AppBasenames: []string{"dir/app"}})
	assert.Error(t, err)
}

func TestHomeDirOnlyAffectsKernelTreePaths(t *testing.T) {
	a := mustConfiguration(t, testOptions("/home/alice")).KernelFlags()
	b := mustConfiguration(t, testOptions("/home/bob")).KernelFlags()
	require.Equal(t, len(a), len(b))

	changed := 0
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		changed++
		assert.Contains(t, a[i], "/home/alice/src/linux")
		assert.Contains(t, b[i], "/home/bob/src/linux")
		assert.Contains(t, []string{"-I", "-include"}, a[i-1])
	}
	assert.Equal(t, len(kernelIncludeDirs)+1, changed)
}

func TestMissingHomeDirStillResolves(t *testing.T) {
	conf := mustConfiguration(t, testOptions(""))

	res := conf.ResolveFlags("main.c")
	assert.Equal(t, models.KindKernelModule, res.Kind)
	assert.Contains(t, res.Flags, "src/linux/include")
}

func TestResolveFlags_ReturnsCopies(t *testing.T) {
	conf := mustConfiguration(t, testOptions("/home/dev"))

	first := conf.ResolveFlags("main.c")
	first.Flags[0] = "-Werror"

	second := conf.ResolveFlags("main.c")
	assert.Equal(t, "-Wall", second.Flags[0])
}

func TestResolveFlags_Deterministic(t *testing.T) {
	a := mustConfiguration(t, testOptions("/home/dev"))
	b := mustConfiguration(t, testOptions("/home/dev"))

	assert.Equal(t, a.ResolveFlags("chardev_ioctl.c"), b.ResolveFlags("chardev_ioctl.c"))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c, err := a.Extend(Extension{ExtraKernelFlags: []string{"-DDEBUG"}})
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestResolveFunc_DelegatesClassification(t *testing.T) {
	conf := mustConfiguration(t, testOptions("/home/dev"))
	custom := ResolveFunc(func(filePath string) models.Resolution {
		kind := conf.Classify(filePath)
		flags := conf.FlagsFor(kind)
		if kind == models.KindKernelModule {
			flags = append(flags, "-DPCAN_DEBUG")
		}
		return models.Resolution{Flags: flags, Cacheable: true, Kind: kind}
	})

	assert.Equal(t, conf.AppFlags(), custom.ResolveFlags("setting_app.c").Flags)
	kernel := custom.ResolveFlags("netdev_interfaces.c").Flags
	assert.Equal(t, "-DPCAN_DEBUG", kernel[len(kernel)-1])
}

func TestConfiguration_ConcurrentReaders(t *testing.T) {
	conf := mustConfiguration(t, testOptions("/home/dev"))
	want := conf.ResolveFlags("packet_codec.c")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, want, conf.ResolveFlags("packet_codec.c"))
			}
		}()
	}
	wg.Wait()
}
