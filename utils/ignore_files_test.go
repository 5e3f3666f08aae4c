package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDefaultIgnored(t *testing.T) {
	assert.True(t, IsDefaultIgnored(".git/config"))
	assert.True(t, IsDefaultIgnored("build/dual_pcan_usb.ko"))
	assert.True(t, IsDefaultIgnored("dual_pcan_usb.mod.c"))
	assert.True(t, IsDefaultIgnored("src/.tmp_versions/x"))
	assert.False(t, IsDefaultIgnored("src/usb_driver.c"))
	assert.False(t, IsDefaultIgnored("src/gitlike.c"))
}

func TestIsIgnored(t *testing.T) {
	patterns := []string{"3rdparty/", "*_test.c", "tools/gen.c"}

	assert.True(t, IsIgnored("3rdparty", patterns))
	assert.True(t, IsIgnored("3rdparty/lazy_coding/x.c", patterns))
	assert.True(t, IsIgnored("src/codec_test.c", patterns))
	assert.True(t, IsIgnored("tools/gen.c", patterns))
	assert.False(t, IsIgnored("src/main.c", patterns))
}

func TestGetIgnorePatterns(t *testing.T) {
	defer ClearIgnoreCache()
	root := t.TempDir()

	patterns, err := GetIgnorePatterns(root)
	require.NoError(t, err)
	assert.Empty(t, patterns)

	content := "# generated sources\n3rdparty/\n\n*_test.c\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFileName), []byte(content), 0644))

	patterns, err = GetIgnorePatterns(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"3rdparty/", "*_test.c"}, patterns)

	// Second read is served from the cache.
	again, err := GetIgnorePatterns(root)
	require.NoError(t, err)
	assert.Equal(t, patterns, again)
}
