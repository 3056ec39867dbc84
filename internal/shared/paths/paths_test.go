package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanDirRoundTrip(t *testing.T) {
	name := ScanDir("ExpA", "SrcB", "ScanC")
	assert.Equal(t, "ExpA_SrcB_ScanC", name)

	exp, src, scan := SplitScanDir(name)
	assert.Equal(t, "ExpA", exp)
	assert.Equal(t, "SrcB", src)
	assert.Equal(t, "ScanC", scan)
}

func TestSplitScanDirKeepsUnderscoredScanLabel(t *testing.T) {
	exp, src, scan := SplitScanDir("ExpA_SrcB_night_run_7")
	assert.Equal(t, "ExpA", exp)
	assert.Equal(t, "SrcB", src)
	assert.Equal(t, "night_run_7", scan)
}

func TestSplitScanDirPadsShortNames(t *testing.T) {
	exp, src, scan := SplitScanDir("solo")
	assert.Equal(t, "solo", exp)
	assert.Empty(t, src)
	assert.Empty(t, scan)
}

func TestSpectrumFile(t *testing.T) {
	assert.Equal(t, "1700000000_0.spec", SpectrumFile(1700000000, 0, false))
	assert.Equal(t, "1700000000_131072.spec.zst", SpectrumFile(1700000000, 131072, true))
}

func TestNoisePowerFile(t *testing.T) {
	assert.Equal(t, "1700000000_0_UX.npow", NoisePowerFile(1700000000, 0, 'U', 'X'))
}
