package mdf

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mdfreader/mdf3/diagnostics"
)

func TestDisambiguateNoCollision(t *testing.T) {
	name := disambiguate("speed", "speed", 0, 0, 0, map[string]bool{}, map[string]bool{})
	require.Equal(t, "speed", name)
}

func TestDisambiguateSeenInSameDataGroup(t *testing.T) {
	seen := map[string]bool{"speed": true}
	name := disambiguate("speed", "speed", 2, 1, 3, seen, map[string]bool{})
	require.Equal(t, "speed_2_1_3", name)
}

func TestDisambiguateGlobalCollisionAcrossDataGroups(t *testing.T) {
	global := map[string]bool{"speed": true}
	name := disambiguate("speed", "speed", 1, 0, 0, map[string]bool{}, global)
	require.Equal(t, "speed_1", name)
}

func TestBuildGraphDisambiguatesAcrossDataGroups(t *testing.T) {
	data := buildTwoGroupsSameChannelName()
	f := openTestFile(t, data, Options{})

	names := f.ChannelNames()
	require.Contains(t, names, "signal")
	require.Contains(t, names, "signal_1")
}

func TestBuildGraphCountMismatchWarns(t *testing.T) {
	data := buildSortedMinimalFile()

	// HD declares NumberOfDataGroups at offset headerBlockOffset+16 (Tag 2 +
	// BlockSize 2 + PointerToFirstDG 4 + PointerToTX 4 + PointerToPR 4 = 16).
	patchUint16(data, int64(headerBlockOffset)+16, 2)

	sink := diagnostics.NewCollector()
	f := openTestFile(t, data, Options{Diagnostics: sink})
	require.NotNil(t, f)

	warnings := sink.Warnings()
	require.Len(t, warnings, 1)
	require.Equal(t, diagnostics.CountMismatch, warnings[0].Kind)
}
