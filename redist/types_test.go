package redist

import (
	"testing"

	"github.com/itchio/ox"
	"github.com/stretchr/testify/assert"
)

func Test_AcceptedCodes(t *testing.T) {
	assert.Nil(t, (&Entry{}).AcceptedCodes())
	assert.EqualValues(t, []int{0, 3010}, (&Entry{ReturnCodes: []int{0, 3010}}).AcceptedCodes())

	e := &Entry{
		ExitCodes: []*ExitCode{
			{Code: 1638, Success: true, Message: "Another version is already installed"},
			{Code: 1603, Success: false, Message: "Fatal error during installation"},
		},
	}
	assert.EqualValues(t, []int{0, 1638}, e.AcceptedCodes())
	assert.EqualValues(t, map[int]string{
		1638: "Another version is already installed",
		1603: "Fatal error during installation",
	}, e.Messages())
}

func Test_MatchesPlatform(t *testing.T) {
	assert.True(t, (&Entry{}).MatchesPlatform(ox.PlatformLinux))
	assert.True(t, (&Entry{Platform: ox.PlatformWindows}).MatchesPlatform(ox.PlatformWindows))
	assert.False(t, (&Entry{Platform: ox.PlatformWindows}).MatchesPlatform(ox.PlatformOSX))
}

func Test_AppliesTo(t *testing.T) {
	selected := map[string]bool{"plugin": true}
	assert.True(t, (&Entry{}).AppliesTo(selected))
	assert.True(t, (&Entry{Features: []string{"docs", "plugin"}}).AppliesTo(selected))
	assert.False(t, (&Entry{Features: []string{"docs"}}).AppliesTo(selected))
}
