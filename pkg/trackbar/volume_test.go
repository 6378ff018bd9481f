package trackbar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateChannelVolumes(t *testing.T) {
	assert.Equal(t, []uint32{0x8000, 0x8000}, createChannelVolumes(2, 0.5))
	assert.Equal(t, []uint32{maxVolume}, createChannelVolumes(1, 1))
	assert.Equal(t, []uint32{0, 0, 0}, createChannelVolumes(3, 0))
	assert.Empty(t, createChannelVolumes(0, 0.3))
}
