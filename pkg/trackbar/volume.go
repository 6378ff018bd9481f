package trackbar

import (
	"fmt"
	"net"

	"github.com/jfreymuth/pulse/proto"
	"go.uber.org/zap"
)

// normal PulseAudio volume (100%)
const maxVolume = 0x10000

// VolumeTarget applies a slider's percentage to the default PulseAudio sink volume
type VolumeTarget struct {
	logger *zap.SugaredLogger

	client *proto.Client
	conn   net.Conn

	sinkIndex    uint32
	sinkChannels int
}

// NewVolumeTarget connects to PulseAudio and looks up the default sink
func NewVolumeTarget(logger *zap.SugaredLogger) (*VolumeTarget, error) {
	logger = logger.Named("volume")

	client, conn, err := proto.Connect("")
	if err != nil {
		logger.Warnw("Failed to establish PulseAudio connection", "error", err)
		return nil, fmt.Errorf("establish PulseAudio connection: %w", err)
	}

	request := proto.SetClientName{
		Props: proto.PropList{
			"application.name": proto.PropListString("trackbar"),
		},
	}
	reply := proto.SetClientNameReply{}

	if err := client.Request(&request, &reply); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set PulseAudio client name: %w", err)
	}

	vt := &VolumeTarget{
		logger: logger,
		client: client,
		conn:   conn,
	}

	if err := vt.refreshSink(); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Debugw("Created volume target", "sinkIndex", vt.sinkIndex, "channels", vt.sinkChannels)

	return vt, nil
}

// Apply is a Subscriber setting the sink volume to the slider's percentage
func (vt *VolumeTarget) Apply(value float64, position int, percentage float64) {
	request := proto.SetSinkVolume{
		SinkIndex:      vt.sinkIndex,
		ChannelVolumes: createChannelVolumes(vt.sinkChannels, percentage),
	}

	if err := vt.client.Request(&request, nil); err != nil {
		vt.logger.Warnw("Failed to set sink volume", "error", err, "volume", percentage)
		return
	}

	vt.logger.Debugw("Adjusting sink volume", "to", fmt.Sprintf("%.2f", percentage))
}

// Release closes the PulseAudio connection
func (vt *VolumeTarget) Release() error {
	if err := vt.conn.Close(); err != nil {
		vt.logger.Warnw("Failed to close PulseAudio connection", "error", err)
		return fmt.Errorf("close PulseAudio connection: %w", err)
	}

	vt.logger.Debug("Released volume target")

	return nil
}

func (vt *VolumeTarget) refreshSink() error {
	request := proto.GetSinkInfo{
		SinkIndex: proto.Undefined,
	}
	reply := proto.GetSinkInfoReply{}

	if err := vt.client.Request(&request, &reply); err != nil {
		vt.logger.Warnw("Failed to get default sink info", "error", err)
		return fmt.Errorf("get default sink info: %w", err)
	}

	vt.sinkIndex = reply.SinkIndex
	vt.sinkChannels = len(reply.ChannelVolumes)

	return nil
}

func createChannelVolumes(channels int, volume float64) []uint32 {
	volumes := make([]uint32, channels)

	for i := range volumes {
		volumes[i] = uint32(volume * maxVolume)
	}

	return volumes
}
