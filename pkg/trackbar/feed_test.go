package trackbar

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func TestParseFeedCommand(t *testing.T) {
	testCases := map[string]struct {
		given    string
		expected FeedCommand
		ok       bool
	}{
		"percentage":        {given: `{"percentage":0.25}`, expected: FeedCommand{SetPercentage: true, Percentage: 0.25}, ok: true},
		"step-down":         {given: `{"step":-1}`, expected: FeedCommand{Step: -1}, ok: true},
		"step-up":           {given: `{"step":3}`, expected: FeedCommand{Step: 3}, ok: true},
		"zero-step":         {given: `{"step":0}`, ok: false},
		"string-percentage": {given: `{"percentage":"half"}`, ok: false},
		"not-json":          {given: `percentage=0.3`, ok: false},
		"empty-object":      {given: `{}`, ok: false},
	}

	for testName, testCase := range testCases {
		t.Run(testName, func(t *testing.T) {
			command, ok := parseFeedCommand([]byte(testCase.given))

			assert.Equal(t, testCase.ok, ok)
			if testCase.ok {
				assert.Equal(t, testCase.expected, command)
			}
		})
	}
}

func TestEncodeFeedUpdate(t *testing.T) {
	msg, err := encodeFeedUpdate(6, 4, 0.5)
	require.NoError(t, err)

	assert.Equal(t, 6.0, gjson.GetBytes(msg, "value").Float())
	assert.Equal(t, int64(4), gjson.GetBytes(msg, "position").Int())
	assert.Equal(t, 0.5, gjson.GetBytes(msg, "percentage").Float())
}

func TestFeedCommand_Apply(t *testing.T) {
	s, _, _ := newTestSlider(t, discreteOptions(t, 0, 10, 10, 5))

	FeedCommand{SetPercentage: true, Percentage: 1.7}.Apply(s)
	assert.Equal(t, 10, s.Position())

	FeedCommand{Step: -1}.Apply(s)
	assert.Equal(t, 9, s.Position())
}

func TestFeed_BroadcastAndCommands(t *testing.T) {
	f := NewFeed(zap.NewNop().Sugar(), "127.0.0.1:0")
	require.NoError(t, f.Start())
	t.Cleanup(f.Stop)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+f.Addr()+feedPath, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.Broadcast(6, 4, 0.5)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, 0.5, gjson.GetBytes(msg, "percentage").Float())
	assert.Equal(t, int64(4), gjson.GetBytes(msg, "position").Int())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"step":1}`)))

	select {
	case command := <-f.Commands():
		assert.Equal(t, FeedCommand{Step: 1}, command)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed command")
	}
}
