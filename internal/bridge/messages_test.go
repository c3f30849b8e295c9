package bridge_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md4h/prosedown/internal/bridge"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := bridge.NewEnvelope(bridge.KindSaveImage, bridge.SaveImage{
		PlaceholderID: "ph-1",
		Name:          "diagram.png",
		Data:          []byte{0x89, 0x50},
		MimeType:      "image/png",
		TargetFolder:  "medias",
	})
	require.NoError(t, err)

	wire, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded bridge.Envelope
	require.NoError(t, json.Unmarshal(wire, &decoded))
	assert.Equal(t, bridge.KindSaveImage, decoded.Kind)

	var payload bridge.SaveImage
	require.NoError(t, decoded.Decode(&payload))
	assert.Equal(t, "ph-1", payload.PlaceholderID)
	assert.Equal(t, []byte{0x89, 0x50}, payload.Data)
	assert.Equal(t, "medias", payload.TargetFolder)
}

func TestEnvelopeFieldNames(t *testing.T) {
	// The webview side depends on these exact field names.
	check, err := bridge.NewEnvelope(bridge.KindCheckImageInWorkspace, bridge.CheckImageInWorkspace{
		ImagePath: "medias/pic.png",
		RequestID: "req-42",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"imagePath":"medias/pic.png","requestId":"req-42"}`, string(check.Payload))

	status, err := bridge.NewEnvelope(bridge.KindImageWorkspaceStatus, bridge.ImageWorkspaceStatus{
		RequestID:   "req-42",
		InWorkspace: true,
	})
	require.NoError(t, err)
	// absolutePath is omitted while unknown.
	assert.JSONEq(t, `{"requestId":"req-42","inWorkspace":true}`, string(status.Payload))
}

func TestEnvelopeDecodeMalformed(t *testing.T) {
	env := bridge.Envelope{Kind: bridge.KindImageSaved, Payload: json.RawMessage(`{"newSrc":42}`)}

	var payload bridge.ImageSaved
	err := env.Decode(&payload)
	require.ErrorContains(t, err, "imageSaved")
}
