package ring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildDescriptorsUnionsGroups(t *testing.T) {
	groups := map[string]json.RawMessage{
		"doorbots":     json.RawMessage(`[{"id": 1, "description": "Porch", "kind": "doorbot_v3"}]`),
		"chimes":       json.RawMessage(`[{"id": 2, "description": "Hall Chime", "kind": "chime"}]`),
		"stickup_cams": json.RawMessage(`[]`),
		"other":        json.RawMessage(`[{"id": 3, "description": "Front Door", "kind": "intercom_handset_audio"}]`),
	}
	ds, err := buildDescriptors(groups)
	require.NoError(t, err)
	require.Len(t, ds, 3)

	byName := map[string]DeviceDescriptor{}
	for _, d := range ds {
		byName[d.Name] = d
	}
	require.Equal(t, CategoryDoorbell, byName["Porch"].Category)
	require.Equal(t, CategoryChime, byName["Hall Chime"].Category)
	require.Equal(t, CategoryOther, byName["Front Door"].Category)
	require.True(t, byName["Front Door"].IntercomLike())
	require.False(t, byName["Hall Chime"].IntercomLike())
}

func TestBuildDescriptorsCombinedReplacesUnion(t *testing.T) {
	// A device present in both the combined listing and a category group
	// must not be counted twice.
	groups := map[string]json.RawMessage{
		"devices_combined": json.RawMessage(`[{"id": 3, "description": "Front Door", "kind": "other"}]`),
		"other":            json.RawMessage(`[{"id": 3, "description": "Front Door", "kind": "other"}]`),
	}
	ds, err := buildDescriptors(groups)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	require.Equal(t, "Front Door", ds[0].Name)
}

func TestBuildDescriptorsCombinedKeepsCategories(t *testing.T) {
	// The combined listing carries no grouping, so each record's category
	// comes from its kind. A chime or doorbell must not land in the
	// catch-all bucket the resolver treats as intercom-likely.
	groups := map[string]json.RawMessage{
		"devices_combined": json.RawMessage(`[
			{"id": 1, "description": "Hall Chime", "kind": "chime_v2"},
			{"id": 2, "description": "Porch", "kind": "doorbot_v3"},
			{"id": 3, "description": "Yard Cam", "kind": "stickup_cam_v4"},
			{"id": 4, "description": "Gate", "kind": "intercom_handset_audio"},
			{"id": 5, "description": "Front Door", "kind": "unclassified_thing"}
		]`),
	}
	ds, err := buildDescriptors(groups)
	require.NoError(t, err)
	require.Len(t, ds, 5)

	byName := map[string]string{}
	for _, d := range ds {
		byName[d.Name] = d.Category
	}
	require.Equal(t, CategoryChime, byName["Hall Chime"])
	require.Equal(t, CategoryDoorbell, byName["Porch"])
	require.Equal(t, CategoryCamera, byName["Yard Cam"])
	require.Equal(t, CategoryIntercom, byName["Gate"])
	require.Equal(t, CategoryOther, byName["Front Door"])
}

func TestTokenEncodeDecode(t *testing.T) {
	tok := Token{"access_token": "abc", "expires_in": "3600"}
	encoded, err := tok.Encode()
	require.NoError(t, err)

	decoded, err := DecodeToken(encoded)
	require.NoError(t, err)
	require.Equal(t, tok, decoded)

	_, err = DecodeToken("!!! not base64 !!!")
	require.Error(t, err)
}
