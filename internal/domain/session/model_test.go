package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDJSON(t *testing.T) {
	tests := []struct {
		name string
		id   ID
		want string
	}{
		{name: "serial", id: SerialID(42), want: `42`},
		{name: "document", id: DocumentID("507f1f77bcf86cd799439011"), want: `"507f1f77bcf86cd799439011"`},
		{name: "zero", id: ID{}, want: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.id)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var back ID
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.id, back)
		})
	}
}

func TestIDUnmarshalRejectsGarbage(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`4.5`), &id))
}

func TestIDSerial(t *testing.T) {
	n, ok := SerialID(9).Serial()
	assert.True(t, ok)
	assert.Equal(t, int64(9), n)

	_, ok = DocumentID("9").Serial()
	assert.False(t, ok)
	assert.True(t, ID{}.IsZero())
}

func TestSessionJSONKeys(t *testing.T) {
	s := Normalize(Record{ID: SerialID(1), WebsiteIndex: 3, Title: "Keynote"})
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, key := range []string{
		"_id", "website_index", "title", "date", "time", "venue", "room", "speakers",
		"description", "knowledge_partners", "watch_live_link", "transcript", "people",
	} {
		assert.Contains(t, decoded, key)
	}
	assert.Len(t, decoded, 13)
	assert.Equal(t, "", decoded["transcript"])
	assert.Equal(t, []any{}, decoded["people"])
}
