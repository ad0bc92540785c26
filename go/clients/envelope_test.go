package clients

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listItem struct {
	ID string `json:"id"`
}

func TestNormalizeListEnvelopeVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"bare array", `[{"id":"a"},{"id":"b"}]`, []string{"a", "b"}},
		{"data envelope", `{"data":[{"id":"a"}]}`, []string{"a"}},
		{"success envelope", `{"success":true,"data":[{"id":"a"},{"id":"b"}]}`, []string{"a", "b"}},
		{"array under other key", `{"qr_codes":[{"id":"a"}]}`, []string{"a"}},
		{"empty array", `[]`, nil},
		{"null body", `null`, nil},
		{"empty body", ``, nil},
		{"null data", `{"success":true,"data":null}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := DecodeList[listItem]([]byte(tt.body))
			require.NoError(t, err)

			ids := make([]string, 0, len(items))
			for _, item := range items {
				ids = append(ids, item.ID)
			}
			if tt.want == nil {
				assert.Empty(t, ids)
			} else {
				assert.Equal(t, tt.want, ids)
			}
		})
	}
}

func TestNormalizeListFailureEnvelope(t *testing.T) {
	_, err := NormalizeList([]byte(`{"success":false,"error":"venue not found"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "venue not found")

	_, err = NormalizeList([]byte(`{"success":false}`))
	assert.Error(t, err)
}

func TestNormalizeListMalformed(t *testing.T) {
	_, err := NormalizeList([]byte(`[{"id":`))
	assert.Error(t, err)
	_, err = NormalizeList([]byte(`"just a string"`))
	assert.Error(t, err)
}

func TestNormalizeObject(t *testing.T) {
	raw, err := NormalizeObject([]byte(`{"id":"a"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a"}`, string(raw))

	raw, err = NormalizeObject([]byte(`{"success":true,"data":{"id":"a"}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a"}`, string(raw))

	raw, err = NormalizeObject([]byte(`null`))
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestNormalizeObjectFailureEnvelope(t *testing.T) {
	_, err := NormalizeObject([]byte(`{"success":false,"error":"expired"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestAPIErrorMessages(t *testing.T) {
	assert.Equal(t, "session is full", newAPIError(400, []byte(`{"error":"session is full"}`)).Message)
	assert.Equal(t, "not found", newAPIError(404, []byte(`{"message":"not found"}`)).Message)
	assert.Equal(t, "Bad Gateway", newAPIError(502, []byte("Bad Gateway\n")).Message)
	assert.Equal(t, "api error 500", newAPIError(500, nil).Error())
}

func TestErrorClassification(t *testing.T) {
	rejected := newAPIError(409, []byte(`{"error":"already joined"}`))
	server := newAPIError(503, nil)

	assert.True(t, IsServerRejected(rejected))
	assert.False(t, IsServerRejected(server))
	assert.False(t, IsServerRejected(nil))

	assert.False(t, IsTransient(rejected))
	assert.True(t, IsTransient(server))
	assert.True(t, IsTransient(assert.AnError))
	assert.False(t, IsTransient(nil))
}
