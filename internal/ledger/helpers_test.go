package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrPtr(t *testing.T) {
	assert.Nil(t, strPtr(""))

	p := strPtr("stripe:evt_123")
	require.NotNil(t, p)
	assert.Equal(t, "stripe:evt_123", *p)
}

func TestEnsureJSON(t *testing.T) {
	assert.Equal(t, json.RawMessage(`{}`), ensureJSON(nil))
	assert.Equal(t, json.RawMessage(`{"a":1}`), ensureJSON(json.RawMessage(`{"a":1}`)))
}

func TestMergeMeta_NilBase(t *testing.T) {
	out := mergeMeta(nil, map[string]interface{}{"requested_amount": int64(5)})

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, float64(5), got["requested_amount"])
}

func TestMergeMeta_ExtraWinsOverBase(t *testing.T) {
	base := json.RawMessage(`{"source":"client","debit_policy":"stale"}`)
	out := mergeMeta(base, map[string]interface{}{"debit_policy": "unlimited"})

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "client", got["source"])
	assert.Equal(t, "unlimited", got["debit_policy"])
}

func TestMergeMeta_MalformedBaseIgnored(t *testing.T) {
	out := mergeMeta(json.RawMessage(`not json`), map[string]interface{}{"k": "v"})

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "v", got["k"])
}
