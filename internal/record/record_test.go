package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordJSONKeepsKeyOrder(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"zeta":1,"alpha":"x","mid":null}`), &r))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, r.Keys())

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"zeta":1,"alpha":"x","mid":null}`, string(out))
	assert.Equal(t, `{"zeta":1,"alpha":"x","mid":null}`, string(out))
}

func TestRecordUnmarshalRejectsArrays(t *testing.T) {
	var r Record
	assert.ErrorIs(t, json.Unmarshal([]byte(`[1,2]`), &r), ErrNotObject)
}

func TestRecordWithCopies(t *testing.T) {
	orig := New(Field{"order_id", "#1"}, Field{"status", "pending"})
	updated := orig.With("status", "delivered").With("tags", "vip")

	v, _ := orig.Get("status")
	assert.Equal(t, "pending", v)
	assert.Equal(t, []string{"order_id", "status"}, orig.Keys())

	v, _ = updated.Get("status")
	assert.Equal(t, "delivered", v)
	assert.Equal(t, []string{"order_id", "status", "tags"}, updated.Keys())
	assert.False(t, orig.Equal(updated))
	assert.True(t, orig.Equal(New(Field{"order_id", "#1"}, Field{"status", "pending"})))
}

func TestColumnsFirstSeenOrder(t *testing.T) {
	records := []Record{
		New(Field{"b", 1}, Field{"a", 2}),
		New(Field{"a", 3}, Field{"c", 4}),
	}
	assert.Equal(t, []string{"b", "a", "c"}, Columns(records))
	assert.Empty(t, Columns(nil))
}

func TestFromMapSortsKeys(t *testing.T) {
	r := FromMap(map[string]any{"b": 1, "a": 2})
	assert.Equal(t, []string{"a", "b"}, r.Keys())
}
