package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyUnmarshalAcceptsStringsAndNumbers(t *testing.T) {
	var got struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
		D Money `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"499.00","b":350,"c":"","d":null}`), &got))
	assert.Equal(t, int64(499), got.A.Int64())
	assert.Equal(t, int64(350), got.B.Int64())
	assert.True(t, got.C.IsZero())
	assert.True(t, got.D.IsZero())

	var bad Money
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
}

func TestMoneyMarshalsAsInteger(t *testing.T) {
	out, err := json.Marshal(NewMoney(998))
	require.NoError(t, err)
	assert.Equal(t, "998", string(out))
}

func TestCartItemLineTotal(t *testing.T) {
	item := CartItem{ID: "menu", Price: 499, Quantity: 3}
	assert.Equal(t, int64(1497), item.LineTotal().Int64())
}

func TestIdentitySame(t *testing.T) {
	var guest *Identity
	alice := &Identity{ID: 1, Username: "alice"}
	bob := &Identity{ID: 2, Username: "bob"}

	assert.True(t, guest.Same(nil))
	assert.True(t, guest.Same(&Identity{}))
	assert.False(t, guest.Same(alice))
	assert.False(t, alice.Same(bob))
	assert.True(t, alice.Same(&Identity{ID: 1, Username: "alice", Email: "new@example.com"}))
}
