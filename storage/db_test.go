package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	t.Cleanup(db.Close)

	require.NoError(t, db.Put([]byte("alpha"), []byte{0x01, 0x02}))

	value, err := db.Get([]byte("alpha"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, value)

	ok, err := db.Has([]byte("alpha"))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, db.Delete([]byte("alpha")))

	ok, err = db.Has([]byte("alpha"))
	require.NoError(t, err)
	require.False(t, ok)

	_, err = db.Get([]byte("alpha"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	t.Cleanup(db.Close)

	value := []byte{0xAA}
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 0xBB

	stored, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, byte(0xAA), stored[0])
}
