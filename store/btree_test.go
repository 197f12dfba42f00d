package store

import (
	"testing"

	"github.com/iov-one/tradefin/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBTreeCacheWrapReadsThrough(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("a"), []byte("1")))
	require.NoError(t, base.Set([]byte("b"), []byte("2")))

	cache := base.CacheWrap()
	require.NoError(t, cache.Set([]byte("c"), []byte("3")))
	require.NoError(t, cache.Delete([]byte("a")))

	val, err := cache.Get([]byte("a"))
	require.NoError(t, err)
	assert.Nil(t, val)

	has, err := cache.Has([]byte("b"))
	require.NoError(t, err)
	assert.True(t, has)

	// Parent is not modified until written.
	val, err = base.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)
	has, err = base.Has([]byte("c"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBTreeCacheWrapWrite(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("a"), []byte("1")))

	cache := base.CacheWrap()
	require.NoError(t, cache.Set([]byte("b"), []byte("2")))
	require.NoError(t, cache.Delete([]byte("a")))
	require.NoError(t, cache.Write())

	val, err := base.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), val)
	has, err := base.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBTreeCacheWrapDiscard(t *testing.T) {
	base := MemStore()
	cache := base.CacheWrap()
	require.NoError(t, cache.Set([]byte("b"), []byte("2")))
	cache.Discard()
	require.NoError(t, cache.Write())

	has, err := base.Has([]byte("b"))
	require.NoError(t, err)
	assert.False(t, has, "discarded changes must not be written")
}

func TestBTreeCacheWrapIterator(t *testing.T) {
	base := MemStore()
	for _, k := range []string{"a", "c", "e", "g"} {
		require.NoError(t, base.Set([]byte(k), []byte("base-"+k)))
	}
	cache := base.CacheWrap()
	require.NoError(t, cache.Set([]byte("b"), []byte("new-b")))
	require.NoError(t, cache.Set([]byte("c"), []byte("new-c")))
	require.NoError(t, cache.Delete([]byte("e")))
	require.NoError(t, cache.Set([]byte("h"), []byte("new-h")))

	cases := map[string]struct {
		start, end []byte
		reverse    bool
		want       []string
	}{
		"full range": {
			want: []string{"a=base-a", "b=new-b", "c=new-c", "g=base-g", "h=new-h"},
		},
		"full range reversed": {
			reverse: true,
			want:    []string{"h=new-h", "g=base-g", "c=new-c", "b=new-b", "a=base-a"},
		},
		"bounded": {
			start: []byte("b"),
			end:   []byte("g"),
			want:  []string{"b=new-b", "c=new-c"},
		},
		"bounded reversed": {
			start:   []byte("b"),
			end:     []byte("h"),
			reverse: true,
			want:    []string{"g=base-g", "c=new-c", "b=new-b"},
		},
		"only start": {
			start: []byte("d"),
			want:  []string{"g=base-g", "h=new-h"},
		},
		"only end": {
			end:  []byte("c"),
			want: []string{"a=base-a", "b=new-b"},
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var (
				it  Iterator
				err error
			)
			if tc.reverse {
				it, err = cache.ReverseIterator(tc.start, tc.end)
			} else {
				it, err = cache.Iterator(tc.start, tc.end)
			}
			require.NoError(t, err)
			all, err := ReadAll(it)
			require.NoError(t, err)

			var got []string
			for _, m := range all {
				got = append(got, string(m.Key)+"="+string(m.Value))
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSliceIteratorDone(t *testing.T) {
	it := NewSliceIterator([]Model{{Key: []byte("k"), Value: []byte("v")}})
	key, _, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("k"), key)

	_, _, err = it.Next()
	assert.True(t, errors.ErrIteratorDone.Is(err))
}

func TestNonAtomicBatch(t *testing.T) {
	base := MemStore()
	b := base.NewBatch().(*NonAtomicBatch)
	require.NoError(t, b.Set([]byte("a"), []byte("1")))
	require.NoError(t, b.Delete([]byte("a")))
	require.NoError(t, b.Set([]byte("b"), []byte("2")))
	require.Len(t, b.ops, 3)

	has, err := base.Has([]byte("b"))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, b.Write())
	assert.Empty(t, b.ops)
	has, err = base.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has)
	has, err = base.Has([]byte("b"))
	require.NoError(t, err)
	assert.True(t, has)
}
