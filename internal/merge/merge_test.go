package merge

import (
	"context"
	"encoding/json"
	"testing"

	"chunkfold-core/kmer"

	"github.com/stretchr/testify/require"

	"chunkfold/internal/codec"
	"chunkfold/internal/store"
)

func seedStore(t *testing.T, parts map[int]kmer.Counts) *store.FS {
	t.Helper()
	st, err := store.NewFS(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	enc := codec.NewSnappyJSON[kmer.Counts]()
	ctx := context.Background()
	for idx, counts := range parts {
		data, err := enc.Encode(counts)
		require.NoError(t, err)
		require.NoError(t, st.Put(ctx, idx, data))
	}
	return st
}

func TestMergeFoldsAllPartials(t *testing.T) {
	st := seedStore(t, map[int]kmer.Counts{
		0: {"ACGT": 2, "CGTA": 1},
		1: {"ACGT": 3},
		2: {"TTTT": 7},
	})
	dec := codec.NewSnappyJSON[kmer.Counts]()

	got, missing, err := Merge(context.Background(), st, dec, make(kmer.Counts), Options{Expected: 3})
	require.NoError(t, err)
	require.Empty(t, missing)
	require.Equal(t, kmer.Counts{"ACGT": 5, "CGTA": 1, "TTTT": 7}, got)
}

func TestMergeReportsMissing(t *testing.T) {
	st := seedStore(t, map[int]kmer.Counts{
		0: {"ACGT": 1},
		3: {"ACGT": 1},
	})
	dec := codec.NewSnappyJSON[kmer.Counts]()

	_, missing, err := Merge(context.Background(), st, dec, make(kmer.Counts), Options{Expected: 5})
	require.Equal(t, []int{1, 2, 4}, missing)

	var ierr *IncompleteError
	require.ErrorAs(t, err, &ierr)
	require.Equal(t, []int{1, 2, 4}, ierr.Missing)
}

func TestMergeBestEffort(t *testing.T) {
	st := seedStore(t, map[int]kmer.Counts{
		0: {"ACGT": 1},
		2: {"ACGT": 2},
	})
	dec := codec.NewSnappyJSON[kmer.Counts]()

	got, missing, err := Merge(context.Background(), st, dec, make(kmer.Counts), Options{Expected: 3, BestEffort: true})
	require.NoError(t, err)
	require.Equal(t, []int{1}, missing)
	require.Equal(t, kmer.Counts{"ACGT": 3}, got)
}

func TestMergeRejectsIndexBeyondExpected(t *testing.T) {
	st := seedStore(t, map[int]kmer.Counts{
		0: {"ACGT": 1},
		9: {"ACGT": 1},
	})
	dec := codec.NewSnappyJSON[kmer.Counts]()

	_, _, err := Merge(context.Background(), st, dec, make(kmer.Counts), Options{Expected: 2})
	require.Error(t, err)
	require.Contains(t, err.Error(), "chunk 9")
}

func TestMergeFailsOnCorruptPartial(t *testing.T) {
	st := seedStore(t, map[int]kmer.Counts{0: {"ACGT": 1}})
	require.NoError(t, st.Put(context.Background(), 1, []byte("\x00garbage")))
	dec := codec.NewSnappyJSON[kmer.Counts]()

	_, _, err := Merge(context.Background(), st, dec, make(kmer.Counts), Options{Expected: 2})
	require.Error(t, err)
}

func TestMergeDeterministicAcrossReaderCounts(t *testing.T) {
	parts := map[int]kmer.Counts{
		0: {"AAAA": 1, "CCCC": 2},
		1: {"AAAA": 10},
		2: {"GGGG": 3},
		3: {"CCCC": 4, "TTTT": 1},
	}
	dec := codec.NewSnappyJSON[kmer.Counts]()

	var want []byte
	for _, readers := range []int{1, 2, 8} {
		st := seedStore(t, parts)
		got, _, err := Merge(context.Background(), st, dec, make(kmer.Counts), Options{Expected: 4, Readers: readers})
		require.NoError(t, err)

		enc, err := json.Marshal(got)
		require.NoError(t, err)
		if want == nil {
			want = enc
			continue
		}
		require.Equal(t, string(want), string(enc), "readers=%d changed the result", readers)
	}
}
