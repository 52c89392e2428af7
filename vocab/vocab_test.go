package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DennisG8153/apkfeat/categorize"
	"github.com/DennisG8153/apkfeat/feature"
)

func record(id string, perms ...string) *feature.Record {
	rec := feature.NewRecord(id)
	for _, p := range perms {
		rec.Add(feature.Permissions, p, 1)
	}
	return rec
}

func TestIngestAssignsFirstSeenIDs(t *testing.T) {
	req := require.New(t)
	x := NewIndex()
	x.Ingest(record("a", "READ_SMS"))
	x.Ingest(record("b", "READ_SMS", "CAMERA"))

	e, ok := x.Lookup(feature.Permissions, "READ_SMS")
	req.True(ok)
	req.Equal(Entry{Token: "READ_SMS", ID: 0, DocFreq: 2, Count: 2}, e)
	e, ok = x.Lookup(feature.Permissions, "CAMERA")
	req.True(ok)
	req.Equal(1, e.ID)
	req.Equal(1, e.DocFreq)
	req.Equal(2, x.Samples())
	req.Equal(2, x.Total())
	for _, tp := range feature.Types() {
		if tp != feature.Permissions {
			req.Equal(0, x.Len(tp))
			req.NotNil(x.Entries(tp))
		}
	}
}

func TestIngestCountsDocFreqOncePerSample(t *testing.T) {
	req := require.New(t)
	x := NewIndex()
	rec := feature.NewRecord("a")
	rec.Add(feature.APICalls, "a.b.c", 7)
	x.Ingest(rec)
	e, _ := x.Lookup(feature.APICalls, "a.b.c")
	req.Equal(1, e.DocFreq)
	req.Equal(7, e.Count)
}

func TestGrowthMonotonicity(t *testing.T) {
	req := require.New(t)
	x := NewIndex()
	prev := map[string]Entry{}
	for n := 0; n < 20; n++ {
		rec := feature.NewRecord(fmt.Sprint(n))
		for k := 0; k <= n%5; k++ {
			rec.Add(feature.Intents, fmt.Sprintf("intent.%d", (n+k)%7), 1)
		}
		x.Ingest(rec)
		for _, e := range x.Entries(feature.Intents) {
			if old, ok := prev[e.Token]; ok {
				req.Equal(old.ID, e.ID)
				req.GreaterOrEqual(e.DocFreq, old.DocFreq)
			}
			req.LessOrEqual(e.DocFreq, x.Samples())
			prev[e.Token] = e
		}
	}
	req.NoError(x.Validate(x.Samples()))
}

func TestReducePruningBounds(t *testing.T) {
	req := require.New(t)
	x := NewIndex()
	// T in 1 sample, U in all 5, V in 3.
	x.Ingest(record("1", "T", "U", "V"))
	x.Ingest(record("2", "U", "V"))
	x.Ingest(record("3", "U", "V"))
	x.Ingest(record("4", "U"))
	x.Ingest(record("5", "U"))

	reduced, err := Reduce(x, 5, 1, 0)
	req.NoError(err)
	req.False(reduced.Contains(feature.Permissions, "T"))
	req.False(reduced.Contains(feature.Permissions, "U"))
	req.True(reduced.Contains(feature.Permissions, "V"))

	// Ids survive pruning without renumbering.
	v, _ := reduced.Lookup(feature.Permissions, "V")
	req.Equal(2, v.ID)
	// The source index is untouched.
	req.Equal(3, x.Len(feature.Permissions))

	dense := reduced.Reindex()
	v, _ = dense.Lookup(feature.Permissions, "V")
	req.Equal(0, v.ID)
}

func TestReduceKeepsIDsWhenGrowingAfterPrune(t *testing.T) {
	req := require.New(t)
	x := NewIndex()
	x.Ingest(record("1", "A", "B"))
	x.Ingest(record("2", "B"))
	reduced, err := Reduce(x, 2, 0, 0)
	req.NoError(err)
	req.False(reduced.Contains(feature.Permissions, "B"))
	reduced.Ingest(record("3", "C"))
	c, _ := reduced.Lookup(feature.Permissions, "C")
	req.Equal(2, c.ID)
}

func TestReduceRejectsInconsistentIndex(t *testing.T) {
	x := NewIndex()
	x.Ingest(record("1", "A"))
	x.Ingest(record("2", "A"))
	_, err := Reduce(x, 1, 0, 0)
	require.Error(t, err)
	var ce *ConsistencyError
	require.True(t, errors.As(err, &ce))
	require.Contains(t, err.Error(), "document frequency 2")

	_, err = Reduce(x, 2, -1, 0)
	require.Error(t, err)
}

func TestReduceRecord(t *testing.T) {
	req := require.New(t)
	x := NewIndex()
	x.Insert(feature.Permissions, "KEEP", 3, 3)
	rec := record("s", "KEEP", "DROP")
	out := ReduceRecord(rec, x)
	req.Equal([]string{"KEEP"}, out.Tokens(feature.Permissions))
	req.Equal("s", out.ID)
}

func TestBoundsKeep(t *testing.T) {
	b := DefaultBounds()
	require.False(t, b.Keep(5, 100))
	require.True(t, b.Keep(6, 100))
	require.True(t, b.Keep(98, 100))
	require.False(t, b.Keep(99, 100))
}

func TestRecount(t *testing.T) {
	req := require.New(t)
	x := NewIndex()
	x.Insert(feature.Permissions, "A", 0, 0)
	x.Insert(feature.Permissions, "B", 0, 0)

	req.Equal(0, x.Recount(record("1", "B")))
	req.Equal(1, x.Recount(record("2", "A", "C")))
	req.Equal(2, x.Samples())
	req.False(x.Contains(feature.Permissions, "C"))
	b, _ := x.Lookup(feature.Permissions, "B")
	req.Equal(1, b.DocFreq)
	req.Equal(1, b.ID)
	req.NoError(x.Validate(2))
}

func TestSnapshotLayout(t *testing.T) {
	req := require.New(t)
	x := NewIndex()
	rec := feature.NewRecord("a")
	rec.Add(feature.URLs, "tracking", 1)
	rec.Add(feature.Permissions, "CAMERA", 1)
	rec.Add(feature.APICalls, "a.b.c", 1)
	rec.Add(feature.Permissions, "READ_SMS", 1)
	x.Ingest(rec)

	s := x.Snapshot()
	req.Equal(4, s.Dim())
	req.Equal([]string{"permissions:CAMERA", "permissions:READ_SMS", "api_calls:a.b.c", "urls:tracking"}, s.FeatureNames())
	i, ok := s.Index(feature.APICalls, "a.b.c")
	req.True(ok)
	req.Equal(2, i)
	req.Equal(2, s.Offset(feature.UsedHardwareSoftware))
	req.Equal(3, s.Offset(feature.URLs))
	_, ok = s.Index(feature.URLs, "missing")
	req.False(ok)
	req.Equal([]int{1, 1, 1, 1}, s.DocFreqs())
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	req := require.New(t)
	x := NewIndex()
	x.Ingest(record("a", "READ_SMS", "CAMERA"))
	x.Ingest(record("b", "CAMERA"))
	s := x.Snapshot()

	data, err := json.Marshal(s)
	req.NoError(err)

	var got Snapshot
	req.NoError(json.Unmarshal(data, &got))
	req.Equal(s.FeatureNames(), got.FeatureNames())
	req.Equal(s.DocFreqs(), got.DocFreqs())
	req.Equal(2, got.Samples())

	req.Nil(got.Categorization())

	p := categorize.Options{CollapseUncategorizedURLs: true}.Profile()
	data, err = json.Marshal(s.WithCategorization(&p))
	req.NoError(err)
	req.Nil(s.Categorization())
	var cat Snapshot
	req.NoError(json.Unmarshal(data, &cat))
	req.NotNil(cat.Categorization())
	req.True(cat.Categorization().Equal(p))
}

func TestSnapshotRejectsTypeMismatch(t *testing.T) {
	x := NewIndex()
	data, err := json.Marshal(x.Snapshot())
	require.NoError(t, err)
	legacy := strings.Replace(string(data), `"used_hardware_software"`, `"used_hsware"`, 1)

	var got Snapshot
	err = json.Unmarshal([]byte(legacy), &got)
	require.ErrorIs(t, err, ErrSnapshotTypes)
}

func TestCorpusCounters(t *testing.T) {
	req := require.New(t)
	c := NewCorpus()
	c.Add("benign_features/b.txt", 3)
	c.Add("benign_features/a.txt", 5)
	c.Add("benign_features/b.txt", 4)
	req.Equal(2, c.Files)
	req.Equal([]string{"benign_features/b.txt", "benign_features/a.txt"}, c.Samples())
	n, ok := c.Total("benign_features/b.txt")
	req.True(ok)
	req.Equal(4, n)

	c.Set("x", 1)
	req.Equal(2, c.Files)
	req.Equal(3, c.Len())
	c.Reset()
	req.Equal(0, c.Len())
}
