package vectorizer

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/DennisG8153/apkfeat/feature"
	"github.com/DennisG8153/apkfeat/vocab"
)

func TestSparseVector(t *testing.T) {
	sv := SparseVector{Indices: []int{1, 3}, Values: []float64{2, 4}, Dim: 5}
	dense := sv.ToDense()
	if !reflect.DeepEqual(dense, []float64{0, 2, 0, 4, 0}) {
		t.Errorf("ToDense unexpected: %v", dense)
	}
	if sv.Nnz() != 2 {
		t.Errorf("Nnz = %d, want 2", sv.Nnz())
	}
}

func TestSparseVectorSort(t *testing.T) {
	sv := SparseVector{Indices: []int{4, 0, 2}, Values: []float64{1, 2, 3}, Dim: 6}
	sv.Sort()
	if !reflect.DeepEqual(sv.Indices, []int{0, 2, 4}) || !reflect.DeepEqual(sv.Values, []float64{2, 3, 1}) {
		t.Errorf("Sort = %v %v", sv.Indices, sv.Values)
	}
}

func TestConcatSparse(t *testing.T) {
	sv1 := SparseVector{Indices: []int{0}, Values: []float64{1}, Dim: 3}
	sv2 := SparseVector{Indices: []int{1}, Values: []float64{2}, Dim: 2}

	result := ConcatSparse([]SparseVector{sv1, sv2})
	if result.Dim != 5 {
		t.Errorf("Dim = %d, want 5", result.Dim)
	}
	dense := result.ToDense()
	if dense[0] != 1.0 || dense[4] != 2.0 {
		t.Errorf("Concat unexpected: %v", dense)
	}
}

func perms(id string, tokens ...string) *feature.Record {
	rec := feature.NewRecord(id)
	for _, tok := range tokens {
		rec.Add(feature.Permissions, tok, 1)
	}
	return rec
}

func TestEncodeReducedVocabulary(t *testing.T) {
	a := perms("A", "READ_SMS")
	b := perms("B", "READ_SMS", "CAMERA")

	x := vocab.NewIndex()
	x.Ingest(a)
	x.Ingest(b)
	if e, _ := x.Lookup(feature.Permissions, "CAMERA"); e.ID != 1 {
		t.Fatalf("CAMERA id = %d, want 1", e.ID)
	}

	reduced, err := vocab.Reduce(x, 2, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := NewEncoder(reduced.Snapshot(), Binary)
	if err != nil {
		t.Fatal(err)
	}
	got := enc.TransformDense(b)
	if !reflect.DeepEqual(got, []float64{1}) {
		t.Errorf("encode B = %v, want [1]", got)
	}
	if got := enc.TransformDense(a); !reflect.DeepEqual(got, []float64{0}) {
		t.Errorf("encode A = %v, want [0]", got)
	}
}

func testSnapshot() *vocab.Snapshot {
	x := vocab.NewIndex()
	r1 := feature.NewRecord("1")
	r1.Add(feature.URLs, "tracking", 1)
	r1.Add(feature.Permissions, "CAMERA", 1)
	r1.Add(feature.APICalls, "a.b.c", 1)
	x.Ingest(r1)
	r2 := feature.NewRecord("2")
	r2.Add(feature.Permissions, "READ_SMS", 1)
	r2.Add(feature.Permissions, "CAMERA", 1)
	x.Ingest(r2)
	return x.Snapshot()
}

func TestEncodeLayoutAndModes(t *testing.T) {
	snap := testSnapshot()
	// Layout: CAMERA, READ_SMS, a.b.c, tracking.
	rec := feature.NewRecord("s")
	rec.Add(feature.URLs, "tracking", 3)
	rec.Add(feature.URLs, "unseen", 9)
	rec.Add(feature.Permissions, "READ_SMS", 2)

	binary, _ := NewEncoder(snap, Binary)
	if got := binary.TransformDense(rec); !reflect.DeepEqual(got, []float64{0, 1, 0, 1}) {
		t.Errorf("binary = %v", got)
	}
	count, _ := NewEncoder(snap, Count)
	if got := count.TransformDense(rec); !reflect.DeepEqual(got, []float64{0, 2, 0, 3}) {
		t.Errorf("count = %v", got)
	}
	sv := count.Transform(rec)
	if !reflect.DeepEqual(sv.Indices, []int{1, 3}) {
		t.Errorf("indices = %v, want [1 3]", sv.Indices)
	}
}

func TestEncodeDimensionInvariant(t *testing.T) {
	snap := testSnapshot()
	enc, _ := NewEncoder(snap, Count)
	recs := []*feature.Record{
		feature.NewRecord("empty"),
		perms("p", "CAMERA"),
		perms("q", "X", "Y", "Z"),
	}
	for _, rec := range recs {
		sv := enc.Transform(rec)
		if sv.Dim != snap.Dim() || len(sv.ToDense()) != 4 {
			t.Errorf("Dim = %d, want %d", sv.Dim, snap.Dim())
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	enc, _ := NewEncoder(testSnapshot(), Tfidf)
	rec := feature.NewRecord("s")
	rec.Add(feature.URLs, "tracking", 1)
	rec.Add(feature.APICalls, "a.b.c", 2)
	rec.Add(feature.Permissions, "CAMERA", 1)

	first, err := json.Marshal(enc.Transform(rec))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _ := json.Marshal(enc.Transform(rec))
		if string(again) != string(first) {
			t.Fatalf("encoding differs: %s vs %s", again, first)
		}
	}
}

func TestEncodeTfidf(t *testing.T) {
	snap := testSnapshot()
	enc, _ := NewEncoder(snap, Tfidf)
	idf := enc.idf
	// CAMERA appears in both samples, READ_SMS in one.
	if !(idf[0] < idf[1]) {
		t.Errorf("idf(CAMERA)=%v should be below idf(READ_SMS)=%v", idf[0], idf[1])
	}
	wantCamera := math.Log(3.0/3.0) + 1
	if math.Abs(idf[0]-wantCamera) > 1e-12 {
		t.Errorf("idf(CAMERA) = %v, want %v", idf[0], wantCamera)
	}

	sv := enc.Transform(perms("s", "CAMERA", "READ_SMS"))
	if math.Abs(sv.L2Norm()-1) > 1e-9 {
		t.Errorf("norm = %v, want 1", sv.L2Norm())
	}
	if empty := enc.Transform(feature.NewRecord("e")); empty.Nnz() != 0 {
		t.Errorf("empty record nnz = %d", empty.Nnz())
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"binary", "Count", " tfidf "} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q) error: %v", s, err)
		}
	}
	if _, err := ParseMode("onehot"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if _, err := NewEncoder(nil, Binary); err == nil {
		t.Error("expected error for nil snapshot")
	}
}
