package weighting

import (
	"errors"
	"math"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/errors"
)

type fakeCollection struct {
	n  int
	df map[string]int
}

func (c fakeCollection) DocumentCount() int { return c.n }

func (c fakeCollection) DocumentFrequency(term string) (int, bool) {
	df, ok := c.df[term]
	return df, ok
}

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestParseScheme(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"nnn", false},
		{"atc", false},
		{"bpn", false},
		{"xtc", true},
		{"axc", true},
		{"atx", true},
		{"at", true},
		{"atcc", true},
		{"", true},
	}
	for _, tt := range tests {
		s, err := ParseScheme(tt.in)
		if tt.wantErr {
			if !errors.Is(err, apperrors.ErrInvalidScheme) {
				t.Errorf("ParseScheme(%q) error = %v, want ErrInvalidScheme", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseScheme(%q): %v", tt.in, err)
			continue
		}
		if s.String() != tt.in {
			t.Errorf("String() = %q, want %q", s.String(), tt.in)
		}
	}
}

func TestParsePair(t *testing.T) {
	p, err := ParsePair("ann.bpn")
	if err != nil {
		t.Fatal(err)
	}
	if p.Document.String() != "ann" || p.Query.String() != "bpn" {
		t.Errorf("ParsePair = %+v", p)
	}
	if p.Normalize() {
		t.Error("ann.bpn should not normalise")
	}
	for _, bad := range []string{"atc", "atc.", ".atc", "atc.xyz", "bm25"} {
		if _, err := ParsePair(bad); !errors.Is(err, apperrors.ErrInvalidScheme) {
			t.Errorf("ParsePair(%q) error = %v", bad, err)
		}
	}
}

func TestAllPairsAreValid(t *testing.T) {
	schemes := Schemes()
	if len(schemes) != 18 {
		t.Fatalf("Schemes() = %d, want 18", len(schemes))
	}
	count := 0
	for _, d := range schemes {
		for _, q := range schemes {
			p, err := ParsePair(d.String() + "." + q.String())
			if err != nil {
				t.Fatalf("pair %s.%s: %v", d, q, err)
			}
			if p.Normalize() != (d.Cosine() && q.Cosine()) {
				t.Errorf("%s: Normalize = %v", p, p.Normalize())
			}
			count++
		}
	}
	if count != 324 {
		t.Errorf("pairs = %d, want 324", count)
	}
}

func TestWeighComponents(t *testing.T) {
	coll := fakeCollection{n: 4, df: map[string]int{"cat": 1, "dog": 2, "all": 4}}
	tf := map[string]int{"cat": 2, "dog": 1, "all": 1, "zebra": 1}

	tests := []struct {
		scheme string
		want   map[string]float64
	}{
		{"nnn", map[string]float64{"cat": 2, "dog": 1, "all": 1, "zebra": 1}},
		{"ann", map[string]float64{"cat": 1, "dog": 0.75, "all": 0.75, "zebra": 0.75}},
		{"bnn", map[string]float64{"cat": 1, "dog": 1, "all": 1, "zebra": 1}},
		{"ntn", map[string]float64{"cat": 2 * math.Log(4), "dog": math.Log(2), "all": 0, "zebra": 1}},
		{"npn", map[string]float64{"cat": 2 * math.Log(3), "dog": 0, "all": 0, "zebra": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			s, err := ParseScheme(tt.scheme)
			if err != nil {
				t.Fatal(err)
			}
			v := s.Weigh(tf, coll)
			if v.Norm != 1 {
				t.Errorf("Norm = %v, want 1", v.Norm)
			}
			if len(v.Weights) != len(tt.want) {
				t.Fatalf("weights = %v, want %v", v.Weights, tt.want)
			}
			for term, want := range tt.want {
				if got := v.Weights[term]; !approx(got, want) {
					t.Errorf("w(%s) = %v, want %v", term, got, want)
				}
			}
		})
	}
}

func TestProbabilisticIDFNeverNegativeInfinity(t *testing.T) {
	coll := fakeCollection{n: 3, df: map[string]int{"x": 3}}
	s, _ := ParseScheme("npn")
	v := s.Weigh(map[string]int{"x": 5}, coll)
	w := v.Weights["x"]
	if w != 0 || math.IsInf(w, 0) || math.IsNaN(w) {
		t.Errorf("w(x) = %v, want 0", w)
	}
}

func TestCosineNormalisation(t *testing.T) {
	coll := fakeCollection{n: 1}
	s, _ := ParseScheme("nnc")
	v := s.Weigh(map[string]int{"a": 3, "b": 4}, coll)
	if !approx(v.Weights["a"], 0.6) || !approx(v.Weights["b"], 0.8) {
		t.Errorf("weights = %v", v.Weights)
	}
	if !approx(v.Norm, 1) {
		t.Errorf("Norm = %v, want 1", v.Norm)
	}
}

func TestCosineZeroVector(t *testing.T) {
	coll := fakeCollection{n: 2, df: map[string]int{"a": 2}}
	s, _ := ParseScheme("ntc")
	v := s.Weigh(map[string]int{"a": 3}, coll)
	if v.Norm != 0 {
		t.Errorf("Norm = %v, want 0", v.Norm)
	}
	if w := v.Weights["a"]; w != 0 || math.IsNaN(w) {
		t.Errorf("w(a) = %v, want 0", w)
	}

	empty := s.Weigh(map[string]int{}, coll)
	if empty.Norm != 0 || len(empty.Weights) != 0 {
		t.Errorf("empty vector = %+v", empty)
	}
}

func TestAugmentedZeroMax(t *testing.T) {
	s, _ := ParseScheme("ann")
	v := s.Weigh(map[string]int{"a": 0}, fakeCollection{n: 1})
	if len(v.Weights) != 0 {
		t.Errorf("zero counts should not produce weights: %v", v.Weights)
	}
}

func TestVectorTermsSorted(t *testing.T) {
	a := Vector{Weights: map[string]float64{"y": 3, "x": 2}, Norm: 1}
	if got := a.Terms(); len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("Terms = %v", got)
	}
}

func TestDescribe(t *testing.T) {
	s, _ := ParseScheme("atc")
	if got := s.Describe(); got != "augmented tf, idf, cosine" {
		t.Errorf("Describe = %q", got)
	}
}

func BenchmarkWeighCosine(b *testing.B) {
	coll := fakeCollection{n: 3000, df: map[string]int{}}
	tf := make(map[string]int)
	for i := 0; i < 200; i++ {
		term := string(rune('a'+i%26)) + string(rune('a'+i/26))
		tf[term] = i%7 + 1
		coll.df[term] = i%50 + 1
	}
	s, _ := ParseScheme("atc")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Weigh(tf, coll)
	}
}
