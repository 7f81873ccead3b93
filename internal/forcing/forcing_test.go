package forcing

import (
	"errors"
	"testing"
)

func TestSeriesAddAndGet(t *testing.T) {
	s := NewSeries([]float64{0, 1, 2})
	if err := s.Add(Prcp, []float64{1, 2, 3}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(Temp, []float64{-5, 0, 5}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
	got, err := s.Get(Temp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got[2] != 5 {
		t.Errorf("temp[2] = %v, want 5", got[2])
	}
}

func TestSeriesAddLengthMismatch(t *testing.T) {
	s := NewSeries([]float64{0, 1, 2})
	if err := s.Add(Prcp, []float64{1, 2}); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestSeriesReplaceKeepsOrder(t *testing.T) {
	s := NewSeries([]float64{0, 1})
	s.Add(Prcp, []float64{1, 1})
	s.Add(Temp, []float64{2, 2})
	s.Add(Prcp, []float64{9, 9})

	names := s.Names()
	if len(names) != 2 || names[0] != Prcp || names[1] != Temp {
		t.Errorf("Names = %v, want [prcp temp]", names)
	}
	v, _ := s.Get(Prcp)
	if v[0] != 9 {
		t.Errorf("replaced prcp[0] = %v, want 9", v[0])
	}
}

func TestSeriesGetUnknown(t *testing.T) {
	s := NewSeries([]float64{0})
	if _, err := s.Get("humidity"); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("err = %v, want ErrUnknownChannel", err)
	}
}

func TestSeriesMatrix(t *testing.T) {
	s := NewSeries([]float64{0, 1})
	s.Add(Prcp, []float64{1, 2})
	s.Add(Temp, []float64{3, 4})
	s.Add(Lday, []float64{5, 6})

	m, err := s.Matrix([]string{Lday, Prcp})
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if len(m) != 2 || m[0][1] != 6 || m[1][0] != 1 {
		t.Errorf("Matrix rows wrong: %v", m)
	}

	if _, err := s.Matrix([]string{Prcp, Flow}); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("err = %v, want ErrUnknownChannel", err)
	}
}
