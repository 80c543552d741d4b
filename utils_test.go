package waveplot

import (
	"reflect"
	"testing"
)

func TestFilter(t *testing.T) {
	t.Run("empty slice", func(t *testing.T) {
		var input []int = nil
		pred := func(int) bool { return true }
		got := Filter(input, pred)
		want := []int{}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Filter(%v) = %v, want %v", input, got, want)
		}
	})

	t.Run("partial match", func(t *testing.T) {
		input := []int{1, 2, 3}
		pred := func(x int) bool { return x%2 == 1 }
		got := Filter(input, pred)
		want := []int{1, 3}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Filter(%v) = %v, want %v", input, got, want)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		input := []int{1, 2, 3}
		pred := func(x int) bool { return x > 10 }
		got := Filter(input, pred)
		want := []int{}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Filter(%v) = %v, want %v", input, got, want)
		}
	})
}

func TestRing(t *testing.T) {
	t.Run("UnderCapacity", func(t *testing.T) {
		r := NewRing[int](5)
		r.Push(1)
		r.Push(2)

		got := r.ReadAllOrdered()
		want := []int{1, 2}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("ReadAllOrdered = %v, want %v", got, want)
		}
	})

	t.Run("OverCapacity", func(t *testing.T) {
		r := NewRing[int](3)
		for i := 1; i <= 5; i++ {
			r.Push(i)
		}

		got := r.ReadAllOrdered()
		want := []int{3, 4, 5}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("ReadAllOrdered = %v, want %v", got, want)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		r := NewRing[int](3)
		got := r.ReadAllOrdered()
		if len(got) != 0 {
			t.Fatalf("ReadAllOrdered = %v, want empty", got)
		}
	})
}
