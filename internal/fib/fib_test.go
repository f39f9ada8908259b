package fib

import "testing"

func TestCompute(t *testing.T) {
	cases := []struct {
		n, want int64
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{10, 55},
		{-1, 0},
	}
	for _, c := range cases {
		if got := Compute(c.n); got != c.want {
			t.Errorf("Compute(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}
