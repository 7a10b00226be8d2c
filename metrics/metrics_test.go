package metrics_test

import (
	"testing"

	. "github.com/dogmatiq/crowdcontrol/metrics"
	"golang.org/x/sync/errgroup"
	"pgregory.net/rapid"
)

func TestCounter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		Name    string
		Counter func() Counter[int64]
	}{
		{"SimpleCounter", func() Counter[int64] { return &SimpleCounter[int64]{} }},
		{"SharedCounter", func() Counter[int64] { return &SharedCounter[int64]{} }},
	}

	for _, c := range cases {
		c := c

		t.Run("type "+c.Name, func(t *testing.T) {
			t.Parallel()

			rapid.Check(t, func(t *rapid.T) {
				counter := c.Counter()
				var expect int64

				t.Repeat(map[string]func(*rapid.T){
					"increment": func(t *rapid.T) {
						d := rapid.Int64Range(-1000, 1000).Draw(t, "delta")
						counter.Inc(d)
						expect += d
					},
					"decrement": func(t *rapid.T) {
						d := rapid.Int64Range(-1000, 1000).Draw(t, "delta")
						counter.Dec(d)
						expect -= d
					},
					"": func(t *rapid.T) {
						if actual := counter.Value(); actual != expect {
							t.Fatalf("unexpected value: got %d, want %d", actual, expect)
						}
					},
				})
			})
		})
	}

	t.Run("type SharedCounter", func(t *testing.T) {
		t.Parallel()

		t.Run("it does not lose concurrent updates", func(t *testing.T) {
			t.Parallel()

			var (
				counter SharedCounter[int64]
				g       errgroup.Group
			)

			for i := 0; i < 10; i++ {
				g.Go(func() error {
					for j := 0; j < 1000; j++ {
						counter.Inc(2)
						counter.Dec(1)
					}
					return nil
				})
			}

			if err := g.Wait(); err != nil {
				t.Fatal(err)
			}

			if actual := counter.Value(); actual != 10000 {
				t.Fatalf("unexpected value: got %d, want 10000", actual)
			}
		})
	})
}

func TestGauge(t *testing.T) {
	t.Parallel()

	cases := []struct {
		Name  string
		Gauge func() Gauge[string]
	}{
		{"SimpleGauge", func() Gauge[string] { return &SimpleGauge[string]{} }},
		{"SharedGauge", func() Gauge[string] { return &SharedGauge[string]{} }},
	}

	for _, c := range cases {
		c := c

		t.Run("type "+c.Name, func(t *testing.T) {
			t.Parallel()

			t.Run("it has no value initially", func(t *testing.T) {
				t.Parallel()

				if _, ok := c.Gauge().Value(); ok {
					t.Fatal("did not expect gauge to have a value")
				}
			})

			t.Run("it returns the most recently set value", func(t *testing.T) {
				t.Parallel()

				g := c.Gauge()
				g.Set("<first>")
				g.Set("<second>")

				v, ok := g.Value()
				if !ok {
					t.Fatal("expected gauge to have a value")
				}
				if v != "<second>" {
					t.Fatalf("unexpected value: got %q, want %q", v, "<second>")
				}
			})

			t.Run("it removes the value when cleared", func(t *testing.T) {
				t.Parallel()

				g := c.Gauge()
				g.Set("<value>")
				g.Clear()

				if v, ok := g.Value(); ok {
					t.Fatalf("did not expect gauge to have a value, got %q", v)
				}
			})
		})
	}
}
