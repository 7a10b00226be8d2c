package main

import (
	"context"
	"strings"
	"testing"

	"github.com/dogmatiq/crowdcontrol/internal/test"
	"github.com/dogmatiq/crowdcontrol/journal"
)

func TestAppendLines(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := test.Context(t)

	j, err := journal.Open(ctx, dir, journal.WithLogger(test.NewLogger(t)))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	if err := appendLines(
		ctx,
		j,
		strings.NewReader("one\ntwo\r\nthree"),
	); err != nil {
		t.Fatal(err)
	}

	var got []string
	if err := j.Range(
		ctx,
		j.Origin(),
		func(_ context.Context, rec journal.Record) (bool, error) {
			got = append(got, string(rec.Payload))
			return true, nil
		},
	); err != nil {
		t.Fatal(err)
	}

	test.Expect(
		t,
		"unexpected records",
		got,
		[]string{"one", "two", "three"},
	)

	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	size, err := diskUsage(dir)
	if err != nil {
		t.Fatal(err)
	}

	if size == 0 {
		t.Fatal("expected segment files to be non-empty")
	}
}

func TestAppendLines_longLines(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := test.Context(t)

	j, err := journal.Open(ctx, dir, journal.WithLogger(test.NewLogger(t)))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	long := strings.Repeat("x", 100<<10)

	if err := appendLines(
		ctx,
		j,
		strings.NewReader(long+"\nshort\n"),
	); err != nil {
		t.Fatal(err)
	}

	var got []string
	if err := j.Range(
		ctx,
		j.Origin(),
		func(_ context.Context, rec journal.Record) (bool, error) {
			got = append(got, string(rec.Payload))
			return true, nil
		},
	); err != nil {
		t.Fatal(err)
	}

	test.Expect(
		t,
		"unexpected records",
		got,
		[]string{long, "short"},
	)
}
