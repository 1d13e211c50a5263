package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/dagshift/pkg/converter"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	results := []converter.Result{
		{Path: "a.py", Changed: true, Size: 10},
		{Path: "b.py", Changed: false, Size: 5},
		{Path: "c.py", Err: errors.New("bad syntax"), Size: 7},
	}

	converted, unchanged, failed, bytes := summarize(results)

	assert.Equal(t, 1, converted)
	assert.Equal(t, 1, unchanged)
	assert.Equal(t, 1, failed)

	// Failed units contribute no bytes.
	assert.Equal(t, uint64(15), bytes)
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	converted, unchanged, failed, bytes := summarize(nil)

	assert.Zero(t, converted)
	assert.Zero(t, unchanged)
	assert.Zero(t, failed)
	assert.Zero(t, bytes)
}
