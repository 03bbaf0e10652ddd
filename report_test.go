package pqhash

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportAdd(t *testing.T) {
	var r Report
	r.Add(processed("a"))
	r.Add(skipped("b"))
	r.Add(failed("c", StageLoad, errors.New("boom")))

	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 1, r.Processed)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 1, r.Failed)
	assert.False(t, r.OK())
	assert.EqualError(t, r.Errors[0], `item "c": load: boom`)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "processed", StatusProcessed.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", Status(9).String())
}
