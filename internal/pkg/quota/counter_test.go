package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponsesThisMonthUsesCalendarMonthStart(t *testing.T) {
	feedback := &fakeFeedbackCountRepo{count: 7}
	counter := NewCounter(&fakeCountRepo{}, &fakeQRCountRepo{}, feedback)

	now := time.Date(2025, 6, 15, 18, 30, 45, 0, time.UTC)
	count, err := counter.ResponsesThisMonth(1, now)
	require.NoError(t, err)

	assert.Equal(t, int64(7), count)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), feedback.lastSince)
}

func TestResponsesThisMonthFirstOfMonth(t *testing.T) {
	feedback := &fakeFeedbackCountRepo{}
	counter := NewCounter(&fakeCountRepo{}, &fakeQRCountRepo{}, feedback)

	now := time.Date(2025, 7, 1, 0, 0, 1, 0, time.UTC)
	_, err := counter.ResponsesThisMonth(1, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), feedback.lastSince)
}

func TestCounterDelegates(t *testing.T) {
	surveys := &fakeCountRepo{surveys: 3}
	qrCodes := &fakeQRCountRepo{count: 5}
	counter := NewCounter(surveys, qrCodes, &fakeFeedbackCountRepo{})

	n, err := counter.Surveys(1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = counter.QRCodes(1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}
