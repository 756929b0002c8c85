package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCron(t *testing.T) {
	for _, expr := range []string{"* * * * *", "*/5 * * * *", "0 9 * * *", "30 17 * * 5", "0-30/5 9-17 * * 1-5", "0 9 1,15 JAN-JUN MON", "5/15 * * * 7"} {
		_, err := ParseCron(expr)
		assert.NoError(t, err, expr)
	}
	for _, expr := range []string{"", "* * *", "60 * * * *", "* 25 * * *", "* * * * 8", "*/0 * * * *", "abc * * * *", "* * * * FRI-MON", "0 9 * * SEXTA"} {
		_, err := ParseCron(expr)
		assert.Error(t, err, expr)
	}
}

func TestMatchesRange(t *testing.T) {
	c, err := ParseCron("0-30/5 9-17 * * 1-5")
	require.NoError(t, err)

	assert.True(t, c.Matches(time.Date(2026, 2, 16, 10, 15, 0, 0, time.UTC)), "monday 10:15")
	assert.False(t, c.Matches(time.Date(2026, 2, 14, 10, 15, 0, 0, time.UTC)), "saturday")
	assert.False(t, c.Matches(time.Date(2026, 2, 16, 10, 13, 0, 0, time.UTC)), "off step")
}

func TestMatchesNamesAndLists(t *testing.T) {
	c, err := ParseCron("*/30 8-18 * * SEG-SEX")
	require.NoError(t, err)
	monday := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)

	assert.True(t, c.Matches(monday.Add(8*time.Hour+30*time.Minute)))
	assert.True(t, c.Matches(monday.Add(18*time.Hour)))
	assert.False(t, c.Matches(monday.Add(19*time.Hour)), "after 18h")
	assert.False(t, c.Matches(monday.Add(9*time.Hour+15*time.Minute)), "off step")
	assert.False(t, c.Matches(monday.AddDate(0, 0, -1).Add(9*time.Hour)), "sunday")

	sunday, err := ParseCron("0 10 * * 7")
	require.NoError(t, err)
	assert.True(t, sunday.Matches(monday.AddDate(0, 0, -1).Add(10*time.Hour)), "7 is sunday")

	offset, err := ParseCron("10/20 * * * *")
	require.NoError(t, err)
	for min, want := range map[int]bool{10: true, 30: true, 50: true, 0: false, 20: false} {
		assert.Equal(t, want, offset.Matches(monday.Add(time.Duration(min)*time.Minute)), min)
	}
}

func TestNext(t *testing.T) {
	c, err := ParseCron("0 0 * * *")
	require.NoError(t, err)
	next := c.Next(time.Date(2026, 2, 15, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC), next)
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock(" 09:05 ")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 5, m)

	h, m, err = ParseClock("7")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 0}, []int{h, m})

	for _, bad := range []string{"", "24:00", "12:60", "nove"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestDaily(t *testing.T) {
	c, err := Daily("09:00")
	require.NoError(t, err)
	assert.True(t, c.Matches(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
	assert.True(t, c.Matches(time.Date(2025, 3, 16, 9, 0, 30, 0, time.UTC)))
	assert.False(t, c.Matches(time.Date(2025, 3, 10, 9, 1, 0, 0, time.UTC)))
}

func TestDailyWithWeekdaysOrCron(t *testing.T) {
	monday := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	saturday := monday.AddDate(0, 0, 5)

	for _, spec := range []string{"09:00 SEG-SEX", "9:00 mon-fri", "0 9 * * 1-5"} {
		c, err := Daily(spec)
		require.NoError(t, err, spec)
		assert.True(t, c.Matches(monday), spec)
		assert.False(t, c.Matches(saturday), spec)
	}

	c, err := Daily("*/30 8-18 * * MON-FRI")
	require.NoError(t, err)
	assert.Equal(t, monday.Add(30*time.Minute), c.Next(monday))
	assert.Equal(t, "*/30 8-18 * * MON-FRI", c.String())

	for _, bad := range []string{"", "09:00 SEG SEX", "0 9 * *"} {
		_, err := Daily(bad)
		assert.Error(t, err, bad)
	}
}

func TestWeekly(t *testing.T) {
	friday := time.Date(2025, 3, 14, 17, 30, 0, 0, time.UTC)

	c, err := Weekly("FRI 17:30")
	require.NoError(t, err)
	assert.True(t, c.Matches(friday))
	assert.False(t, c.Matches(friday.AddDate(0, 0, 1)))

	c, err = Weekly("sex")
	require.NoError(t, err)
	assert.True(t, c.Matches(friday), "portuguese day with default time")

	c, err = Weekly("TER,SEX 18:00")
	require.NoError(t, err)
	assert.True(t, c.Matches(time.Date(2025, 3, 11, 18, 0, 0, 0, time.UTC)), "tuesday")
	assert.True(t, c.Matches(friday.Add(30*time.Minute)))

	c, err = Weekly("30 17 * * 5")
	require.NoError(t, err)
	assert.True(t, c.Matches(friday))

	_, err = Weekly("FRIDAY 17:30")
	assert.Error(t, err)
	_, err = Weekly("")
	assert.Error(t, err)
}
