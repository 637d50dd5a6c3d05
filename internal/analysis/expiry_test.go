package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNearestExpiry_PicksFirstOnOrAfterToday(t *testing.T) {
	got, ok := NearestExpiry([]any{"2026-09-30", "2026-09-02", "2026-10-28"}, "2026-08-29")
	assert.True(t, ok)
	assert.Equal(t, "2026-09-02", got)
}

func TestNearestExpiry_OrderIndependent(t *testing.T) {
	a, _ := NearestExpiry([]any{"2026-09-02", "2026-09-30"}, "2026-08-29")
	b, _ := NearestExpiry([]any{"2026-09-30", "2026-09-02"}, "2026-08-29")
	assert.Equal(t, a, b)
}

func TestNearestExpiry_TodayCounts(t *testing.T) {
	got, ok := NearestExpiry([]any{"2026-08-29", "2026-09-02"}, "2026-08-29")
	assert.True(t, ok)
	assert.Equal(t, "2026-08-29", got)
}

func TestNearestExpiry_AllPastFallsBackToLatest(t *testing.T) {
	got, ok := NearestExpiry([]any{"2026-01-28", "2026-02-25"}, "2026-08-29")
	assert.True(t, ok)
	assert.Equal(t, "2026-02-25", got)
}

func TestNearestExpiry_NestedShapes(t *testing.T) {
	shapes := []any{
		map[string]any{"data": []any{"2026-09-02"}},
		map[string]any{"data": map[string]any{"data": []any{"2026-09-02"}}},
		map[string]any{"data": map[string]any{"expiries": []any{"2026-09-02"}}},
		map[string]any{"data": map[string]any{"expiry_list": []any{"2026-09-02"}}},
	}
	for _, payload := range shapes {
		got, ok := NearestExpiry(payload, "2026-08-29")
		assert.True(t, ok)
		assert.Equal(t, "2026-09-02", got)
	}
}

func TestNearestExpiry_EmptyOrMalformed(t *testing.T) {
	_, ok := NearestExpiry(nil, "2026-08-29")
	assert.False(t, ok)

	_, ok = NearestExpiry(map[string]any{"data": []any{}}, "2026-08-29")
	assert.False(t, ok)

	// 过短的字符串不是日期，被过滤掉。
	_, ok = NearestExpiry([]any{"n/a", ""}, "2026-08-29")
	assert.False(t, ok)
}
