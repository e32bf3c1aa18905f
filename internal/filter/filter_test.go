package filter

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestFromQuery(t *testing.T) {
	now := time.Now().UTC()

	testCases := []struct {
		name      string
		rawQuery  string
		expected  Filter
		expectErr bool
	}{
		{
			name:     "No parameters",
			rawQuery: "",
			expected: Filter{Now: now},
		},
		{
			name:     "Exact location",
			rawQuery: "location=Cairo",
			expected: Filter{Location: "Cairo", Now: now},
		},
		{
			name:     "Substring match",
			rawQuery: "loc=alex",
			expected: Filter{Contains: "alex", Now: now},
		},
		{
			name:     "Recent true",
			rawQuery: "recent=true",
			expected: Filter{Recent: true, Now: now},
		},
		{
			name:     "Recent false is identity",
			rawQuery: "recent=false",
			expected: Filter{Now: now},
		},
		{
			name:     "Combined parameters",
			rawQuery: "loc=alex&recent=true",
			expected: Filter{Contains: "alex", Recent: true, Now: now},
		},
		{
			name:      "Invalid recent value",
			rawQuery:  "recent=maybe",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			values, err := url.ParseQuery(tc.rawQuery)
			require.NoError(t, err)

			f, err := FromQuery(values.Get, now)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, f)
			}
		})
	}
}

// rvmRow mirrors the columns Apply filters on, so the predicate logic can be
// exercised against a real database without importing the model package.
type rvmRow struct {
	ID        int64 `gorm:"primaryKey"`
	Location  string
	LastUsage *time.Time
}

func (rvmRow) TableName() string { return "rvms" }

func TestFilter_Apply(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&rvmRow{}))

	now := time.Now().UTC()
	recentUsage := now.Add(-1 * time.Hour)
	staleUsage := now.Add(-30 * time.Hour)

	rows := []rvmRow{
		{ID: 1, Location: "Alexandria", LastUsage: &recentUsage},
		{ID: 2, Location: "ALEXANDRIA WEST", LastUsage: &staleUsage},
		{ID: 3, Location: "Cairo", LastUsage: nil},
		{ID: 4, Location: "Giza", LastUsage: &recentUsage},
		{ID: 5, Location: "50% Mall", LastUsage: nil},
		{ID: 6, Location: "50 Mall", LastUsage: nil},
		{ID: 7, Location: "Pier_7", LastUsage: nil},
		{ID: 8, Location: "PierX7", LastUsage: nil},
	}
	require.NoError(t, db.Create(&rows).Error)

	query := func(f Filter) []int64 {
		var got []rvmRow
		require.NoError(t, f.Apply(db.Model(&rvmRow{})).Order("id").Find(&got).Error)
		ids := make([]int64, len(got))
		for i, r := range got {
			ids[i] = r.ID
		}
		return ids
	}

	t.Run("zero filter matches everything", func(t *testing.T) {
		assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8}, query(Filter{Now: now}))
	})

	t.Run("substring match is case-insensitive", func(t *testing.T) {
		assert.Equal(t, []int64{1, 2}, query(Filter{Contains: "alex", Now: now}))
	})

	t.Run("exact location match", func(t *testing.T) {
		assert.Equal(t, []int64{3}, query(Filter{Location: "Cairo", Now: now}))
		assert.Empty(t, query(Filter{Location: "alexandria", Now: now}))
	})

	t.Run("recent excludes stale and null usage", func(t *testing.T) {
		assert.Equal(t, []int64{1, 4}, query(Filter{Recent: true, Now: now}))
	})

	t.Run("predicates combine with AND", func(t *testing.T) {
		assert.Equal(t, []int64{1}, query(Filter{Contains: "alex", Recent: true, Now: now}))
	})

	t.Run("percent is matched literally", func(t *testing.T) {
		assert.Equal(t, []int64{5}, query(Filter{Contains: "50%", Now: now}))
	})

	t.Run("underscore is matched literally", func(t *testing.T) {
		assert.Equal(t, []int64{7}, query(Filter{Contains: "pier_", Now: now}))
	})
}
