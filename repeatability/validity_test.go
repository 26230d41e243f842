package repeatability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-ipd/geometry"
)

func translation(t testing.TB, tx, ty float64) geometry.Homography {
	t.Helper()
	h, err := geometry.NewHomography([]float64{1, 0, tx, 0, 1, ty, 0, 0, 1})
	require.NoError(t, err)
	return h
}

func TestFilterVisible(t *testing.T) {
	set := NewRegionSet([]geometry.Region{
		circle(t, 50, 50),  // inside
		circle(t, 0, 50),   // on the left edge
		circle(t, 150, 50), // outside
		circle(t, 99, 1),   // inside near a corner
		circle(t, 100, 100),
	})

	got, err := FilterVisible(set, 100, 100, geometry.Identity())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, got.Origin, "boundary points are excluded")
	assert.Equal(t, set.Regions[3], got.Regions[1])
}

func TestFilterVisibleTranslated(t *testing.T) {
	set := NewRegionSet([]geometry.Region{
		circle(t, 20, 50),
		circle(t, 60, 50),
		circle(t, 149, 99),
	})

	// Image A covers [50, 150] x [0, 100] once moved into image B.
	got, err := FilterVisible(set, 100, 100, translation(t, 50, 0))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got.Origin)
}

func TestFilterVisibleComposesOrigin(t *testing.T) {
	set := NewRegionSet([]geometry.Region{
		circle(t, 10, 10),
		circle(t, 500, 500),
		circle(t, 60, 60),
		circle(t, 90, 90),
	})

	once, err := FilterVisible(set, 200, 200, geometry.Identity())
	require.NoError(t, err)
	require.Equal(t, []int{0, 2, 3}, once.Origin)

	twice, err := FilterVisible(once, 80, 80, geometry.Identity())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, twice.Origin, "indices refer to the original set")
	assert.Equal(t, 2, twice.OriginalIndex(1))
}

func TestFilterVisibleEmpty(t *testing.T) {
	got, err := FilterVisible(NewRegionSet(nil), 100, 100, geometry.Identity())
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}

func TestFilterVisibleBoundsAtInfinity(t *testing.T) {
	// The last row vanishes at the image corner (128, 128).
	h, err := geometry.NewHomography([]float64{1, 0, 0, 0, 1, 0, -0.0078125, -0.0078125, 2})
	require.NoError(t, err)

	_, err = FilterVisible(NewRegionSet([]geometry.Region{circle(t, 1, 1)}), 128, 128, h)
	assert.ErrorIs(t, err, geometry.ErrDegenerate)
}

func TestFilterVisibleBoundsAcrossInfinity(t *testing.T) {
	// The bounds straddle x = 100, where the last row of h vanishes.
	h, err := geometry.NewHomography([]float64{1, 0, 0, 0, 1, 0, -0.01, 0, 1})
	require.NoError(t, err)

	_, err = FilterVisible(NewRegionSet([]geometry.Region{circle(t, 10, 10)}), 200, 100, h)
	assert.ErrorIs(t, err, geometry.ErrDegenerate, "a folded bounds polygon is not silently used")
}
