package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	for _, tag := range []string{"crime", "shopping", "restaurant", "local_event", "other"} {
		c, err := ParseCategory(tag)
		require.NoError(t, err)
		require.Equal(t, Category(tag), c)
	}

	c, err := ParseCategory("")
	require.NoError(t, err)
	require.Equal(t, Category(""), c)

	_, err = ParseCategory("concert")
	require.ErrorIs(t, err, ErrInvalidCategory)
}

func TestCategoryPresentationIsTotal(t *testing.T) {
	list := Categories()
	require.Len(t, list, 5)
	for _, p := range list {
		require.NotEmpty(t, p.Label)
		require.NotEmpty(t, p.Icon)
		require.Equal(t, p, p.Category.Presentation())
	}
	require.Equal(t, CategoryOther, Category("").Presentation().Category)
	require.Equal(t, "star.png", Category("").Presentation().Icon)
}
