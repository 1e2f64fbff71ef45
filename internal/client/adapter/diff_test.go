package adapter

import (
	"math"
	"testing"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rv(id, name string, lat, lng *float64) models.Review {
	return models.Review{ID: id, Name: name, Category: models.CategorySnack, Note: 3, Lat: lat, Lng: lng}
}

func TestDiff(t *testing.T) {
	one, two := ptr(1.0), ptr(2.0)
	prev := []models.Review{
		rv("keep", "Same", one, two),
		rv("gone", "Bye", one, two),
		rv("edit", "Before", one, two),
		rv("move", "Move", one, two),
	}
	next := []models.Review{
		rv("keep", "Same", ptr(1.0), ptr(2.0)),
		rv("edit", "After", one, two),
		rv("move", "Move", ptr(5.0), two),
		rv("new", "Fresh", one, two),
	}

	ops := Diff(prev, next)
	require.Len(t, ops, 3)

	assert.Equal(t, models.OpDelete, ops[0].Kind)
	assert.Equal(t, "gone", ops[0].ReviewID)

	assert.Equal(t, models.OpUpdate, ops[1].Kind)
	assert.Equal(t, "edit", ops[1].ReviewID)
	p, err := ops[1].Patch()
	require.NoError(t, err)
	assert.Equal(t, "After", *p.Name)
	assert.Equal(t, models.CategorySnack, *p.Category)
	assert.Equal(t, 1.0, *p.Lat)

	assert.Equal(t, "move", ops[2].ReviewID)
}

func TestDiff_NoCreates(t *testing.T) {
	ops := Diff(nil, []models.Review{rv("a", "A", nil, nil)})
	assert.Empty(t, ops)
}

func TestDiff_CoordinatesOnlyWhenBothFinite(t *testing.T) {
	prev := []models.Review{rv("a", "A", ptr(1.0), nil)}
	next := []models.Review{rv("a", "B", ptr(1.0), nil)}

	ops := Diff(prev, next)
	require.Len(t, ops, 1)
	p, err := ops[0].Patch()
	require.NoError(t, err)
	assert.Nil(t, p.Lat)
	assert.Nil(t, p.Lng)

	patch := patchOf(rv("a", "A", ptr(math.Inf(1)), ptr(1.0)))
	assert.Nil(t, patch.Lat)
}

func TestSameCoord(t *testing.T) {
	assert.True(t, sameCoord(nil, nil))
	assert.False(t, sameCoord(nil, ptr(0.0)))
	assert.True(t, sameCoord(ptr(1.5), ptr(1.5)))
}
