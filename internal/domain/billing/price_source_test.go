package billing

import (
	"testing"

	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	assert.True(t, Catalog(dec("12.50")).EffectivePrice().Equal(dec("12.5")))
	assert.True(t, Override(dec("9")).EffectivePrice().Equal(dec("9")))
	assert.True(t, Forced(enum.ItemTagFree).EffectivePrice().IsZero())

	var zero PriceSource
	assert.Equal(t, SourceCatalog, zero.Kind())
	assert.True(t, zero.EffectivePrice().IsZero())
}

func TestPriceSourceReason(t *testing.T) {
	assert.Equal(t, enum.ItemTagSample, Forced(enum.ItemTagSample).Reason())
	assert.Equal(t, enum.ItemTagNone, Override(dec("1")).Reason())
	assert.Equal(t, "forced(Free)", Forced(enum.ItemTagFree).String())
	assert.Equal(t, "override(7)", Override(dec("7")).String())
}
