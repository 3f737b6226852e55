// Package billing holds the in-memory side of the bill lifecycle: the cart an
// operator composes, the working set built from an order, and the rules that
// resolve totals and payment status before anything is written.
package billing

import (
	"fmt"

	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// PriceSourceKind discriminates PriceSource.
type PriceSourceKind int

const (
	// SourceCatalog is the price copied when the line was added.
	SourceCatalog PriceSourceKind = iota
	// SourceOverride is a price typed by the operator.
	SourceOverride
	// SourceForced is a zero price imposed by a Free or Sample tag.
	SourceForced
)

func (k PriceSourceKind) String() string {
	switch k {
	case SourceCatalog:
		return "catalog"
	case SourceOverride:
		return "override"
	case SourceForced:
		return "forced"
	}
	return fmt.Sprintf("PriceSourceKind(%d)", int(k))
}

// PriceSource says where a line's unit price comes from. Exactly one of the
// three variants is active; the zero value is Catalog(0).
type PriceSource struct {
	kind   PriceSourceKind
	value  decimal.Decimal
	reason enum.ItemTag
}

// Catalog is the add-time price.
func Catalog(value decimal.Decimal) PriceSource {
	return PriceSource{kind: SourceCatalog, value: value}
}

// Override is an operator-entered price.
func Override(value decimal.Decimal) PriceSource {
	return PriceSource{kind: SourceOverride, value: value}
}

// Forced zeroes the price for a Free or Sample line.
func Forced(reason enum.ItemTag) PriceSource {
	return PriceSource{kind: SourceForced, reason: reason}
}

func (p PriceSource) Kind() PriceSourceKind {
	return p.kind
}

// Reason is the tag behind a Forced source, None otherwise.
func (p PriceSource) Reason() enum.ItemTag {
	if p.kind != SourceForced {
		return enum.ItemTagNone
	}
	return p.reason
}

// EffectivePrice is the unit price the variant yields.
func (p PriceSource) EffectivePrice() decimal.Decimal {
	if p.kind == SourceForced {
		return decimal.Zero
	}
	return p.value
}

func (p PriceSource) String() string {
	switch p.kind {
	case SourceForced:
		return "forced(" + p.reason.String() + ")"
	default:
		return p.kind.String() + "(" + p.value.String() + ")"
	}
}
