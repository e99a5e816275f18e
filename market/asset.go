package market

import (
	"fmt"

	"github.com/holiman/uint256"
)

// AssetKind enumerates the runtime's asset variants.
type AssetKind uint8

const (
	AssetZtg AssetKind = iota
	AssetCategoricalOutcome
	AssetScalarOutcome
	AssetCombinatorialOutcome
	AssetPoolShare
	AssetForeign
)

var assetKindNames = map[AssetKind]string{
	AssetZtg:                  "ztg",
	AssetCategoricalOutcome:   "categorical_outcome",
	AssetScalarOutcome:        "scalar_outcome",
	AssetCombinatorialOutcome: "combinatorial_outcome",
	AssetPoolShare:            "pool_share",
	AssetForeign:              "foreign_asset",
}

// String returns the wire name of the kind.
func (k AssetKind) String() string {
	if name, ok := assetKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("asset_kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k AssetKind) MarshalText() ([]byte, error) {
	name, ok := assetKindNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: kind %d", ErrInvalidAsset, uint8(k))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *AssetKind) UnmarshalText(text []byte) error {
	for kind, name := range assetKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("%w: kind %q", ErrInvalidAsset, text)
}

// Asset identifies a currency or outcome token on the runtime.
// MarketID and Index are set only for categorical outcomes; ForeignID only
// for foreign assets.
type Asset struct {
	Kind      AssetKind    `json:"kind"`
	MarketID  *uint256.Int `json:"market_id,omitempty"`
	Index     uint16       `json:"index,omitempty"`
	ForeignID uint32       `json:"foreign_id,omitempty"`
}

// Ztg is the native settlement currency.
func Ztg() Asset { return Asset{Kind: AssetZtg} }

// CategoricalOutcome is outcome index of a categorical market.
func CategoricalOutcome(marketID *uint256.Int, index uint16) Asset {
	return Asset{Kind: AssetCategoricalOutcome, MarketID: marketID, Index: index}
}

// ForeignAsset is a bridged asset registered under id.
func ForeignAsset(id uint32) Asset { return Asset{Kind: AssetForeign, ForeignID: id} }

// Validate checks the fields required by the kind.
func (a Asset) Validate() error {
	switch a.Kind {
	case AssetCategoricalOutcome:
		if a.MarketID == nil {
			return fmt.Errorf("%w: categorical outcome without market id", ErrInvalidAsset)
		}
	case AssetZtg, AssetScalarOutcome, AssetCombinatorialOutcome, AssetPoolShare, AssetForeign:
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidAsset, uint8(a.Kind))
	}
	return nil
}

// Equal reports whether a and b identify the same asset.
func (a Asset) Equal(b Asset) bool {
	if a.Kind != b.Kind || a.Index != b.Index || a.ForeignID != b.ForeignID {
		return false
	}
	if a.MarketID == nil || b.MarketID == nil {
		return a.MarketID == nil && b.MarketID == nil
	}
	return a.MarketID.Eq(b.MarketID)
}
