package vrs

import (
	"fmt"
)

// Tier is the level of variable rate shading support of a device.
type Tier int

const (
	// TierNotSupported means no shading rate control at all.
	TierNotSupported Tier = iota

	// Tier1 supports a single per-draw shading rate.
	Tier1

	// Tier2 adds per-tile shading rate images and combiners.
	Tier2
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierNotSupported:
		return "NotSupported"
	case Tier1:
		return "Tier1"
	case Tier2:
		return "Tier2"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// DefaultTileSize is used when a tier-2 device reports no usable tile size.
const DefaultTileSize = 16

// Capability describes what the execution environment supports.
// It is produced once by Probe and is read-only afterwards.
type Capability struct {
	Tier Tier

	// TileSize is the edge length in pixels of one rate image cell.
	// Only meaningful for Tier2; zero otherwise.
	TileSize int

	// ExtendedRates reports support for 2x4, 4x2 and 4x4.
	ExtendedRates bool
}

// Unsupported is the capability of a device without shading rate control.
var Unsupported = Capability{Tier: TierNotSupported}

// Supports reports whether the capability reaches at least the given tier.
func (c Capability) Supports(t Tier) bool {
	return c.Tier >= t
}

// IsRateSupported reports whether r may be produced or consumed.
func (c Capability) IsRateSupported(r ShadingRate) bool {
	if c.Tier == TierNotSupported || !r.Valid() {
		return false
	}
	return c.ExtendedRates || !r.IsAdditional()
}

// LegalRates returns the rates allowed by the capability, finest first.
// A device without support only allows 1x1.
func (c Capability) LegalRates() []ShadingRate {
	if c.Tier == TierNotSupported {
		return []ShadingRate{Rate1x1}
	}
	if c.ExtendedRates {
		return Rates[:]
	}
	return BaseRates
}

// maxExponent is the largest per-axis log2 factor allowed.
func (c Capability) maxExponent() int {
	switch {
	case c.Tier == TierNotSupported:
		return 0
	case c.ExtendedRates:
		return 2
	default:
		return 1
	}
}

// Clamp returns the closest legal rate that is not coarser than r along
// either axis. Invalid values become 1x1.
func (c Capability) Clamp(r ShadingRate) ShadingRate {
	if !r.Valid() {
		return Rate1x1
	}
	if c.IsRateSupported(r) {
		return r
	}
	ex, ey := r.Exponents()
	return legalize(ex, ey, c.maxExponent())
}

// legalize clamps per-axis exponents to maxExp and folds 4x1/1x4 shapes,
// which no device supports, to 2x1/1x2.
func legalize(ex, ey, maxExp int) ShadingRate {
	ex = min(ex, maxExp)
	ey = min(ey, maxExp)
	if ex-ey > 1 {
		ex = ey + 1
	}
	if ey-ex > 1 {
		ey = ex + 1
	}
	return rateFromExponents(ex, ey)
}

// FeatureSupport is the raw answer of a device feature query.
type FeatureSupport struct {
	Tier          Tier
	TileSize      int
	ExtendedRates bool

	// SumCombiner reports whether the device implements the Sum combiner.
	SumCombiner bool
}

// FeatureQuerier asks the execution environment for shading rate support.
type FeatureQuerier interface {
	QueryShadingRateSupport() (FeatureSupport, error)
}

// StaticQuerier answers every query with a fixed result.
// It is used for configuration-driven setups and tests.
type StaticQuerier struct {
	Support FeatureSupport
	Err     error
}

// QueryShadingRateSupport returns the configured support or error.
func (q StaticQuerier) QueryShadingRateSupport() (FeatureSupport, error) {
	return q.Support, q.Err
}

// Probe queries the environment once and returns its capability.
//
// A failing or panicking query degrades to Unsupported; Probe never fails.
func Probe(q FeatureQuerier) (c Capability) {
	log := Logger()
	if q == nil {
		log.Warn("vrs: no feature querier, shading rates not supported")
		return Unsupported
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn("vrs: feature query panicked, shading rates not supported", "panic", r)
			c = Unsupported
		}
	}()

	fs, err := q.QueryShadingRateSupport()
	if err != nil {
		log.Warn("vrs: feature query failed, shading rates not supported", "err", err)
		return Unsupported
	}

	switch {
	case fs.Tier <= TierNotSupported:
		log.Info("vrs: shading rates not supported on this device")
		return Unsupported
	case fs.Tier == Tier1:
		c = Capability{Tier: Tier1, ExtendedRates: fs.ExtendedRates}
	default:
		c = Capability{Tier: Tier2, TileSize: fs.TileSize, ExtendedRates: fs.ExtendedRates}
		if c.TileSize <= 0 {
			log.Warn("vrs: tier 2 device reported no tile size", "using", DefaultTileSize)
			c.TileSize = DefaultTileSize
		}
	}

	log.Info("vrs: capability probed",
		"tier", c.Tier.String(),
		"tile_size", c.TileSize,
		"extended_rates", c.ExtendedRates,
		"sum_combiner", fs.SumCombiner)
	return c
}
