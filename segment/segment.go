/*
Package segment classifies the client population into marketing cohorts.

PURPOSE:
  Campaigns target a named segment rather than hand-picked clients. A
  segment is always a point-in-time view computed from the ledger and
  client registry; nothing here is persisted.

SEGMENTS (closed set):
  ALL      every opted-in client
  VIP      balance in [VIP_MIN, inf)
  GOLD     balance in [GOLD_MIN, VIP_MIN)
  SILVER   balance in [SILVER_MIN, GOLD_MIN)
  INACTIVE latest ledger entry older than the cutoff, or no entries at all

TIE-BREAK:
  Ranges are half-open with inclusive lower bounds, so a client exactly
  at a threshold belongs to the HIGHER tier: balance == GOLD_MIN is GOLD,
  never SILVER.

SEE ALSO:
  - resolver.go: Per-segment audience computation
  - config: Supplies the thresholds
*/
package segment

import (
	"errors"
	"fmt"
	"strings"
)

// Segment names a cohort of clients computed on demand.
type Segment string

const (
	SegmentAll      Segment = "ALL"
	SegmentVIP      Segment = "VIP"
	SegmentGold     Segment = "GOLD"
	SegmentSilver   Segment = "SILVER"
	SegmentInactive Segment = "INACTIVE"
)

// ErrUnknownSegment is returned for any key outside the closed set.
// It is raised before any store access.
var ErrUnknownSegment = errors.New("unknown segment")

// Parse normalizes and validates a segment key.
func Parse(s string) (Segment, error) {
	switch Segment(strings.ToUpper(strings.TrimSpace(s))) {
	case SegmentAll:
		return SegmentAll, nil
	case SegmentVIP:
		return SegmentVIP, nil
	case SegmentGold:
		return SegmentGold, nil
	case SegmentSilver:
		return SegmentSilver, nil
	case SegmentInactive:
		return SegmentInactive, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSegment, s)
	}
}

// =============================================================================
// TIER THRESHOLDS
// =============================================================================

// Tiers holds the configured point thresholds. They are configuration,
// not constants: marketing retunes them without a code change.
type Tiers struct {
	SilverMin int
	GoldMin   int
	VIPMin    int
}

// Validate enforces SILVER_MIN <= GOLD_MIN <= VIP_MIN. A violation would
// make the half-open ranges overlap or invert.
func (t Tiers) Validate() error {
	if t.SilverMin > t.GoldMin || t.GoldMin > t.VIPMin {
		return fmt.Errorf("tier thresholds must satisfy SILVER_MIN <= GOLD_MIN <= VIP_MIN, got %d/%d/%d",
			t.SilverMin, t.GoldMin, t.VIPMin)
	}
	return nil
}

// Classify maps a balance to its tier, or "" when below SILVER_MIN.
// Inclusive lower bound, exclusive upper bound.
func (t Tiers) Classify(balance int) Segment {
	switch {
	case balance >= t.VIPMin:
		return SegmentVIP
	case balance >= t.GoldMin:
		return SegmentGold
	case balance >= t.SilverMin:
		return SegmentSilver
	default:
		return ""
	}
}
