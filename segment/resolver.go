/*
resolver.go - Audience resolution per segment

PURPOSE:
  Resolves a segment name to the list of clients it currently contains.
  Each variant is implemented as its own method so the threshold and
  tie-break rules stay auditable per variant instead of hiding inside a
  single parameterized branch.

OPT-IN:
  Every variant is restricted to clients who have not opted out of the
  email channel. Opt-out is honored here, at resolution time, so no
  caller can accidentally message an opted-out client.

SEE ALSO:
  - segment.go: Segment set and tier thresholds
  - loyalty/balance.go: The fold used for tier classification
*/
package segment

import (
	"context"
	"fmt"
	"time"

	"github.com/minimart/backoffice/loyalty"
)

// Member is one audience entry: just enough to address a campaign message.
type Member struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Resolver classifies the client population. All state it reads is
// external; a Resolver itself is stateless and safe for concurrent use.
type Resolver struct {
	Clients    loyalty.ClientStore
	Entries    loyalty.EntryStore
	Calculator *loyalty.Calculator

	Tiers        Tiers
	InactiveDays int

	now func() time.Time
}

func NewResolver(clients loyalty.ClientStore, entries loyalty.EntryStore, tiers Tiers, inactiveDays int) *Resolver {
	return &Resolver{
		Clients:      clients,
		Entries:      entries,
		Calculator:   loyalty.NewCalculator(entries),
		Tiers:        tiers,
		InactiveDays: inactiveDays,
		now:          time.Now,
	}
}

// Resolve returns the audience for a segment. An unknown key fails fast
// with ErrUnknownSegment before any store access.
func (r *Resolver) Resolve(ctx context.Context, seg Segment) ([]Member, error) {
	switch seg {
	case SegmentAll:
		return r.resolveAll(ctx)
	case SegmentVIP:
		return r.resolveTier(ctx, r.Tiers.VIPMin, -1)
	case SegmentGold:
		return r.resolveTier(ctx, r.Tiers.GoldMin, r.Tiers.VIPMin)
	case SegmentSilver:
		return r.resolveTier(ctx, r.Tiers.SilverMin, r.Tiers.GoldMin)
	case SegmentInactive:
		return r.resolveInactive(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSegment, seg)
	}
}

// resolveAll: every opted-in client.
func (r *Resolver) resolveAll(ctx context.Context) ([]Member, error) {
	clients, err := r.optedIn(ctx)
	if err != nil {
		return nil, err
	}
	members := make([]Member, 0, len(clients))
	for _, c := range clients {
		members = append(members, toMember(c))
	}
	return members, nil
}

// resolveTier: clients whose derived balance falls in [min, max).
// max < 0 means unbounded (the VIP tier).
func (r *Resolver) resolveTier(ctx context.Context, min, max int) ([]Member, error) {
	clients, err := r.optedIn(ctx)
	if err != nil {
		return nil, err
	}
	var members []Member
	for _, c := range clients {
		balance, err := r.Calculator.Balance(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("segment: balance for client %s: %w", c.ID, err)
		}
		if balance < min {
			continue
		}
		if max >= 0 && balance >= max {
			continue
		}
		members = append(members, toMember(c))
	}
	return members, nil
}

// resolveInactive: clients whose most recent entry predates the cutoff,
// plus clients with no entries at all (never active = inactive).
func (r *Resolver) resolveInactive(ctx context.Context) ([]Member, error) {
	clients, err := r.optedIn(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := r.now().UTC().AddDate(0, 0, -r.InactiveDays)

	var members []Member
	for _, c := range clients {
		last, ok, err := r.Entries.LastEntryAt(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("segment: last activity for client %s: %w", c.ID, err)
		}
		if !ok || last.Before(cutoff) {
			members = append(members, toMember(c))
		}
	}
	return members, nil
}

func (r *Resolver) optedIn(ctx context.Context) ([]loyalty.Client, error) {
	clients, err := r.Clients.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("segment: list clients: %w", err)
	}
	kept := clients[:0]
	for _, c := range clients {
		if c.EmailOptIn {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

func toMember(c loyalty.Client) Member {
	return Member{ClientID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
}
