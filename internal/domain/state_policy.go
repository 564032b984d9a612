package domain

import "time"

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// DefaultLockCooldown is how long a Delivered item stays mutable.
const DefaultLockCooldown = 30 * 24 * time.Hour

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StatePolicy decides which state transitions are allowed for a stock item.
//
// Lock-bearing states carry a cooldown. Once more than the cooldown has elapsed
// since the item entered such a state, the item is frozen and every transition
// is refused. States not in the table transition freely. Elapsed time is
// measured in whole UTC days.
type StatePolicy struct {
	cooldowns map[StockState]time.Duration
}

// NewStatePolicy builds a policy from a table of lock-bearing states.
func NewStatePolicy(locks map[StockState]time.Duration) *StatePolicy {
	cooldowns := make(map[StockState]time.Duration, len(locks))
	for state, cooldown := range locks {
		cooldowns[state] = cooldown
	}
	return &StatePolicy{cooldowns: cooldowns}
}

// DefaultStatePolicy locks Delivered items after DefaultLockCooldown.
func DefaultStatePolicy() *StatePolicy {
	return NewStatePolicy(map[StockState]time.Duration{
		StockStateDelivered: DefaultLockCooldown,
	})
}

// Cooldown returns the cooldown of a lock-bearing state.
func (p *StatePolicy) Cooldown(state StockState) (time.Duration, bool) {
	cooldown, ok := p.cooldowns[state]
	return cooldown, ok
}

// CanTransition reports whether item may move to target on the day of now.
func (p *StatePolicy) CanTransition(item *StockItem, target StockState, now time.Time) bool {
	return p.check(item, now) == nil
}

// ApplyTransition moves item to target and stamps the transition date. The
// item is left untouched when the policy refuses. A transition to the current
// state is a no-op.
func (p *StatePolicy) ApplyTransition(item *StockItem, target StockState, now time.Time) error {
	target, err := ParseStockState(string(target))
	if err != nil {
		return err
	}
	if err := p.check(item, now); err != nil {
		return err
	}
	if item.State == target {
		return nil
	}
	item.State = target
	item.StateLastChanged = DateOf(now)
	return nil
}

func (p *StatePolicy) check(item *StockItem, now time.Time) error {
	cooldown, ok := p.cooldowns[item.State]
	if !ok {
		return nil
	}
	elapsed := DateOf(now).Sub(DateOf(item.StateLastChanged))
	if elapsed > cooldown {
		return &StateLockedError{
			ItemID:   item.ID,
			State:    item.State,
			Since:    DateOf(item.StateLastChanged),
			Cooldown: cooldown,
		}
	}
	return nil
}
