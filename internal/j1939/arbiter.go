package j1939

import (
	"sync"
	"time"
)

// AddressClaimPriority is the fixed arbitration priority of Address-Claimed
// messages.
const AddressClaimPriority uint8 = 6

// AddressClaimResult is the outcome of one arbitration round. When a
// conflict was resolved it carries the alternative address the device should
// re-claim with; the caller re-arbitrates if that address also conflicts.
type AddressClaimResult struct {
	ClaimedAddress   *uint8
	ConflictResolved bool
	DeviceName       DeviceName
}

// Arbiter claims and resolves network source addresses for one device.
// The currently claimed address is guarded for the single arbitration loop
// that owns mutation; readers take a snapshot via ClaimedAddress.
type Arbiter struct {
	mu      sync.Mutex
	name    DeviceName
	claimed *uint8
}

// NewArbiter creates an arbiter for the device with the given NAME.
func NewArbiter(name DeviceName) *Arbiter {
	return &Arbiter{name: name}
}

// ClaimAddress builds the Address-Claimed message announcing the preferred
// address and records it as the current claim. The message carries the
// packed 8-byte NAME as payload and is always broadcast.
func (a *Arbiter) ClaimAddress(preferred uint8) Message {
	if preferred > AddressMax {
		preferred = AddressMax
	}

	a.mu.Lock()
	addr := preferred
	a.claimed = &addr
	a.mu.Unlock()

	payload, _ := a.name.MarshalBinary()
	return Message{
		PGN:         PGNAddressClaimed,
		Priority:    AddressClaimPriority,
		Source:      preferred,
		Destination: AddressBroadcast,
		Data:        payload,
		Timestamp:   time.Now(),
	}
}

// ResolveConflict handles a competing claim for the current preferred
// address. It deterministically proposes the next unused address: preferred+1,
// or preferred-1 when preferred already sits at the upper bound. Proposals
// saturate at the address range ends rather than wrapping. No retries are
// modeled here; the caller re-arbitrates if the proposal also conflicts.
func (a *Arbiter) ResolveConflict(preferred uint8, competitor DeviceName) AddressClaimResult {
	proposed := preferred
	if preferred >= AddressMax {
		if proposed > 0 {
			proposed--
		}
	} else {
		proposed++
	}

	a.mu.Lock()
	addr := proposed
	a.claimed = &addr
	a.mu.Unlock()

	return AddressClaimResult{
		ClaimedAddress:   &addr,
		ConflictResolved: true,
		DeviceName:       a.name,
	}
}

// ClaimedAddress returns a snapshot of the currently claimed address, or nil
// if no claim has been made.
func (a *Arbiter) ClaimedAddress() *uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.claimed == nil {
		return nil
	}
	addr := *a.claimed
	return &addr
}

// Name returns the device NAME this arbiter claims with.
func (a *Arbiter) Name() DeviceName {
	return a.name
}
