// Package registry owns the vault set: one vault per risk tier, the shared
// insurance pool and the per-user positions.
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/stellarvault/internal/domain"
)

var (
	// ErrVaultNotFound is returned when no vault is configured for a tier.
	ErrVaultNotFound = errors.New("vault not found")
	// ErrPositionNotFound is returned when a user holds nothing in a tier.
	ErrPositionNotFound = errors.New("position not found")
)

// TierConfig describes one vault tier at construction time.
type TierConfig struct {
	RiskLevel       domain.RiskLevel
	InsuranceFeeBps uint16
	Strategies      []domain.Strategy
}

// lockedVault pairs a vault with its exclusive lock. Deposits into the same
// tier are serialized; different tiers proceed in parallel.
type lockedVault struct {
	mu    sync.Mutex
	vault *domain.Vault
}

// VaultRegistry is the single explicitly-constructed owner of all mutable
// vault state for a run. Pass it by reference; there is no package singleton.
type VaultRegistry struct {
	vaults map[domain.RiskLevel]*lockedVault

	posMu     sync.RWMutex
	positions map[domain.PositionKey]*domain.UserPosition

	// insurancePool only ever grows; there is no claims mechanism here.
	insurancePool atomic.Uint64
}

// New builds a registry from tier configs. Any invalid tier configuration is
// fatal: the error wraps domain.ErrInvalidConfiguration.
func New(tiers []TierConfig) (*VaultRegistry, error) {
	if len(tiers) == 0 {
		return nil, errors.Wrap(domain.ErrInvalidConfiguration, "no tiers configured")
	}

	vaults := make(map[domain.RiskLevel]*lockedVault, len(tiers))
	for _, tier := range tiers {
		if _, ok := vaults[tier.RiskLevel]; ok {
			return nil, errors.Wrapf(domain.ErrInvalidConfiguration, "duplicate tier %s", tier.RiskLevel)
		}
		vault, err := domain.NewVault(tier.RiskLevel, tier.InsuranceFeeBps, tier.Strategies)
		if err != nil {
			return nil, err
		}
		vaults[tier.RiskLevel] = &lockedVault{vault: vault}
	}

	return &VaultRegistry{
		vaults:    vaults,
		positions: make(map[domain.PositionKey]*domain.UserPosition),
	}, nil
}

// Has reports whether a vault is configured for the tier.
func (r *VaultRegistry) Has(risk domain.RiskLevel) bool {
	_, ok := r.vaults[risk]
	return ok
}

// Update runs fn with exclusive access to the tier's vault. The whole
// read-price-then-mutate sequence of a deposit must happen inside one call.
func (r *VaultRegistry) Update(risk domain.RiskLevel, fn func(v *domain.Vault) error) error {
	lv, ok := r.vaults[risk]
	if !ok {
		return errors.Wrapf(ErrVaultNotFound, "risk level %s", risk)
	}

	lv.mu.Lock()
	defer lv.mu.Unlock()
	return fn(lv.vault)
}

// Snapshot returns a copy of the tier's vault state.
func (r *VaultRegistry) Snapshot(risk domain.RiskLevel) (domain.VaultSnapshot, error) {
	lv, ok := r.vaults[risk]
	if !ok {
		return domain.VaultSnapshot{}, errors.Wrapf(ErrVaultNotFound, "risk level %s", risk)
	}

	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.vault.Snapshot(), nil
}

// Snapshots returns copies of all configured vaults in tier display order.
func (r *VaultRegistry) Snapshots() []domain.VaultSnapshot {
	snapshots := make([]domain.VaultSnapshot, 0, len(r.vaults))
	for _, risk := range domain.RiskLevels() {
		lv, ok := r.vaults[risk]
		if !ok {
			continue
		}
		lv.mu.Lock()
		snapshots = append(snapshots, lv.vault.Snapshot())
		lv.mu.Unlock()
	}
	return snapshots
}

// AddShares credits minted shares to the user's position in the tier,
// creating the position lazily on first deposit. Returns the new balance.
func (r *VaultRegistry) AddShares(user string, risk domain.RiskLevel, shares uint64) uint64 {
	key := domain.PositionKey{User: user, RiskLevel: risk}

	r.posMu.Lock()
	defer r.posMu.Unlock()

	pos, ok := r.positions[key]
	if !ok {
		pos = &domain.UserPosition{}
		r.positions[key] = pos
	}
	pos.Shares += shares
	return pos.Shares
}

// Position returns a copy of the user's position in the tier.
func (r *VaultRegistry) Position(user string, risk domain.RiskLevel) (domain.UserPosition, error) {
	key := domain.PositionKey{User: user, RiskLevel: risk}

	r.posMu.RLock()
	defer r.posMu.RUnlock()

	pos, ok := r.positions[key]
	if !ok {
		return domain.UserPosition{}, errors.Wrapf(ErrPositionNotFound, "%s", key)
	}
	return *pos, nil
}

// AddToInsurancePool grows the shared insurance pool and returns the new total.
func (r *VaultRegistry) AddToInsurancePool(amount uint64) uint64 {
	return r.insurancePool.Add(amount)
}

// InsurancePool returns the current insurance pool balance in stroops.
func (r *VaultRegistry) InsurancePool() uint64 {
	return r.insurancePool.Load()
}
