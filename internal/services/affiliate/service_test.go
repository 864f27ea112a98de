package affiliate

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealbase/backend/internal/models"
)

// memoryStore implements Store for tests. Every mutation takes the lock, so
// the conditional transition keeps the same exactly-one-winner guarantee the
// database's conditional UPDATE provides.
type memoryStore struct {
	mu          sync.Mutex
	txMu        sync.Mutex
	profiles    map[uuid.UUID]*models.AffiliateProfile
	referrals   map[uuid.UUID]*models.Referral
	commissions map[uuid.UUID]*models.Commission
	payouts     map[uuid.UUID]*models.Payout
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		profiles:    make(map[uuid.UUID]*models.AffiliateProfile),
		referrals:   make(map[uuid.UUID]*models.Referral),
		commissions: make(map[uuid.UUID]*models.Commission),
		payouts:     make(map[uuid.UUID]*models.Payout),
	}
}

func (m *memoryStore) CreateProfile(profile *models.AffiliateProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.UserID == profile.UserID || p.PromoCode == profile.PromoCode {
			return ErrProfileExists
		}
	}
	profile.ID = uuid.New()
	m.profiles[profile.ID] = profile
	return nil
}

func (m *memoryStore) ProfileByID(id uuid.UUID) (*models.AffiliateProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (m *memoryStore) ProfileByUser(userID uuid.UUID) (*models.AffiliateProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryStore) ProfileByCode(code string) (*models.AffiliateProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.PromoCode == code {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryStore) SetProfileApproval(id uuid.UUID, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return ErrNotFound
	}
	p.Approved = approved
	return nil
}

func (m *memoryStore) AddEarnings(id uuid.UUID, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return ErrNotFound
	}
	p.TotalEarnings += amount
	return nil
}

func (m *memoryStore) CreateReferral(referral *models.Referral) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.referrals {
		if r.ReferredUserID == referral.ReferredUserID {
			return ErrAlreadyTracked
		}
	}
	referral.ID = uuid.New()
	m.referrals[referral.ID] = referral
	return nil
}

func (m *memoryStore) ReferralByUser(userID uuid.UUID) (*models.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.referrals {
		if r.ReferredUserID == userID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryStore) ReferralsByAffiliate(affiliateID uuid.UUID) ([]models.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Referral
	for _, r := range m.referrals {
		if r.AffiliateID == affiliateID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memoryStore) MarkReferralConverted(id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.referrals[id]
	if !ok || r.Status != models.ReferralStatusTracked {
		return false, nil
	}
	r.Status = models.ReferralStatusConverted
	r.ConvertedAt = &at
	return true, nil
}

func (m *memoryStore) CreateCommission(commission *models.Commission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	commission.ID = uuid.New()
	m.commissions[commission.ID] = commission
	return nil
}

func (m *memoryStore) CommissionByReferral(referralID uuid.UUID) (*models.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.commissions {
		if c.ReferralID == referralID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryStore) CommissionsByAffiliate(affiliateID uuid.UUID) ([]models.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Commission
	for _, c := range m.commissions {
		if c.AffiliateID == affiliateID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memoryStore) ScheduleCommissions(affiliateID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var moved int64
	for _, c := range m.commissions {
		if c.AffiliateID == affiliateID && c.Status == models.CommissionStatusPending {
			c.Status = models.CommissionStatusScheduled
			moved++
		}
	}
	return moved, nil
}

func (m *memoryStore) CreatePayout(payout *models.Payout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payout.ID = uuid.New()
	m.payouts[payout.ID] = payout
	return nil
}

// Transact serializes transactions the way the database's row locks do:
// a losing conversion cannot read the commission before the winner wrote it.
func (m *memoryStore) Transact(fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *memoryStore) commissionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.commissions)
}

// enrollApproved sets up an approved affiliate and returns the service,
// store and profile.
func enrollApproved(t *testing.T) (*Service, *memoryStore, *models.AffiliateProfile) {
	t.Helper()
	store := newMemoryStore()
	service := NewService(store, nil)

	profile, err := service.Enroll(uuid.New(), "wholesaler")
	require.NoError(t, err)
	require.NotEmpty(t, profile.PromoCode)
	assert.Equal(t, DefaultCommissionRate, profile.CommissionRate)
	assert.False(t, profile.Approved)

	require.NoError(t, service.Approve(profile.ID, true))
	profile.Approved = true
	return service, store, profile
}

func TestEnrollTwiceFails(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, nil)

	userID := uuid.New()
	_, err := service.Enroll(userID, "agent")
	require.NoError(t, err)

	_, err = service.Enroll(userID, "agent")
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestTrackUnknownCode(t *testing.T) {
	service := NewService(newMemoryStore(), nil)

	_, err := service.Track("NOPE123", uuid.New())
	assert.ErrorIs(t, err, ErrUnknownCode)
}

func TestTrackUnapprovedCodeDoesNotResolve(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, nil)

	profile, err := service.Enroll(uuid.New(), "agent")
	require.NoError(t, err)

	_, err = service.Track(profile.PromoCode, uuid.New())
	assert.ErrorIs(t, err, ErrUnknownCode)
}

func TestTrackCreatesReferral(t *testing.T) {
	service, _, profile := enrollApproved(t)

	visitorID := uuid.New()
	referral, err := service.Track(profile.PromoCode, visitorID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, referral.AffiliateID)
	assert.Equal(t, visitorID, referral.ReferredUserID)
	assert.Equal(t, models.ReferralStatusTracked, referral.Status)
}

// First touch wins: a second code never overwrites the original attribution.
func TestTrackFirstTouchWins(t *testing.T) {
	service, store, first := enrollApproved(t)

	second, err := service.Enroll(uuid.New(), "lender")
	require.NoError(t, err)
	require.NoError(t, service.Approve(second.ID, true))

	visitorID := uuid.New()
	original, err := service.Track(first.PromoCode, visitorID)
	require.NoError(t, err)

	repeat, err := service.Track(second.PromoCode, visitorID)
	require.NoError(t, err)
	assert.Equal(t, original.ID, repeat.ID)
	assert.Equal(t, first.ID, repeat.AffiliateID)

	stored, err := store.ReferralByUser(visitorID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.AffiliateID)
}

func TestTrackSameCodeIsIdempotent(t *testing.T) {
	service, _, profile := enrollApproved(t)

	visitorID := uuid.New()
	first, err := service.Track(profile.PromoCode, visitorID)
	require.NoError(t, err)

	again, err := service.Track(profile.PromoCode, visitorID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestConvertWithoutReferral(t *testing.T) {
	service, store, _ := enrollApproved(t)

	commission, err := service.Convert(uuid.New(), "sub_99", 79.00)
	require.NoError(t, err)
	assert.Nil(t, commission)
	assert.Zero(t, store.commissionCount())
}

func TestConvertCreatesCommission(t *testing.T) {
	service, store, profile := enrollApproved(t)

	visitorID := uuid.New()
	_, err := service.Track(profile.PromoCode, visitorID)
	require.NoError(t, err)

	commission, err := service.Convert(visitorID, "sub_1", 79.00)
	require.NoError(t, err)
	require.NotNil(t, commission)
	assert.Equal(t, 19.75, commission.Amount)
	assert.Equal(t, models.CommissionStatusPending, commission.Status)
	assert.Equal(t, "sub_1", commission.SubscriptionID)

	referral, err := store.ReferralByUser(visitorID)
	require.NoError(t, err)
	assert.Equal(t, models.ReferralStatusConverted, referral.Status)
	require.NotNil(t, referral.ConvertedAt)

	updated, err := store.ProfileByID(profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 19.75, updated.TotalEarnings)
}

// A duplicate webhook delivery returns the existing commission and leaves
// earnings untouched.
func TestConvertIsIdempotent(t *testing.T) {
	service, store, profile := enrollApproved(t)

	visitorID := uuid.New()
	_, err := service.Track(profile.PromoCode, visitorID)
	require.NoError(t, err)

	first, err := service.Convert(visitorID, "sub_1", 79.00)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := service.Convert(visitorID, "sub_1", 79.00)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 19.75, second.Amount)

	assert.Equal(t, 1, store.commissionCount())
	updated, err := store.ProfileByID(profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 19.75, updated.TotalEarnings)
}

func TestConvertConcurrentDeliveries(t *testing.T) {
	service, store, profile := enrollApproved(t)

	visitorID := uuid.New()
	_, err := service.Track(profile.PromoCode, visitorID)
	require.NoError(t, err)

	const deliveries = 8
	var wg sync.WaitGroup
	errs := make([]error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Convert(visitorID, "sub_1", 100.00)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.commissionCount())

	updated, err := store.ProfileByID(profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.00, updated.TotalEarnings)
}

func TestRequestPayout(t *testing.T) {
	service, store, profile := enrollApproved(t)

	visitorID := uuid.New()
	_, err := service.Track(profile.PromoCode, visitorID)
	require.NoError(t, err)
	_, err = service.Convert(visitorID, "sub_1", 200.00)
	require.NoError(t, err)

	result, err := service.RequestPayout(profile.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.CommissionCount)
	assert.Equal(t, 50.00, result.Payout.Amount)
	assert.NotEmpty(t, result.Payout.Reference)

	commissions, err := store.CommissionsByAffiliate(profile.ID)
	require.NoError(t, err)
	require.Len(t, commissions, 1)
	assert.Equal(t, models.CommissionStatusScheduled, commissions[0].Status)

	// Nothing left to schedule on a second request.
	_, err = service.RequestPayout(profile.ID)
	assert.ErrorIs(t, err, ErrNothingToPay)
}

func TestRequestPayoutUnknownProfile(t *testing.T) {
	service := NewService(newMemoryStore(), nil)

	_, err := service.RequestPayout(uuid.New())
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
