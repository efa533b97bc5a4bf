package scheduler

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nova-ai-bot/internal/billing"
	"nova-ai-bot/internal/catalog"
	"nova-ai-bot/pkg/logger"
	"nova-ai-bot/types"
)

type fakeStore struct {
	users  map[int64]*types.User
	subs   map[string]*types.Subscription
	pkgs   map[string]*types.Package
	subErr map[string]error

	blocked []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[int64]*types.User),
		subs:   make(map[string]*types.Subscription),
		pkgs:   make(map[string]*types.Package),
		subErr: make(map[string]error),
	}
}

func (f *fakeStore) ListUsersAfter(_ context.Context, afterID int64, limit int) ([]*types.User, error) {
	ids := make([]int64, 0, len(f.users))
	for id := range f.users {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*types.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.users[id])
	}
	return out, nil
}

func (f *fakeStore) GetUser(_ context.Context, userID int64) (*types.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %d not found", userID)
	}
	return u, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, u *types.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) SetBlocked(_ context.Context, userID int64, blocked bool) error {
	if u, ok := f.users[userID]; ok {
		u.IsBlocked = blocked
	}
	f.blocked = append(f.blocked, userID)
	return nil
}

func (f *fakeStore) GetSubscription(_ context.Context, id string) (*types.Subscription, error) {
	if err := f.subErr[id]; err != nil {
		return nil, err
	}
	sub, ok := f.subs[id]
	if !ok {
		return nil, fmt.Errorf("subscription %s not found", id)
	}
	return sub, nil
}

func (f *fakeStore) FinishExpiredSubscription(_ context.Context, subscriptionID string) error {
	sub := f.subs[subscriptionID]
	return billing.FinishSubscription(sub, f.users[sub.UserID], time.Now().UTC())
}

func (f *fakeStore) ListExpiredFlagPackages(_ context.Context, now time.Time) ([]*types.Package, error) {
	var out []*types.Package
	for _, p := range f.pkgs {
		if p.Status == types.PackageSuccess && !p.Expired && p.UntilAt != nil && !p.UntilAt.After(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ExpireFlagPackage(_ context.Context, packageID string) (bool, error) {
	now := time.Now().UTC()
	pkg := f.pkgs[packageID]
	covered := false
	for _, other := range f.pkgs {
		if other.ID != pkg.ID && other.UserID == pkg.UserID && other.ProductID == pkg.ProductID &&
			other.Status == types.PackageSuccess && !other.Expired &&
			other.UntilAt != nil && other.UntilAt.After(now) {
			covered = true
		}
	}
	return billing.ExpireFlagPackage(pkg, f.users[pkg.UserID], covered, now), nil
}

type fakeNotifier struct {
	sent   []string
	chats  []int64
	errFor map[int64]error
}

func (n *fakeNotifier) Notify(_ context.Context, chatID int64, text string) error {
	if err := n.errFor[chatID]; err != nil {
		return err
	}
	n.chats = append(n.chats, chatID)
	n.sent = append(n.sent, text)
	return nil
}

func newSweeper(store Store, notifier Notifier) *Sweeper {
	return NewSweeper(store, notifier, logger.NewDevelopment(), Config{Interval: time.Hour, BatchSize: 2})
}

func addUser(f *fakeStore, id int64) *types.User {
	u := &types.User{
		ID:               id,
		ChatID:           id,
		LanguageCode:     "en",
		Currency:         types.USD,
		DailyLimits:      catalog.TierLimits(types.TierFree),
		AdditionalQuota:  types.NewUserQuota(),
		LastLimitRefresh: time.Now().UTC(),
	}
	f.users[id] = u
	return u
}

func addActiveSub(f *fakeStore, u *types.User, tier types.SubscriptionTier, start time.Time) *types.Subscription {
	sub := &types.Subscription{
		ID:     fmt.Sprintf("sub-%d", u.ID),
		UserID: u.ID,
		Tier:   tier,
		Period: types.PeriodMonth1,
		Status: types.SubscriptionWaiting,
	}
	if err := billing.ActivateSubscription(sub, u, "ch", false, start); err != nil {
		panic(err)
	}
	f.subs[sub.ID] = sub
	return sub
}

func TestSweepFinishesExpiredSubscription(t *testing.T) {
	f := newFakeStore()
	u := addUser(f, 1)
	sub := addActiveSub(f, u, types.TierVIP, time.Now().UTC().AddDate(0, -2, 0))
	n := &fakeNotifier{}

	newSweeper(f, n).RunSweep(context.Background())

	assert.Equal(t, types.SubscriptionFinished, sub.Status)
	assert.Empty(t, u.SubscriptionID)
	assert.Equal(t, catalog.TierLimits(types.TierFree), u.DailyLimits)
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "subscription has ended")

	// A second sweep finds nothing left to do.
	newSweeper(f, n).RunSweep(context.Background())
	assert.Len(t, n.sent, 1)
}

func TestSweepRefreshesMonthlyLimits(t *testing.T) {
	f := newFakeStore()
	u := addUser(f, 1)
	addActiveSub(f, u, types.TierPremium, time.Now().UTC())
	// Three months in; a 12-month subscription mid-flight.
	f.subs[u.SubscriptionID].EndDate = time.Now().UTC().AddDate(0, 9, 0)
	u.LastLimitRefresh = time.Now().UTC().AddDate(0, 0, -31)
	u.DailyLimits.Counts[types.QuotaTextBasic] = 0
	n := &fakeNotifier{}

	newSweeper(f, n).RunSweep(context.Background())

	assert.Equal(t, catalog.TierLimits(types.TierPremium), u.DailyLimits)
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "Limits refreshed")
}

func TestSweepRefreshesFreeUserLimits(t *testing.T) {
	f := newFakeStore()
	u := addUser(f, 1)
	u.LastLimitRefresh = time.Now().UTC().AddDate(0, 0, -31)
	u.DailyLimits.Counts[types.QuotaTextBasic] = 0
	n := &fakeNotifier{}

	newSweeper(f, n).RunSweep(context.Background())

	assert.Equal(t, 10, u.DailyLimits.Counts[types.QuotaTextBasic])
	// Free-tier refreshes are silent.
	assert.Empty(t, n.sent)

	// A fresh user is left alone next time around.
	u.DailyLimits.Counts[types.QuotaTextBasic] = 4
	newSweeper(f, n).RunSweep(context.Background())
	assert.Equal(t, 4, u.DailyLimits.Counts[types.QuotaTextBasic])
}

func TestSweepLeavesFreshLimitsAlone(t *testing.T) {
	f := newFakeStore()
	u := addUser(f, 1)
	addActiveSub(f, u, types.TierStandard, time.Now().UTC())
	u.DailyLimits.Counts[types.QuotaTextBasic] = 1
	n := &fakeNotifier{}

	newSweeper(f, n).RunSweep(context.Background())

	assert.Equal(t, 1, u.DailyLimits.Counts[types.QuotaTextBasic])
	assert.Empty(t, n.sent)
}

func TestSweepExpiresFlagPackage(t *testing.T) {
	f := newFakeStore()
	u := addUser(f, 1)
	pkg := &types.Package{
		ID:        "pkg-1",
		UserID:    u.ID,
		ProductID: "pkg_voice_replies",
		Status:    types.PackageWaiting,
		Quantity:  1,
	}
	// Bought 31 days ago with a 30-day window.
	require.NoError(t, billing.ApplyPackage(pkg, u, "ch", time.Now().UTC().AddDate(0, 0, -31)))
	f.pkgs[pkg.ID] = pkg
	n := &fakeNotifier{}

	newSweeper(f, n).RunSweep(context.Background())

	assert.False(t, u.AdditionalQuota.Flags[types.QuotaVoiceReplies])
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "Package expired")

	newSweeper(f, n).RunSweep(context.Background())
	assert.Len(t, n.sent, 1)
}

func TestSweepKeepsFlagWhileAnotherPackageCovers(t *testing.T) {
	f := newFakeStore()
	u := addUser(f, 1)
	old := &types.Package{
		ID:        "pkg-old",
		UserID:    u.ID,
		ProductID: "pkg_voice_replies",
		Status:    types.PackageWaiting,
		Quantity:  1,
	}
	require.NoError(t, billing.ApplyPackage(old, u, "ch-1", time.Now().UTC().AddDate(0, 0, -31)))
	renewed := &types.Package{
		ID:        "pkg-new",
		UserID:    u.ID,
		ProductID: "pkg_voice_replies",
		Status:    types.PackageWaiting,
		Quantity:  1,
	}
	require.NoError(t, billing.ApplyPackage(renewed, u, "ch-2", time.Now().UTC().AddDate(0, 0, -5)))
	f.pkgs[old.ID] = old
	f.pkgs[renewed.ID] = renewed
	n := &fakeNotifier{}

	newSweeper(f, n).RunSweep(context.Background())

	// The old purchase lapses but the renewal keeps the feature on.
	assert.True(t, old.Expired)
	assert.False(t, renewed.Expired)
	assert.True(t, u.AdditionalQuota.Flags[types.QuotaVoiceReplies])
	assert.Empty(t, n.sent)
}

func TestSweepSkipsPackageNoticeForSubscribers(t *testing.T) {
	f := newFakeStore()
	u := addUser(f, 1)
	addActiveSub(f, u, types.TierVIP, time.Now().UTC())
	pkg := &types.Package{
		ID:        "pkg-1",
		UserID:    u.ID,
		ProductID: "pkg_voice_replies",
		Status:    types.PackageWaiting,
		Quantity:  1,
	}
	require.NoError(t, billing.ApplyPackage(pkg, u, "ch", time.Now().UTC().AddDate(0, 0, -31)))
	f.pkgs[pkg.ID] = pkg
	n := &fakeNotifier{}

	newSweeper(f, n).RunSweep(context.Background())

	// The flag still lapses, quietly.
	assert.True(t, pkg.Expired)
	assert.Empty(t, n.sent)
}

func TestSweepMarksBlockedUsers(t *testing.T) {
	f := newFakeStore()
	u := addUser(f, 1)
	addActiveSub(f, u, types.TierStandard, time.Now().UTC().AddDate(0, -2, 0))
	other := addUser(f, 2)
	otherSub := addActiveSub(f, other, types.TierStandard, time.Now().UTC().AddDate(0, -2, 0))
	n := &fakeNotifier{errFor: map[int64]error{1: ErrBotBlocked}}

	newSweeper(f, n).RunSweep(context.Background())

	assert.Contains(t, f.blocked, int64(1))
	assert.True(t, f.users[1].IsBlocked)
	// The sweep kept going and handled the second user.
	assert.Equal(t, types.SubscriptionFinished, otherSub.Status)
	require.Len(t, n.sent, 1)
	assert.Equal(t, int64(2), n.chats[0])
}

func TestSweepContinuesPastUserError(t *testing.T) {
	f := newFakeStore()
	broken := addUser(f, 1)
	broken.SubscriptionID = "sub-missing"
	f.subErr["sub-missing"] = fmt.Errorf("boom")
	ok := addUser(f, 2)
	okSub := addActiveSub(f, ok, types.TierStandard, time.Now().UTC().AddDate(0, -2, 0))
	n := &fakeNotifier{}

	newSweeper(f, n).RunSweep(context.Background())

	assert.Equal(t, types.SubscriptionFinished, okSub.Status)
	require.Len(t, n.sent, 1)
}
