package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"nova-ai-bot/internal/billing"
	"nova-ai-bot/internal/catalog"
	"nova-ai-bot/internal/i18n"
	"nova-ai-bot/internal/messages"
	"nova-ai-bot/pkg/logger"
	"nova-ai-bot/types"
)

// ErrBotBlocked is returned by a Notifier when the user has blocked the
// bot; the sweep marks them blocked instead of retrying.
var ErrBotBlocked = errors.New("bot blocked by user")

type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Store is the slice of persistence the sweep needs.
type Store interface {
	ListUsersAfter(ctx context.Context, afterID int64, limit int) ([]*types.User, error)
	GetUser(ctx context.Context, userID int64) (*types.User, error)
	UpdateUser(ctx context.Context, u *types.User) error
	SetBlocked(ctx context.Context, userID int64, blocked bool) error
	GetSubscription(ctx context.Context, id string) (*types.Subscription, error)
	FinishExpiredSubscription(ctx context.Context, subscriptionID string) error
	ListExpiredFlagPackages(ctx context.Context, now time.Time) ([]*types.Package, error)
	ExpireFlagPackage(ctx context.Context, packageID string) (bool, error)
}

type Config struct {
	Interval  time.Duration
	BatchSize int
}

// Sweeper is the periodic quota refresh job: it finishes expired
// subscriptions, re-issues monthly limits and expires lapsed time-boxed
// package entitlements. One user's failure never aborts the sweep.
type Sweeper struct {
	store    Store
	notifier Notifier
	log      *logger.Logger

	interval  time.Duration
	batchSize int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewSweeper(store Store, notifier Notifier, log *logger.Logger, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		store:     store,
		notifier:  notifier,
		log:       log,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.RunSweep(s.ctx)
			}
		}
	}()
	s.log.Infow("sweeper started", "interval", s.interval, "batch_size", s.batchSize)
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.log.Info("sweeper stopped")
}

// RunSweep walks all users in id order, one batch at a time, then expires
// lapsed package entitlements.
func (s *Sweeper) RunSweep(ctx context.Context) {
	now := time.Now().UTC()
	var after int64
	processed := 0
	for {
		users, err := s.store.ListUsersAfter(ctx, after, s.batchSize)
		if err != nil {
			s.log.Errorw("sweep: listing users failed", "error", err)
			return
		}
		if len(users) == 0 {
			break
		}
		for _, u := range users {
			if err := s.processUser(ctx, u, now); err != nil {
				s.log.Errorw("sweep: user failed", "user_id", u.ID, "error", err)
			}
			processed++
		}
		after = users[len(users)-1].ID
	}

	s.expirePackages(ctx, now)
	s.log.Infow("sweep finished", "users", processed)
}

func (s *Sweeper) processUser(ctx context.Context, u *types.User, now time.Time) error {
	if u.IsBlocked {
		return nil
	}
	// Free-tier users get their monthly limits back quietly.
	if !u.HasSubscription() {
		if !billing.NeedsLimitRefresh(u, now) {
			return nil
		}
		billing.RefreshLimits(u, types.TierFree, now)
		return s.store.UpdateUser(ctx, u)
	}
	sub, err := s.store.GetSubscription(ctx, u.SubscriptionID)
	if err != nil {
		return err
	}
	lang := i18n.FromLanguageCode(u.LanguageCode)

	if !now.Before(sub.EndDate) {
		if err := s.store.FinishExpiredSubscription(ctx, sub.ID); err != nil {
			return err
		}
		s.notify(ctx, u, messages.SubscriptionExpired(lang))
		return nil
	}

	if billing.NeedsLimitRefresh(u, now) {
		billing.RefreshLimits(u, sub.Tier, now)
		if err := s.store.UpdateUser(ctx, u); err != nil {
			return err
		}
		s.notify(ctx, u, messages.LimitsRefreshed(lang))
	}
	return nil
}

func (s *Sweeper) expirePackages(ctx context.Context, now time.Time) {
	pkgs, err := s.store.ListExpiredFlagPackages(ctx, now)
	if err != nil {
		s.log.Errorw("sweep: listing expired packages failed", "error", err)
		return
	}
	for _, pkg := range pkgs {
		cleared, err := s.store.ExpireFlagPackage(ctx, pkg.ID)
		if err != nil {
			s.log.Errorw("sweep: expiring package failed", "package_id", pkg.ID, "error", err)
			continue
		}
		// Another package may still cover the quota; the user lost nothing.
		if !cleared {
			continue
		}
		u, err := s.store.GetUser(ctx, pkg.UserID)
		if err != nil {
			s.log.Errorw("sweep: loading package owner failed", "package_id", pkg.ID, "error", err)
			continue
		}
		// Subscribers keep the feature through their plan; only users left
		// without it learn the package lapsed.
		if u.IsBlocked || u.HasSubscription() {
			continue
		}
		prod, ok := catalog.ProductByID(pkg.ProductID)
		if !ok {
			continue
		}
		lang := i18n.FromLanguageCode(u.LanguageCode)
		s.notify(ctx, u, messages.PackageExpired(lang, messages.QuotaName(lang, prod.Quota)))
	}
}

func (s *Sweeper) notify(ctx context.Context, u *types.User, text string) {
	err := s.notifier.Notify(ctx, u.ChatID, text)
	if err == nil {
		return
	}
	if errors.Is(err, ErrBotBlocked) {
		if berr := s.store.SetBlocked(ctx, u.ID, true); berr != nil {
			s.log.Errorw("sweep: marking user blocked failed", "user_id", u.ID, "error", berr)
		}
		return
	}
	s.log.Warnw("sweep: notification failed", "user_id", u.ID, "error", err)
}
