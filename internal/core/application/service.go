package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultStreamReconnectDelay = time.Second

type Service struct {
	BuildInfo BuildInfo

	cfg          Config
	repoManager  ports.RepoManager
	lnSvc        ports.LnService
	schedulerSvc ports.SchedulerService

	holds        *holdCache
	fundingLocks *fundingLocks

	servicePubkey string

	lock    sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	group   *errgroup.Group
	tasks   sync.WaitGroup
	started bool
	stopped bool
}

func NewService(
	buildInfo BuildInfo,
	cfg Config,
	repoManager ports.RepoManager,
	lnSvc ports.LnService,
	schedulerSvc ports.SchedulerService,
) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if lnSvc == nil {
		return nil, fmt.Errorf("missing lightning service")
	}
	if schedulerSvc == nil {
		return nil, fmt.Errorf("missing scheduler service")
	}
	if cfg.StreamReconnectDelay <= 0 {
		cfg.StreamReconnectDelay = defaultStreamReconnectDelay
	}

	return &Service{
		BuildInfo:    buildInfo,
		cfg:          cfg,
		repoManager:  repoManager,
		lnSvc:        lnSvc,
		schedulerSvc: schedulerSvc,
		holds:        newHoldCache(),
		fundingLocks: newFundingLocks(),
	}, nil
}

// Start reads the node identity and spawns the interception, settlement
// and peer subscriptions. The node must already be connected.
func (s *Service) Start() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.started {
		return fmt.Errorf("service already started")
	}
	if !s.lnSvc.IsConnected() {
		return fmt.Errorf("lightning node not connected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	_, pubkey, err := s.lnSvc.GetInfo(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to get node info: %w", err)
	}
	s.servicePubkey = pubkey

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return s.listenInterceptedHtlcs(groupCtx) })
	group.Go(func() error { return s.listenHtlcEvents(groupCtx) })
	group.Go(func() error { return s.listenPeerEvents(groupCtx) })

	if s.cfg.AutoHealInterval > 0 {
		if err := s.schedulerSvc.ScheduleEvery(s.cfg.AutoHealInterval, func() {
			s.autoHealConnectedPeers(groupCtx)
		}); err != nil {
			cancel()
			// nolint
			group.Wait()
			return fmt.Errorf("failed to schedule auto heal: %w", err)
		}
	}
	s.schedulerSvc.Start()

	s.ctx = groupCtx
	s.cancel = cancel
	s.group = group
	s.started = true

	log.WithField("pubkey", pubkey).Info("lsp service started")
	return nil
}

func (s *Service) Stop() {
	s.lock.Lock()
	if !s.started || s.stopped {
		s.lock.Unlock()
		return
	}
	s.stopped = true
	s.lock.Unlock()

	s.schedulerSvc.Stop()
	s.cancel()
	if err := s.group.Wait(); err != nil {
		log.WithError(err).Warn("subscriptions stopped with error")
	}
	s.tasks.Wait()

	log.Info("lsp service stopped")
}

func (s *Service) IsReady() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.started && !s.stopped && s.lnSvc.IsConnected()
}

func (s *Service) ServicePubkey() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.servicePubkey
}

// runTask runs fn in background unless the service is stopping, Stop waits
// for every task to return.
func (s *Service) runTask(fn func(ctx context.Context)) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.started || s.stopped {
		return false
	}
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		fn(s.ctx)
	}()
	return true
}

func (s *Service) serviceCtx() (context.Context, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.started || s.stopped {
		return nil, ErrServiceNotStarted
	}
	return s.ctx, nil
}
