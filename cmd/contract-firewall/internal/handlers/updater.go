package handlers

import (
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/wallarm/contract-firewall/internal/config"
	"github.com/wallarm/contract-firewall/internal/platform/contractset"
	"github.com/wallarm/contract-firewall/internal/platform/locale"
	"github.com/wallarm/contract-firewall/internal/platform/metrics"
	"github.com/wallarm/contract-firewall/internal/platform/storage"
)

const (
	updaterLogPrefix = "Regular contract updater"
)

// Updater reloads the contracts every update period and swaps the handlers when the
// content of the contracts has changed. Its Handler is the handler of the API server.
type Updater struct {
	logger     zerolog.Logger
	cfg        *config.ValidatorMode
	handler    atomic.Value
	shutdown   chan os.Signal
	lock       *sync.RWMutex
	metrics    metrics.Metrics
	translator *locale.Translator
	contracts  *contractset.Set
	load       func() (storage.ContractStore, error)
	stop       chan struct{}
	updateTime time.Duration
}

// NewHandlerUpdater function defines the contract updater controller
func NewHandlerUpdater(lock *sync.RWMutex, logger zerolog.Logger, contracts *contractset.Set, cfg *config.ValidatorMode, shutdown chan os.Signal, m metrics.Metrics, translator *locale.Translator) *Updater {
	u := Updater{
		logger:     logger,
		cfg:        cfg,
		shutdown:   shutdown,
		lock:       lock,
		metrics:    m,
		translator: translator,
		contracts:  contracts,
		load: func() (storage.ContractStore, error) {
			return storage.NewContractStore(&cfg.Contract)
		},
		stop:       make(chan struct{}),
		updateTime: cfg.Contract.UpdatePeriod,
	}

	u.handler.Store(Handlers(lock, cfg, shutdown, logger, m, contracts, translator))

	return &u
}

// Handler passes the request to the handlers of the current contracts
func (u *Updater) Handler(ctx *fasthttp.RequestCtx) {
	u.handler.Load().(fasthttp.RequestHandler)(ctx)
}

// Run function performs the regular update of the contracts
func (u *Updater) Run() {

	// handle panic
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error().Msgf("panic: %v", r)

			// Log the Go stack trace for this panic'd goroutine.
			u.logger.Debug().Msgf("%s", debug.Stack())
			return
		}
	}()

	updateTicker := time.NewTicker(u.updateTime)
	for {
		select {
		case <-updateTicker.C:
			if _, err := u.Update(); err != nil {
				u.logger.Error().Err(err).Msgf("%s: updating contracts", updaterLogPrefix)
			}
		case <-u.stop:
			updateTicker.Stop()
			return
		}
	}
}

// Update loads the contracts and swaps the handlers when the contracts have changed. It
// returns true when the handlers were swapped.
func (u *Updater) Update() (bool, error) {

	newStore, err := u.load()
	if err != nil {
		return false, err
	}

	u.lock.RLock()
	current := u.contracts
	u.lock.RUnlock()

	if !current.Store().ShouldUpdate(newStore) {
		return false, nil
	}

	// the compilation runs outside the lock, requests are served by the current set
	next, err := current.Reload(newStore)
	if err != nil {
		return false, err
	}

	u.lock.Lock()
	u.contracts = next
	u.handler.Store(Handlers(u.lock, u.cfg, u.shutdown, u.logger, u.metrics, next, u.translator))
	u.lock.Unlock()

	current.Retire(next)

	u.logger.Info().
		Ints("schema_ids", next.SchemaIDs()).
		Msgf("%s: contracts have been updated", updaterLogPrefix)

	return true, nil
}

// Contracts returns the current contract set
func (u *Updater) Contracts() *contractset.Set {
	u.lock.RLock()
	defer u.lock.RUnlock()
	return u.contracts
}

// Start function starts update process every update period
func (u *Updater) Start() error {
	go u.Run()

	<-u.stop
	return nil
}

// Shutdown function stops update process
func (u *Updater) Shutdown() error {
	defer u.logger.Info().Msgf("%s: stopped", updaterLogPrefix)

	// close worker and finish Start function
	for i := 0; i < 2; i++ {
		u.stop <- struct{}{}
	}

	return nil
}
