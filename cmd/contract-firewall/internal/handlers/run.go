package handlers

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path"
	"sync"
	"syscall"

	"github.com/ardanlabs/conf"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"
	"golang.org/x/sync/errgroup"

	"github.com/wallarm/contract-firewall/internal/config"
	"github.com/wallarm/contract-firewall/internal/platform/contractset"
	"github.com/wallarm/contract-firewall/internal/platform/locale"
	"github.com/wallarm/contract-firewall/internal/platform/metrics"
	"github.com/wallarm/contract-firewall/internal/platform/storage"
	"github.com/wallarm/contract-firewall/internal/platform/validator"
	"github.com/wallarm/contract-firewall/internal/version"
)

const (
	logPrefix         = "main"
	livenessEndpoint  = "/v1/liveness"
	readinessEndpoint = "/v1/readiness"
)

func Run(logger zerolog.Logger) error {

	// =========================================================================
	// Configuration

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		switch {
		case errors.Is(err, conf.ErrHelpWanted):
			usage, err := conf.Usage(version.Namespace, &config.ValidatorMode{})
			if err != nil {
				return errors.Wrap(err, "generating config usage")
			}
			fmt.Println(usage)
			return nil
		case errors.Is(err, conf.ErrVersionWanted):
			v := config.ValidatorMode{}
			v.Version.SVN = version.Version
			v.Version.Desc = version.ProjectName
			out, err := conf.VersionString(version.Namespace, &v)
			if err != nil {
				return errors.Wrap(err, "generating config version")
			}
			fmt.Println(out)
			return nil
		}
		return err
	}

	logger, err = config.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return errors.Wrap(err, "logger init")
	}

	// =========================================================================
	// App Starting

	logger.Info().Msgf("%s : Started : Application initializing : version %q", logPrefix, version.Version)
	defer logger.Info().Msgf("%s: Completed", logPrefix)

	out, err := conf.String(cfg)
	if err != nil {
		return errors.Wrap(err, "generating config for output")
	}
	logger.Info().Msgf("%s: Configuration Loaded :\n%v\n", logPrefix, out)

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// Contract Usage Lock
	var lock sync.RWMutex

	// =========================================================================
	// Init Contracts

	contractStore, err := storage.NewContractStore(&cfg.Contract)
	if err != nil {
		return errors.Wrap(err, "loading contracts")
	}

	translator, err := locale.NewTranslator(cfg.Locale.Default)
	if err != nil {
		return errors.Wrap(err, "locale init")
	}

	metricsData := metrics.NewPrometheusMetrics(cfg.Metrics.Enabled)

	schemaCache := validator.NewSchemaCache(cfg.Cache.SchemaEntries, cfg.Cache.SchemaTTL)
	defer schemaCache.Stop()

	contracts, err := contractset.New(contractStore, &contractset.Options{
		Engine:           cfg.Validation.Engine,
		MatcherCacheSize: cfg.Cache.MatcherEntries,
		SchemaCache:      schemaCache,
		Metrics:          metricsData,
		ParserPool:       &fastjson.ParserPool{},
		Logger:           logger,
	})
	if err != nil {
		return errors.Wrap(err, "contracts init")
	}

	logger.Info().Msgf("%s: Loaded contracts with schema IDs %v", logPrefix, contracts.SchemaIDs())

	// =========================================================================
	// Init ZeroLogger

	zeroLogger := &config.ZerologAdapter{Logger: logger}

	// =========================================================================
	// Init Handlers

	updater := NewHandlerUpdater(&lock, logger, contracts, cfg, shutdown, metricsData, translator)

	// =========================================================================
	// Start Health API Service

	healthData := Health{
		Store: func() storage.ContractStore {
			return updater.Contracts().Store()
		},
		Engine: cfg.Validation.Engine,
	}

	// health service handler
	healthHandler := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case livenessEndpoint:
			if err := healthData.Liveness(ctx); err != nil {
				logger.Error().Msgf("%s: liveness: %s", logPrefix, err.Error())
			}
		case readinessEndpoint:
			if err := healthData.Readiness(ctx); err != nil {
				logger.Error().Msgf("%s: readiness: %s", logPrefix, err.Error())
			}
		default:
			ctx.Error("Unsupported path", fasthttp.StatusNotFound)
		}
	}

	healthAPI := fasthttp.Server{
		Handler:               healthHandler,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		Logger:                zeroLogger,
		NoDefaultServerHeader: true,
	}

	// =========================================================================
	// Start API Service

	logger.Info().Msgf("%s: Initializing API support", logPrefix)

	apiHost, err := url.ParseRequestURI(cfg.APIHost)
	if err != nil {
		return errors.Wrap(err, "parsing API Host URL")
	}

	isTLS := apiHost.Scheme == "https"

	api := fasthttp.Server{
		Handler:            updater.Handler,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		ReadBufferSize:     cfg.ReadBufferSize,
		WriteBufferSize:    cfg.WriteBufferSize,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		DisableKeepalive:   cfg.DisableKeepalive,
		MaxConnsPerIP:      cfg.MaxConnsPerIP,
		MaxRequestsPerConn: cfg.MaxRequestsPerConn,
		ErrorHandler: func(ctx *fasthttp.RequestCtx, err error) {
			logger.Error().Err(err).Msg("request processing error")

			ctx.Error("", fasthttp.StatusBadRequest)
		},
		Logger:                zeroLogger,
		NoDefaultServerHeader: true,
	}

	// =========================================================================
	// Start Listeners

	var g errgroup.Group

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return metricsData.StartService(&logger, &metrics.Options{
				EndpointName: cfg.Metrics.EndpointName,
				Host:         cfg.Metrics.Host,
				ReadTimeout:  cfg.Metrics.ReadTimeout,
				WriteTimeout: cfg.Metrics.WriteTimeout,
			})
		})
	}

	g.Go(func() error {
		logger.Info().Msgf("%s: Health API listening on %s", logPrefix, cfg.HealthAPIHost)
		return healthAPI.ListenAndServe(cfg.HealthAPIHost)
	})

	g.Go(func() error {
		logger.Info().Msgf("%s: API listening on %s", logPrefix, cfg.APIHost)
		if isTLS {
			return api.ListenAndServeTLS(apiHost.Host, path.Join(cfg.TLS.CertsPath, cfg.TLS.CertFile),
				path.Join(cfg.TLS.CertsPath, cfg.TLS.CertKey))
		}
		return api.ListenAndServe(apiHost.Host)
	})

	go func() {
		serverErrors <- g.Wait()
	}()

	// =========================================================================
	// Init Regular Update Controller

	updErrors := make(chan error, 1)

	// disable updater if UpdatePeriod == 0
	if cfg.Contract.UpdatePeriod > 0 {
		go func() {
			logger.Info().Msgf("%s: starting contract regular update process every %.0f seconds", logPrefix, cfg.Contract.UpdatePeriod.Seconds())
			updErrors <- updater.Start()
		}()
	}

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return errors.Wrap(err, "server error")

	case err := <-updErrors:
		if err != nil {
			return errors.Wrap(err, "contract updater error")
		}
		return nil

	case sig := <-shutdown:
		logger.Info().Msgf("%s: %v: Start shutdown", logPrefix, sig)

		if cfg.Contract.UpdatePeriod > 0 {
			if err := updater.Shutdown(); err != nil {
				return errors.Wrap(err, "could not stop contract updater gracefully")
			}
		}

		// Asking listener to shutdown and shed load.
		if err := api.Shutdown(); err != nil {
			return errors.Wrap(err, "could not stop server gracefully")
		}
		if err := healthAPI.Shutdown(); err != nil {
			return errors.Wrap(err, "could not stop health server gracefully")
		}
		logger.Info().Msgf("%s: %v: Completed shutdown", logPrefix, sig)

		updater.Contracts().Retire(nil)
	}

	return nil
}
