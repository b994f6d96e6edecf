package handlers

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/wallarm/contract-firewall/internal/config"
	"github.com/wallarm/contract-firewall/internal/mid"
	"github.com/wallarm/contract-firewall/internal/platform/contractset"
	"github.com/wallarm/contract-firewall/internal/platform/locale"
	"github.com/wallarm/contract-firewall/internal/platform/metrics"
	"github.com/wallarm/contract-firewall/internal/platform/web"
)

// Handlers builds the request handler validating the requests against the contract set
func Handlers(lock *sync.RWMutex, cfg *config.ValidatorMode, shutdown chan os.Signal, logger zerolog.Logger, m metrics.Metrics, contracts *contractset.Set, translator *locale.Translator) fasthttp.RequestHandler {

	// Construct the App which holds the validation handler as well as common Middleware.
	app := web.NewApp(lock, shutdown, logger, mid.Logger(logger), mid.Errors(logger), mid.Metrics(m), mid.MIMETypeIdentifier(logger), mid.Panics(logger))

	s := RequestValidator{
		Contracts:  contracts,
		Translator: translator,
		Cfg:        cfg,
		Metrics:    m,
		Log:        logger,
	}
	app.Handle(s.Handler)

	return app.MainHandler
}
