package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/copo/apps/api/echo"
	"github.com/trezcool/copo/core"
	"github.com/trezcool/copo/core/academic"
	"github.com/trezcool/copo/core/attainment"
	"github.com/trezcool/copo/core/cache"
	"github.com/trezcool/copo/core/user"
	emailsvc "github.com/trezcool/copo/services/email"
	logsvc "github.com/trezcool/copo/services/logger"
	"github.com/trezcool/copo/storage/docrepos"
	"github.com/trezcool/copo/storage/docstore"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewZerolog(os.Stdout, "API", conf.Debug), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewZerolog(os.Stdout, "DB", conf.Debug), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) docstore.Store {
	store, err := docstore.Open(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s store: %v", conf.Database.Engine, err), err)
	}
	loggerParam.Logger.Info(fmt.Sprintf("using %s store", conf.Database.Engine))
	return store
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func newCache(reg prometheus.Registerer) (cache.Cache, error) {
	return cache.Instrument(cache.NewMemoryCache(), reg)
}

func newAttainmentService(repo academic.Repository, usrSvc *user.Service) *attainment.Service {
	return attainment.NewService(repo, usrSvc)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newEmailService))
	must(c.Provide(docrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(docrepos.NewAcademicRepository, dig.As(new(academic.Repository))))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(func() (prometheus.Registerer, prometheus.Gatherer) {
		return prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	}))
	must(c.Provide(newCache))
	must(c.Provide(user.NewService))
	must(c.Provide(academic.NewService))
	must(c.Provide(newAttainmentService))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
