package folio

import (
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// NewLogger constructs a JSON logrus logger at the given level (default info).
func NewLogger(level string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	logger.SetLevel(logrus.InfoLevel)

	if level == "" {
		return logger, nil
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, eris.Wrapf(err, "invalid log level: %s", level)
	}
	logger.SetLevel(parsed)
	return logger, nil
}

// InitSentry forwards error-level log entries to Sentry when dsn is set.
// The returned flush func is always safe to call.
func InitSentry(logger *logrus.Logger, dsn, environment string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return nil, eris.Wrap(err, "init sentry client")
	}
	hook := sentrylogrus.NewLogHookFromClient([]logrus.Level{
		logrus.ErrorLevel,
		logrus.FatalLevel,
		logrus.PanicLevel,
	}, client)
	logger.AddHook(hook)

	return func() { client.Flush(2 * time.Second) }, nil
}
