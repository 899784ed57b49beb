package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry ativa o envio de erros quando há DSN; o retorno descarrega o buffer no shutdown.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr envia o erro se o cliente estiver ativo; sem DSN é no-op.
func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// CapturePanic registra valor recuperado de panic.
func CapturePanic(rec any) {
	if rec != nil {
		sentry.CurrentHub().Recover(rec)
	}
}
