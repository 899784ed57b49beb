package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/gestaozabele/checkin/internal/config"
	"github.com/gestaozabele/checkin/internal/db"
	"github.com/gestaozabele/checkin/internal/metrics"
)

// Service verifica o banco periodicamente, publica métricas e avisa mudanças de estado.
type Service struct {
	pinger   db.Pinger
	cfg      config.MonitoringConfig
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	lastUp   *bool
	cron     *cron.Cron
	startErr error
	once     sync.Once
}

func NewService(pinger db.Pinger, cfg config.MonitoringConfig, logger zerolog.Logger, notifier Notifier) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1m"
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &Service{
		pinger:   pinger,
		cfg:      cfg,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Start agenda o job. Chamadas repetidas reutilizam o mesmo agendador.
func (s *Service) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}
	s.once.Do(func() {
		c := cron.New()
		if _, err := c.AddFunc(s.cfg.Schedule, func() {
			if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn().Err(err).Msg("monitor: verificação falhou")
			}
		}); err != nil {
			s.startErr = fmt.Errorf("monitor: agenda inválida %q: %w", s.cfg.Schedule, err)
			return
		}
		c.Start()
		s.cron = c
		s.logger.Info().Str("schedule", s.cfg.Schedule).Msg("monitor: job agendado")
	})
	return s.startErr
}

// Stop interrompe o agendador e aguarda o job em execução.
func (s *Service) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("monitor: job encerrado")
}

// RunOnce faz um ping e devolve o erro observado. Com o contexto já encerrado
// não há ping nem alerta.
func (s *Service) RunOnce(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := s.now()
	err := s.pinger.Ping(pingCtx)
	metrics.ObserveDBPing(s.now().Sub(start), err)

	s.transition(ctx, err)
	return err
}

func (s *Service) transition(ctx context.Context, err error) {
	up := err == nil

	s.mu.Lock()
	changed := (s.lastUp == nil && !up) || (s.lastUp != nil && *s.lastUp != up)
	s.lastUp = &up
	s.mu.Unlock()

	if !changed {
		return
	}

	alert := Alert{Up: up, Observed: s.now()}
	if err != nil {
		alert.Detail = err.Error()
	}
	if nerr := s.notifier.Notify(ctx, alert); nerr != nil {
		s.logger.Warn().Err(nerr).Msg("monitor: falha ao enviar alerta")
	}
}
