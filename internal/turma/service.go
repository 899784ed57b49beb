package turma

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/checkin/internal/metrics"
)

const (
	listCacheKey = "turmas:list"
	listCacheTTL = 60 * time.Second
)

// Store descreve a persistência usada pelo serviço.
type Store interface {
	List(ctx context.Context) ([]Turma, error)
	Get(ctx context.Context, id uuid.UUID) (Turma, error)
	NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error)
	Create(ctx context.Context, t Turma) (Turma, error)
	Update(ctx context.Context, t Turma) (Turma, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Service contém as regras do cadastro de turmas.
type Service struct {
	store Store
	cache cacheClient
}

// NewService cria o serviço; cache pode ser nil.
func NewService(store Store, cache *redis.Client) *Service {
	s := &Service{store: store}
	if cache != nil {
		s.cache = cache
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]Turma, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, listCacheKey).Bytes(); err == nil {
			var turmas []Turma
			if json.Unmarshal(data, &turmas) == nil {
				metrics.CacheHit("turmas")
				return turmas, nil
			}
		}
		metrics.CacheMiss("turmas")
	}

	turmas, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(turmas); err == nil {
			_ = s.cache.Set(ctx, listCacheKey, payload, listCacheTTL).Err()
		}
	}
	return turmas, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Turma, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Turma, error) {
	t, err := Normalize(in)
	if err != nil {
		return Turma{}, err
	}
	if err := s.ensureNameFree(ctx, t.Name, uuid.Nil); err != nil {
		return Turma{}, err
	}

	created, err := s.store.Create(ctx, t)
	if err != nil {
		return Turma{}, err
	}
	s.invalidate(ctx)
	log.Info().Str("turma_id", created.ID.String()).Str("kind", string(created.Kind)).Msg("turma criada")
	return created, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Turma, error) {
	t, err := Normalize(in)
	if err != nil {
		return Turma{}, err
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return Turma{}, err
	}
	if err := s.ensureNameFree(ctx, t.Name, id); err != nil {
		return Turma{}, err
	}

	t.ID = id
	updated, err := s.store.Update(ctx, t)
	if err != nil {
		return Turma{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	log.Info().Str("turma_id", id.String()).Msg("turma removida")
	return nil
}

func (s *Service) ensureNameFree(ctx context.Context, name string, exclude uuid.UUID) error {
	taken, err := s.store.NameTaken(ctx, name, exclude)
	if err != nil {
		return err
	}
	if taken {
		return ErrConflict
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, listCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("turmas: falha ao invalidar cache")
	}
}
