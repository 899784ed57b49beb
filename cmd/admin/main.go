package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/checkin/internal/checkin"
	"github.com/gestaozabele/checkin/internal/config"
	"github.com/gestaozabele/checkin/internal/db"
	"github.com/gestaozabele/checkin/internal/repo"
	"github.com/gestaozabele/checkin/internal/turma"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuração inválida")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN, db.PoolOptions{ConnectTimeout: cfg.DB.ConnectTimeout})
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	if err := db.WaitReady(ctx, pool, cfg.DB.StartupRetries, cfg.DB.StartupRetryDelay); err != nil {
		log.Fatal().Err(err).Msg("banco indisponível")
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "migrate":
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("falha ao migrar")
		}
		log.Info().Msg("migrações aplicadas")
	case "promote":
		if err := runPromote(ctx, pool, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao alterar administrador")
		}
	case "export":
		if err := runExport(ctx, pool, cfg, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao exportar checkins")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "admin CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  admin migrate")
	fmt.Fprintln(os.Stderr, "  admin promote --email pessoa@exemplo.com [--revoke]")
	fmt.Fprintln(os.Stderr, "  admin export [--turma <uuid>] [--out checkins.xlsx]")
}

func runPromote(ctx context.Context, pool *pgxpool.Pool, args []string) error {
	fs := flag.NewFlagSet("promote", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	email := fs.String("email", "", "e-mail da conta")
	revoke := fs.Bool("revoke", false, "remove o perfil de administrador")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("--email é obrigatório")
	}

	user, err := repo.New(pool).SetAdminByEmail(ctx, strings.TrimSpace(*email), !*revoke)
	if err != nil {
		return err
	}
	log.Info().Str("user_id", user.ID.String()).Bool("admin", user.IsAdmin).Msg("perfil atualizado")
	return nil
}

func runExport(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	turmaRaw := fs.String("turma", "", "filtra por turma")
	out := fs.String("out", "", "arquivo de saída (padrão: nome gerado)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var turmaID *uuid.UUID
	if *turmaRaw != "" {
		id, err := uuid.Parse(*turmaRaw)
		if err != nil {
			return fmt.Errorf("turma inválida: %w", err)
		}
		turmaID = &id
	}

	turmas := turma.NewService(turma.NewRepository(pool), nil)
	svc := checkin.NewService(checkin.NewRepository(pool), turmas, repo.New(pool), cfg.Location)

	data, filename, err := svc.Export(ctx, turmaID)
	if err != nil {
		return err
	}
	if *out != "" {
		filename = *out
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return err
	}
	log.Info().Str("arquivo", filename).Int("bytes", len(data)).Msg("planilha gerada")
	return nil
}
