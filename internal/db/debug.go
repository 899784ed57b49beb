package db

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Reachability descreve o diagnóstico de rede do host do banco.
type Reachability struct {
	Host      string   `json:"host"`
	Port      int      `json:"port"`
	Addresses []string `json:"addresses"`
	TriedIP   string   `json:"tried_ip"`
	Reachable bool     `json:"reachable"`
}

// ErrNoAddress indica que o DNS não devolveu nenhum IP.
var ErrNoAddress = errors.New("não foi possível resolver nenhum IP para o host")

// CheckReachability resolve o host presente no DSN e tenta uma conexão TCP ao primeiro IP.
func CheckReachability(ctx context.Context, dsn string, timeout time.Duration) (*Reachability, error) {
	host, port, err := dialTarget(dsn)
	if err != nil {
		return nil, err
	}

	result := &Reachability{Host: host, Port: port}

	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return result, err
	}
	result.Addresses = addrs
	if len(addrs) == 0 {
		return result, ErrNoAddress
	}

	result.TriedIP = addrs[0]
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(addrs[0], strconv.Itoa(port)))
	if err != nil {
		return result, err
	}
	_ = conn.Close()

	result.Reachable = true
	return result, nil
}

// dialTarget aceita DSN em formato URL ou chave=valor, como o pool.
func dialTarget(dsn string) (string, int, error) {
	cfg, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return "", 0, err
	}
	if cfg.Host == "" {
		return "", 0, errors.New("DSN sem host")
	}
	if strings.HasPrefix(cfg.Host, "/") {
		return "", 0, errors.New("DSN aponta para socket unix, sem host TCP para sondar")
	}
	port := int(cfg.Port)
	if port == 0 {
		port = 5432
	}
	return cfg.Host, port, nil
}
