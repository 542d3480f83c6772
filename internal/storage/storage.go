// Package storage is the durable key/value store behind the client session.
// Every backend stores plain strings under short keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDriver = errors.New("unknown store driver")

type Store interface {
	// Get returns ok=false when key was never set or has been deleted.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

type Options struct {
	Driver string
	DSN    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Driver) {
	case "sqlite", "postgres":
		return OpenGorm(ctx, strings.ToLower(opts.Driver), opts.DSN)
	case "redis":
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
