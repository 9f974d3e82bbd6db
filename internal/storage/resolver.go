package storage

import (
	"context"
	"errors"
	"time"

	"github.com/andreasstove999/storefront-go/internal/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrNoSigner is returned when object storage is not configured.
var ErrNoSigner = errors.New("object storage not configured")

// Resolver signs image paths for display. Signing goes through a circuit
// breaker and degrades to the raw path on any failure.
type Resolver struct {
	signer Signer
	cb     *gobreaker.CircuitBreaker
	log    *zap.Logger
}

// NewResolver builds a Resolver. A nil signer makes every path resolve to
// itself.
func NewResolver(signer Signer, log *zap.Logger) *Resolver {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "storage-signer",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Resolver{signer: signer, cb: cb, log: log}
}

// Sign returns a signed URL for path or the signing error.
func (r *Resolver) Sign(ctx context.Context, path string) (string, error) {
	if r.signer == nil {
		return "", ErrNoSigner
	}
	return executeWithBreaker(r.cb, func() (string, error) {
		return r.signer.Sign(ctx, path)
	})
}

// Resolve returns a signed URL for path, or path itself when signing fails.
func (r *Resolver) Resolve(ctx context.Context, path string) string {
	if path == "" || r.signer == nil {
		return path
	}
	signed, err := r.Sign(ctx, path)
	if err != nil {
		logger.Warn(ctx, r.log, "image signing failed, using raw path", zap.String("path", path), zap.Error(err))
		return path
	}
	return signed
}

func executeWithBreaker[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return *new(T), err
	}
	return res.(T), nil
}
