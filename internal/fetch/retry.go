package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// RetryPolicy bounds how long a failing fetch is retried.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// DefaultRetryPolicy retries for up to two minutes.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     15 * time.Second,
		MaxElapsed:      2 * time.Minute,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	if p.MaxElapsed > 0 {
		b.MaxElapsedTime = p.MaxElapsed
	}
	return backoff.WithContext(b, ctx)
}

// Retrying wraps a Fetcher so transient failures are retried. Missing objects
// and cancelled contexts fail immediately.
type Retrying struct {
	next   Fetcher
	policy RetryPolicy
	log    logrus.FieldLogger
}

// NewRetrying wraps next with policy.
func NewRetrying(next Fetcher, policy RetryPolicy, log logrus.FieldLogger) *Retrying {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Retrying{next: next, policy: policy, log: log}
}

func (r *Retrying) Fetch(ctx context.Context, key, dst string) error {
	operation := func() error {
		err := r.next.Fetch(ctx, key, dst)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.log.WithError(err).WithFields(logrus.Fields{
			"key":  key,
			"wait": wait.String(),
		}).Warn("fetch failed, retrying")
	}
	return backoff.RetryNotify(operation, r.policy.backOff(ctx), notify)
}
