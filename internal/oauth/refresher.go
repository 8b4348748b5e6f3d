package oauth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"xplorer/internal/tokenstore"
	"xplorer/pkg/logging"
)

// DefaultRefreshSkew is how long before expiry a token is renewed.
const DefaultRefreshSkew = 60 * time.Second

// refreshTimeout bounds a shared refresh, including the wait for the
// cross-process lock. It does not depend on any single caller's context.
const refreshTimeout = 45 * time.Second

// NeedsRefresh reports whether rec expires within skew of now. Records
// without an expiry never need a refresh.
func NeedsRefresh(rec *tokenstore.Record, now time.Time, skew time.Duration) bool {
	if rec == nil || rec.ExpiresAt == nil {
		return false
	}
	return !now.Add(skew).Before(*rec.ExpiresAt)
}

// Refresher hands out a usable access token, renewing it through the
// refresh token grant when it is about to expire.
//
// Concurrent callers in one process share a single token request. Across
// processes, Store.Update serializes refreshes and the record is checked
// again after the lock is held.
type Refresher struct {
	Store  tokenstore.Store
	Config *oauth2.Config

	// HTTPClient is used for the token request. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Now defaults to time.Now.
	Now func() time.Time

	// Skew defaults to DefaultRefreshSkew.
	Skew time.Duration

	group singleflight.Group
}

// NewRefresher returns a Refresher with default clock and skew.
func NewRefresher(store tokenstore.Store, conf *oauth2.Config) *Refresher {
	return &Refresher{Store: store, Config: conf}
}

// Token returns the stored record, refreshing it first when needed.
//
// A token that is inside the skew window but not yet expired is returned
// as-is when no refresh token is available.
func (r *Refresher) Token(ctx context.Context) (*tokenstore.Record, error) {
	rec, err := r.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNoToken
	}

	now := r.now()
	if !NeedsRefresh(rec, now, r.skew()) {
		return rec, nil
	}
	if !rec.HasRefreshToken() {
		if !now.Before(*rec.ExpiresAt) {
			return nil, ErrNoRefreshToken
		}
		logging.Debug("OAuth", "Token expires in %s and cannot be refreshed, using it as-is", rec.ExpiresAt.Sub(now).Round(time.Second))
		return rec, nil
	}

	return r.refresh(ctx, false)
}

// ForceRefresh renews the token even if it is still valid.
func (r *Refresher) ForceRefresh(ctx context.Context) (*tokenstore.Record, error) {
	return r.refresh(ctx, true)
}

func (r *Refresher) refresh(ctx context.Context, force bool) (*tokenstore.Record, error) {
	key := "refresh"
	if force {
		key = "force-refresh"
	}

	// The flight outlives any one caller: each caller stops waiting when
	// its own ctx ends, the exchange keeps going for the others.
	ch := r.group.DoChan(key, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return r.Store.Update(flightCtx, func(cur *tokenstore.Record) (*tokenstore.Record, error) {
			if cur == nil {
				return nil, ErrNoToken
			}
			now := r.now()
			if !force && !NeedsRefresh(cur, now, r.skew()) {
				logging.Debug("OAuth", "Token was refreshed by another process")
				return cur, nil
			}
			if !cur.HasRefreshToken() {
				if force || cur.ExpiresAt == nil || !now.Before(*cur.ExpiresAt) {
					return nil, ErrNoRefreshToken
				}
				return cur, nil
			}
			return r.exchange(flightCtx, cur)
		})
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logging.Debug("OAuth", "Joined an in-flight token refresh")
		}
		return res.Val.(*tokenstore.Record), nil
	}
}

func (r *Refresher) exchange(ctx context.Context, cur *tokenstore.Record) (*tokenstore.Record, error) {
	if r.Config == nil {
		return nil, errors.New("oauth: refresher has no client configuration")
	}

	src := r.Config.TokenSource(withHTTPClient(ctx, r.HTTPClient), &oauth2.Token{RefreshToken: *cur.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		logging.Audit("OAuth", "token_refresh_failed", slog.String("error", err.Error()))
		return nil, &ExchangeError{Op: "refresh", Err: err}
	}

	next := tokenstore.FromOAuth2Token(tok)
	if next.RefreshToken == nil {
		next.RefreshToken = cur.RefreshToken
	}
	logging.Audit("OAuth", "token_refreshed",
		slog.Bool("refresh_token_rotated", *next.RefreshToken != *cur.RefreshToken),
		slog.Bool("has_expiry", next.ExpiresAt != nil),
	)
	return next, nil
}

func (r *Refresher) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Refresher) skew() time.Duration {
	if r.Skew > 0 {
		return r.Skew
	}
	return DefaultRefreshSkew
}
