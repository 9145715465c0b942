// Package rulewatch hot-reloads compiled rules from etcd: rule sources
// change out from under a running engine, and Watcher.Run keeps the
// compiled table in step without a restart.
package rulewatch

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/ruleguard/ruleguard/engine"
	"github.com/ruleguard/ruleguard/rules"
	"github.com/ruleguard/ruleguard/store/rulecache"
)

// Watcher keeps an engine's compiled table synchronized with a prefix of
// keys in etcd, one key per collection.
type Watcher struct {
	client *etcd.Client
	prefix string
	engine *engine.Engine
	cache  *rulecache.Cache
	log    zerolog.Logger
}

// New builds a Watcher bound to a live etcd client and target engine.
func New(client *etcd.Client, prefix string, eng *engine.Engine, cache *rulecache.Cache, log zerolog.Logger) *Watcher {
	return &Watcher{client: client, prefix: prefix, engine: eng, cache: cache, log: log}
}

// InitialLoad reads every key under prefix once and installs it into the
// engine before Run starts watching for subsequent changes.
func (w *Watcher) InitialLoad(ctx context.Context) error {
	resp, err := w.client.Get(ctx, w.prefix, etcd.WithPrefix())
	if err != nil {
		return err
	}
	for _, kv := range resp.Kvs {
		w.apply(kv.Key, kv.Value)
	}
	return nil
}

// Run watches for changes until ctx is cancelled. It is meant to be
// launched with `go watcher.Run(ctx)`.
func (w *Watcher) Run(ctx context.Context) {
	watchChan := w.client.Watch(ctx, w.prefix, etcd.WithPrefix())
	for {
		select {
		case <-ctx.Done():
			return
		case resp, ok := <-watchChan:
			if !ok {
				return
			}
			for _, ev := range resp.Events {
				switch ev.Type {
				case etcd.EventTypePut:
					w.apply(ev.Kv.Key, ev.Kv.Value)
				case etcd.EventTypeDelete:
					// Collection removal has no defined engine semantics
					// (the compiled table only supports add/set); log and
					// leave the stale collection's rules in place rather
					// than guessing at delete behavior.
					w.log.Warn().Str("key", string(ev.Kv.Key)).Msg("rulewatch: ignoring delete, no collection removal in engine")
				}
			}
		}
	}
}

func (w *Watcher) apply(key, value []byte) {
	collection := collectionFromKey(string(key), w.prefix)
	if collection == "" {
		return
	}
	if w.cache != nil && w.cache.Seen(collection, value) {
		return
	}

	raw, err := rules.Decode(value)
	if err != nil {
		w.log.Error().Err(err).Str("collection", collection).Msg("rulewatch: decode failed")
		return
	}

	if err := w.engine.Set(collection, raw); err != nil {
		w.log.Error().Err(err).Str("collection", collection).Msg("rulewatch: compile failed")
	}
}

func collectionFromKey(key, prefix string) string {
	trimmed := strings.TrimPrefix(key, prefix)
	return strings.TrimPrefix(trimmed, "/")
}
