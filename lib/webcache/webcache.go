// Package webcache is a small badger-backed cache for scrape results
// keyed by a namespace plus a normalized url.
package webcache

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("lib/webcache")

var ErrNotFound = badger.ErrKeyNotFound

type Cache struct {
	db *badger.DB
}

func Open(dir string) (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

func New(db *badger.DB) *Cache {
	return &Cache{db: db}
}

func (c *Cache) Close() error {
	return c.db.Close()
}

type entry struct {
	Contents  []byte
	ExpiresAt int64
}

func key(namespace, link string) (string, error) {
	normalized, err := purell.NormalizeURLString(
		link,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	if err != nil {
		return "", err
	}
	return namespace + ":" + normalized, nil
}

func (c *Cache) Get(ctx context.Context, namespace, link string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "get")
	defer span.End()

	k, err := key(namespace, link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return nil, err
	}
	span.SetAttributes(attribute.String("cache_key", k))

	tx := c.db.NewTransaction(false)
	defer tx.Discard()
	item, err := tx.Get([]byte(k))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return nil, err
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy cached item")
		return nil, err
	}

	var cached entry
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return nil, err
	}

	if time.Now().Unix() >= cached.ExpiresAt {
		span.AddEvent("delete expired cache key", trace.WithAttributes(
			attribute.String("key", k),
		))

		tx := c.db.NewTransaction(true)
		defer tx.Commit()

		err = tx.Delete([]byte(k))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete expired key")
		}
		return nil, ErrNotFound
	}

	return cached.Contents, nil
}

func (c *Cache) Set(ctx context.Context, namespace, link string, contents []byte, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "set")
	defer span.End()

	k, err := key(namespace, link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return err
	}
	span.SetAttributes(attribute.String("cache_key", k))

	serialized := bytes.NewBuffer(nil)
	err = gob.NewEncoder(serialized).Encode(entry{
		Contents:  contents,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize cache entry")
		return err
	}

	tx := c.db.NewTransaction(true)
	err = tx.Set([]byte(k), serialized.Bytes())
	if err != nil {
		tx.Discard()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write cache entry")
		return err
	}
	return tx.Commit()
}
