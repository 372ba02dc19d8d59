package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/quire/internal/blob"
	"github.com/dyluth/quire/internal/printer"
	"github.com/dyluth/quire/internal/repository"
	"github.com/dyluth/quire/internal/resolver"
	"github.com/dyluth/quire/internal/store"
	"github.com/dyluth/quire/pkg/codec"
	"github.com/dyluth/quire/pkg/datatype"
	"github.com/dyluth/quire/pkg/identifier"
)

// newCodec builds the codec for the configured attribute schema.
func newCodec() (*codec.Codec, error) {
	s, err := settings.Schema()
	if err != nil {
		return nil, fmt.Errorf("failed to build attribute schema: %w", err)
	}
	return codec.New(s), nil
}

// connectStore opens the document store and verifies connectivity.
func connectStore(ctx context.Context) (*store.Client, error) {
	client, err := store.NewClientFromURL(settings.Redis.URL, settings.Namespace)
	if err != nil {
		return nil, printer.Error("invalid Redis URL", err.Error(), []string{"Set redis.url in quire.yml, QUIRE_REDIS_URL or --redis-url"})
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", settings.Redis.URL),
			map[string]string{"Error": err.Error()},
			[]string{
				"Start Redis locally:\n  docker run -p 6379:6379 redis:7-alpine",
				"Point quire at another server:\n  quire --redis-url redis://host:6379/0 ...",
			},
		)
	}
	return client, nil
}

// openRepository connects to the store and builds a repository with an
// allocator bounded by the configured ranges.
func openRepository(ctx context.Context) (*repository.Repository, *store.Client, error) {
	client, err := connectStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	c, err := newCodec()
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	allocator, err := identifier.NewAllocator(settings.Identifiers.Shards, settings.Identifiers.EntityTypes, client)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	repo := repository.New(client, c,
		repository.WithAllocator(allocator),
		repository.WithMaxRetries(*settings.Store.MaxMergeRetries),
	)
	return repo, client, nil
}

// openBlobs returns the configured blob store.
func openBlobs() (*blob.FSStore, error) {
	return blob.NewFSStore(fsys, settings.Blob.Root, settings.Blob.BaseURL)
}

// resolveID expands a possibly abbreviated identifier, printing friendly
// errors for unknown and ambiguous prefixes.
func resolveID(ctx context.Context, client *store.Client, shortID string) (identifier.Identifier, error) {
	full, err := resolver.ResolveEntityID(ctx, client, shortID)
	if err != nil {
		if resolver.IsNotFoundError(err) {
			return identifier.Identifier{}, printer.Error(
				fmt.Sprintf("entity '%s' not found", shortID),
				fmt.Sprintf("No stored entity in namespace '%s' matches this identifier.", settings.Namespace),
				[]string{"List stored entities:\n  quire list"},
			)
		}
		if ambiguous, ok := err.(*resolver.AmbiguousError); ok {
			fmt.Fprintln(printer.ErrOut, resolver.FormatAmbiguousError(ambiguous))
			return identifier.Identifier{}, &printer.ReportedError{Title: "ambiguous short ID"}
		}
		return identifier.Identifier{}, err
	}
	return identifier.Parse(full)
}

// languageFor picks the language an attribute is written in: the flag value,
// else the configured default for language-bearing attributes, else the
// wildcard.
func languageFor(c *codec.Codec, attr, flag string) (datatype.Lang, error) {
	kind, err := c.Schema().TypeFor(attr)
	if err != nil {
		return "", err
	}
	if !kind.LanguageBearing() {
		return "", nil
	}
	if flag == "" {
		flag = settings.Languages.Default
	}
	return datatype.ParseLang(flag)
}
