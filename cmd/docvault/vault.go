package main

import (
	"fmt"
	"log/slog"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/content"
	"github.com/docvault/docvault/internal/facade"
	"github.com/docvault/docvault/internal/storage"
)

// openVault opens the store under the configured data dir and wraps it in a
// facade. The returned close func releases the store.
func openVault(c config.Config) (*facade.Facade, *storage.Store, func(), error) {
	store, err := storage.Open(c.Storage.DataDir, storage.WithTimeout(c.StorageTimeout()))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening storage: %w", err)
	}

	opts := facade.Options{
		Jobs:   store,
		Logger: slog.Default(),
	}
	if c.Content.SanitizeHTML {
		opts.Sanitizer = content.NewSanitizer()
	}

	closeFn := func() {
		if err := store.Close(); err != nil {
			printWarning("closing storage: %v", err)
		}
	}
	return facade.New(store, opts), store, closeFn, nil
}

// withVault runs fn against a freshly opened vault.
func withVault(fn func(v *facade.Facade) error) error {
	v, _, closeFn, err := openVault(cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(v)
}

// emit prints a successful envelope's data or returns its error.
func emit[T any](env facade.Envelope[T]) error {
	if err := env.Err(); err != nil {
		return err
	}
	return printValue(env.Data)
}
