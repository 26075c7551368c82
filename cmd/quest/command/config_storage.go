package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/sandbox"
	"github.com/pixil98/go-quest/internal/storage"
)

type StorageConfig struct {
	Areas AssetConfig[*game.Area] `json:"areas"`

	// Characters is only used by the sandbox service.
	Characters AssetConfig[*sandbox.Record] `json:"characters"`
}

func (c *StorageConfig) validate(sandboxEnabled bool) error {
	el := errors.NewErrorList()
	el.Add(c.Areas.validate("areas", true))
	if sandboxEnabled {
		el.Add(c.Characters.validate("characters", false))
	}
	return el.Err()
}

// buildAtlas loads every area and resolves their exits around hub.
func (c *StorageConfig) buildAtlas(hub string) (*game.Atlas, error) {
	areas, err := c.Areas.buildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating area store: %w", err)
	}

	atlas, err := game.NewAtlas(areas, storage.Identifier(hub))
	if err != nil {
		return nil, fmt.Errorf("resolving areas: %w", err)
	}
	return atlas, nil
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

// validate checks the path is set. When mustExist is false the directory
// is created on first use.
func (c *AssetConfig[T]) validate(name string, mustExist bool) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	if !mustExist {
		return nil
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) buildFileStore(opts ...storage.FileStoreOpt) (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path, opts...)
}
