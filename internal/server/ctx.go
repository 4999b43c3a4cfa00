package server

import (
	"bytes"
	"image"
	"os"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"

	"github.com/mapsketch/mapsketch/assets"
	"github.com/mapsketch/mapsketch/internal/config"
	"github.com/mapsketch/mapsketch/internal/search"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config          *config.Config
	IndexHTML       []byte
	TransparentTile []byte
	Sessions        *Registry
	Searcher        *search.Client
}

// NewServerContext initializes the context, validates the configured
// basemaps and prepares the shared assets.
func NewServerContext(cfg *config.Config) *ServerContext {
	log.Info().Int("config_basemaps_count", len(cfg.Basemaps)).Msg("Initializing server context")

	validBasemaps := make([]config.Basemap, 0, len(cfg.Basemaps))
	for i := range cfg.Basemaps {
		b := &cfg.Basemaps[i]

		if b.TilesDir != "" {
			if _, err := os.Stat(b.TilesDir); os.IsNotExist(err) {
				log.Warn().
					Str("basemap", b.Name).
					Str("path", b.TilesDir).
					Msg("Local tile directory not found, falling back to remote URL")
				b.TilesDir = ""
				b.Local = false
			} else {
				log.Trace().
					Str("basemap", b.Name).
					Msg("Local tile directory found")
			}
		}

		if b.TilesDir == "" && b.URL == "" {
			log.Warn().
				Str("basemap", b.Name).
				Msg("Skipping basemap: neither tile directory nor URL configured")
			continue
		}

		log.Debug().
			Str("basemap", b.Name).
			Bool("local", b.Local).
			Msg("Basemap validated and added to context")

		validBasemaps = append(validBasemaps, *b)
	}

	cfg.Basemaps = validBasemaps

	log.Info().
		Int("valid_basemaps_count", len(cfg.Basemaps)).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:          cfg,
		IndexHTML:       assets.Index,
		TransparentTile: transparentTile(),
		Sessions:        NewRegistry(cfg),
		Searcher:        search.New(cfg.Search),
	}
}

// transparentTile encodes the 256px transparent webp served where a basemap
// has no tile.
func transparentTile() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
		log.Error().Err(err).Msg("Failed to encode transparent tile")
		return nil
	}

	return buf.Bytes()
}
