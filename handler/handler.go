package handler

import (
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/julianlk522/snapsquare/config"
	util "github.com/julianlk522/snapsquare/handler/util"
	"github.com/julianlk522/snapsquare/store"
	"github.com/julianlk522/snapsquare/view"
)

// Handler serves the views, uploads and downloads for one deployment
// profile. Everything it needs comes from the Config it was built with.
type Handler struct {
	cfg       *config.Config
	store     *store.Store
	processor util.ImgProcessor
	views     *view.Views
}

// New creates the upload dir on fs if absent and parses the page templates.
func New(cfg *config.Config, fs afero.Fs) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s, err := store.New(fs, cfg.Upload.Dir)
	if err != nil {
		return nil, err
	}

	pages := []view.Page{view.HOME, view.CAPTURE}
	if cfg.Views.Results {
		pages = append(pages, view.RESULTS)
	}
	views, err := view.New(
		view.PageData{
			AllowedExtensions: cfg.Upload.AllowedExtensions,
			MaxUploadSize:     humanize.IBytes(uint64(cfg.Upload.MaxBytes)),
			ResultsEnabled:    cfg.Views.Results,
		},
		pages...,
	)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("profile", cfg.Profile).
		Str("upload_dir", cfg.Upload.Dir).
		Int("image_size", cfg.Image.Size).
		Bool("results", cfg.Views.Results).
		Msg("handler ready")

	return &Handler{
		cfg:       cfg,
		store:     s,
		processor: util.NewImgProcessor(cfg),
		views:     views,
	}, nil
}
