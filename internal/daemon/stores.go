package daemon

import (
	"log/slog"

	"git.home.luguber.info/inful/mdcms/internal/config"
	"git.home.luguber.info/inful/mdcms/internal/forge"
	"git.home.luguber.info/inful/mdcms/internal/gitstore"
	"git.home.luguber.info/inful/mdcms/internal/storage"
)

func newGitHubStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	client, err := forge.NewGitHubClient(forge.Config{
		APIURL:         cfg.Forge.APIURL,
		Owner:          cfg.Forge.Owner,
		Repo:           cfg.Forge.Repo,
		Branch:         cfg.Forge.Branch,
		Token:          cfg.Forge.Token,
		Timeout:        cfg.Forge.Timeout,
		CommitterName:  cfg.Forge.CommitterName,
		CommitterEmail: cfg.Forge.CommitterEmail,
	}, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newGitStore opens a local working tree. Pushes authenticate with the forge
// token so one secret serves both backends.
func newGitStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	store, err := gitstore.Open(cfg.Storage.Root, gitstore.Options{
		Init:         cfg.Storage.Init,
		AuthorName:   cfg.Storage.AuthorName,
		AuthorEmail:  cfg.Storage.AuthorEmail,
		MediaBaseURL: cfg.Storage.MediaBaseURL,
		Push:         cfg.Storage.Push,
		Remote:       cfg.Storage.Remote,
		Token:        cfg.Forge.Token,
	}, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newFSStore(cfg *config.Config) (storage.Store, error) {
	store, err := storage.NewFSStore(cfg.Storage.Root, cfg.Storage.MediaBaseURL)
	if err != nil {
		return nil, err
	}
	return store, nil
}
