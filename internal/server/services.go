package server

import (
	"fmt"
	"log/slog"

	"github.com/sazalo101/mindis/internal/auth"
	"github.com/sazalo101/mindis/internal/completion"
	"github.com/sazalo101/mindis/internal/config"
	"github.com/sazalo101/mindis/internal/history"
	"github.com/sazalo101/mindis/internal/insight"
	"github.com/sazalo101/mindis/internal/models"
	"github.com/sazalo101/mindis/internal/store"
)

// NewChatter returns the offline mock when AI_MOCK is set, the OpenRouter
// client otherwise.
func NewChatter(cfg config.Config, logger *slog.Logger) completion.Chatter {
	if cfg.AIMock {
		return completion.MockClient{}
	}
	return completion.NewOpenRouterClient(cfg, logger)
}

// NewServices wires the domain components over an opened store.
func NewServices(cfg config.Config, st store.Store, chatter completion.Chatter, clock models.Clock, logger *slog.Logger) (Services, error) {
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTIssuer, cfg.TokenTTL(), clock)
	if err != nil {
		return Services{}, fmt.Errorf("token issuer: %w", err)
	}
	repo := history.NewRepository(st)
	completer := completion.NewCompleter(chatter, completion.SiteTimeouts(cfg), logger)

	return Services{
		Users:    auth.NewService(st, auth.NewHasher(auth.DefaultParams), logger),
		Tokens:   tokens,
		History:  repo,
		Insights: insight.NewService(repo, completer, logger),
	}, nil
}
