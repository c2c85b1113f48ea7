package service

import (
	"context"
	"strings"

	"github.com/homepanel/api/internal/client"
	"github.com/homepanel/api/internal/jobstore"
	"github.com/homepanel/api/internal/model"
	"github.com/sirupsen/logrus"
)

// ModelLister lists models of an LLM provider
type ModelLister interface {
	ListModels(ctx context.Context) ([]client.ModelInfo, error)
	IsConfigured() bool
}

// fallbackModels is served when no provider is configured or it is unreachable
var fallbackModels = []model.LLMModel{
	{ID: "gpt-4o", OwnedBy: "openai"},
	{ID: "gpt-4o-mini", OwnedBy: "openai"},
	{ID: "claude-sonnet", OwnedBy: "anthropic"},
	{ID: "llama-3.3-70b-versatile", OwnedBy: "meta"},
}

// ModelService builds the model picker catalogue
type ModelService struct {
	lister ModelLister
	log    logrus.FieldLogger
}

// NewModelService creates a model service. lister may be nil.
func NewModelService(lister ModelLister, log logrus.FieldLogger) *ModelService {
	return &ModelService{
		lister: lister,
		log:    log.WithField("component", "models"),
	}
}

// ListModels returns models assignable to jobs. Identifiers reserved for
// code jobs are never offered.
func (s *ModelService) ListModels(ctx context.Context) (*model.LLMModelListResponse, error) {
	if s.lister == nil || !s.lister.IsConfigured() {
		return &model.LLMModelListResponse{Models: fallbackModels, Source: "fallback"}, nil
	}

	infos, err := s.lister.ListModels(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Model catalogue unavailable, using fallback list")
		return &model.LLMModelListResponse{Models: fallbackModels, Source: "fallback"}, nil
	}

	models := make([]model.LLMModel, 0, len(infos))
	for _, info := range infos {
		if info.ID == "" || strings.HasPrefix(info.ID, jobstore.CodeModelPrefix) {
			continue
		}
		models = append(models, model.LLMModel{
			ID:      info.ID,
			OwnedBy: info.OwnedBy,
			Created: info.Created,
		})
	}

	return &model.LLMModelListResponse{Models: models, Source: "remote"}, nil
}
