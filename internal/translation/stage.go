package translation

import (
	"context"
	"encoding/json"
	"log/slog"

	"vidlingo/internal/artifacts"
	"vidlingo/internal/job"
	"vidlingo/internal/language"
	"vidlingo/internal/logging"
	"vidlingo/internal/services"
)

// Translator is the text translation delegate.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string, target string) ([]string, error)
	TranslateOne(ctx context.Context, text, target, kind string) (string, error)
}

// Metadata holds translated publish metadata.
type Metadata struct {
	Title       string
	Description string
}

// Stage translates transcripts and metadata.
type Stage struct {
	store      artifacts.Store
	translator Translator
	logger     *slog.Logger
}

// NewStage constructs the translation stage.
func NewStage(store artifacts.Store, translator Translator, logger *slog.Logger) *Stage {
	return &Stage{
		store:      store,
		translator: translator,
		logger:     logging.NewComponentLogger(logger, "translation"),
	}
}

// TranslateTranscript returns the translated transcript for videoID in lang,
// loading the cached artifact when one exists.
func (s *Stage) TranslateTranscript(ctx context.Context, videoID string, lang language.Language, parts []job.TranscriptPart) ([]job.TranslatedPart, error) {
	if s == nil || s.store == nil || s.translator == nil {
		return nil, services.Wrap(services.ErrConfiguration, "translate", "transcript", "translation stage is not configured", nil)
	}
	logger := logging.WithContext(ctx, s.logger).With(
		logging.String(logging.FieldVideoID, videoID),
		logging.String(logging.FieldLanguage, lang.String()),
	)
	key := artifacts.TranscriptKey(videoID, lang)

	cached, err := s.store.Has(ctx, key)
	if err != nil {
		return nil, services.Wrap(services.ErrDelegate, "translate", "cache lookup", key.String(), err)
	}
	if cached {
		translated, err := s.load(ctx, key)
		if err != nil {
			return nil, err
		}
		logger.Info("translated transcript loaded from cache",
			logging.String(logging.FieldEventType, "translation_cache_hit"),
			logging.Int("parts", len(translated)),
		)
		return translated, nil
	}

	translations, err := s.translator.TranslateBatch(ctx, job.Texts(parts), lang.String())
	if err != nil {
		return nil, err
	}
	translated, err := job.Zip(parts, translations)
	if err != nil {
		logger.Warn("translator reply does not match transcript",
			logging.String(logging.FieldEventType, "translation_contract_violation"),
			logging.Int("parts", len(parts)),
			logging.Int("translations", len(translations)),
		)
		return nil, err
	}
	payload, err := json.Marshal(translated)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "translate", "encode", key.String(), err)
	}
	if err := s.store.Write(ctx, key, payload); err != nil {
		return nil, services.Wrap(services.ErrDelegate, "translate", "persist", key.String(), err)
	}
	logger.Info("translated transcript stored",
		logging.String(logging.FieldEventType, "translation_stored"),
		logging.Int("parts", len(translated)),
	)
	return translated, nil
}

func (s *Stage) load(ctx context.Context, key artifacts.Key) ([]job.TranslatedPart, error) {
	data, err := s.store.Read(ctx, key)
	if err != nil {
		return nil, services.Wrap(services.ErrDelegate, "translate", "cache read", key.String(), err)
	}
	var translated []job.TranslatedPart
	if err := json.Unmarshal(data, &translated); err != nil {
		return nil, services.Wrap(services.ErrContractViolation, "translate", "cache decode", key.String(), err)
	}
	return translated, nil
}

// TranslateMetadata translates title and description with two independent
// delegate calls. Results are not cached.
func (s *Stage) TranslateMetadata(ctx context.Context, lang language.Language, title, description string) (Metadata, error) {
	if s == nil || s.translator == nil {
		return Metadata{}, services.Wrap(services.ErrConfiguration, "metadata", "translate", "translation stage is not configured", nil)
	}
	translatedTitle, err := s.translator.TranslateOne(ctx, title, lang.String(), "title")
	if err != nil {
		return Metadata{}, err
	}
	translatedDescription, err := s.translator.TranslateOne(ctx, description, lang.String(), "description")
	if err != nil {
		return Metadata{}, err
	}
	if translatedTitle == "" {
		translatedTitle = title
	}
	logging.WithContext(ctx, s.logger).Info("metadata translated",
		logging.String(logging.FieldLanguage, lang.String()),
		logging.String("title", translatedTitle),
	)
	return Metadata{Title: translatedTitle, Description: translatedDescription}, nil
}
