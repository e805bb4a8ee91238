package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docask/internal/cache"
	"github.com/xxxsen/docask/internal/citation"
	"github.com/xxxsen/docask/internal/confidence"
	"github.com/xxxsen/docask/internal/model"
	appErr "github.com/xxxsen/docask/internal/pkg/errors"
	"github.com/xxxsen/docask/internal/prompt"
	"github.com/xxxsen/docask/internal/vectorstore"
)

// Embedder is the query-side embedding collaborator.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
	Ping(ctx context.Context) error
}

// Generator is the text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelID() string
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Embedding  string `json:"embedding"`
	Retrieval  string `json:"retrieval"`
	Generation string `json:"generation"`
}

type CacheStats struct {
	Answers  cache.Stats `json:"answers"`
	Searches cache.Stats `json:"searches"`
}

// RAGService runs the query pipeline: embed the question, retrieve ranked
// passages, assemble a bounded cited context, generate, validate citations
// and gate on confidence. Each request runs the stages strictly in order;
// the two caches are the only state shared between requests.
type RAGService struct {
	embedder  Embedder
	store     vectorstore.Store
	assembler *prompt.Assembler
	generator Generator
	evaluator *confidence.Evaluator
	answers   *cache.Cache[*model.Answer]
	searches  *cache.Cache[*model.SearchResult]
}

func NewRAGService(
	embedder Embedder,
	store vectorstore.Store,
	assembler *prompt.Assembler,
	generator Generator,
	evaluator *confidence.Evaluator,
	answers *cache.Cache[*model.Answer],
	searches *cache.Cache[*model.SearchResult],
) *RAGService {
	return &RAGService{
		embedder:  embedder,
		store:     store,
		assembler: assembler,
		generator: generator,
		evaluator: evaluator,
		answers:   answers,
		searches:  searches,
	}
}

// Query answers a question from the corpus. It returns either a complete
// Answer (grounded or the not-found outcome) or a taxonomy error;
// collaborator unavailability is never converted into a not-found Answer.
func (s *RAGService) Query(ctx context.Context, question string, filters map[string]string) (*model.Answer, error) {
	text, err := cleanQuestion(question)
	if err != nil {
		return nil, err
	}
	requestID := newRequestID()
	logger := logutil.GetLogger(ctx).With(zap.String("request_id", requestID))
	start := time.Now()

	fingerprint := cache.Fingerprint(text, filters, vectorstore.DefaultTopK, s.generator.ModelID())
	if s.answers != nil {
		if cached, ok := s.answers.Get(fingerprint); ok {
			logger.Debug("answer cache hit")
			return cached, nil
		}
	}

	vector, err := s.timedEmbed(ctx, logger, text)
	if err != nil {
		return nil, err
	}
	passages, err := s.timedRetrieve(ctx, logger, vector, filters, vectorstore.DefaultTopK)
	if err != nil {
		return nil, err
	}

	pc := s.assembler.Assemble(text, passages)
	answer := &model.Answer{
		RequestID: requestID,
		Citations: []model.Citation{},
	}
	if len(pc.Passages) == 0 {
		answer.Message = confidence.NotFoundMessage
		answer.ProcessingTimeMs = time.Since(start).Milliseconds()
		logger.Info("no passages retrieved", zap.Duration("elapsed", time.Since(start)))
		s.putAnswer(fingerprint, answer)
		return answer, nil
	}

	rawText, err := s.timedGenerate(ctx, logger, s.assembler.Render(pc))
	if err != nil {
		return nil, err
	}

	extracted := citation.Extract(rawText)
	valid, dropped := citation.Validate(extracted, pc)
	for _, d := range dropped {
		logger.Warn("citation validation warning: marker not in context",
			zap.String("marker", d.Raw),
			zap.String("document", d.Document),
			zap.String("section", d.Section),
		)
	}

	cited := citation.CitedPassages(valid, pc)
	score := s.evaluator.Score(cited, passages)
	outcome := s.evaluator.Decide(score, len(valid))

	answer.Confidence = score
	if outcome == confidence.OutcomeAnswered {
		answer.Text = rawText
		answer.Citations = valid
	} else {
		answer.Message = confidence.NotFoundMessage
	}
	answer.ProcessingTimeMs = time.Since(start).Milliseconds()
	logger.Info("query completed",
		zap.Bool("answered", answer.Grounded()),
		zap.Float64("confidence", score),
		zap.Int("retrieved", len(passages)),
		zap.Int("citations", len(valid)),
		zap.Int("dropped_citations", len(dropped)),
		zap.Int64("elapsed_ms", answer.ProcessingTimeMs),
	)
	s.putAnswer(fingerprint, answer)
	return answer, nil
}

// Search runs retrieval only, without generation. Results are cached
// separately from full answers.
func (s *RAGService) Search(ctx context.Context, question string, filters map[string]string, topK int) (*model.SearchResult, error) {
	text, err := cleanQuestion(question)
	if err != nil {
		return nil, err
	}
	topK = vectorstore.ClampTopK(topK)
	logger := logutil.GetLogger(ctx)

	fingerprint := cache.Fingerprint("search:"+text, filters, topK, s.embedder.ModelName())
	if s.searches != nil {
		if cached, ok := s.searches.Get(fingerprint); ok {
			logger.Debug("search cache hit")
			return cached, nil
		}
	}
	vector, err := s.timedEmbed(ctx, logger, text)
	if err != nil {
		return nil, err
	}
	passages, err := s.timedRetrieve(ctx, logger, vector, filters, topK)
	if err != nil {
		return nil, err
	}
	result := &model.SearchResult{Passages: passages}
	if s.searches != nil {
		s.searches.Put(fingerprint, result)
	}
	return result, nil
}

// Health probes each collaborator with a lightweight liveness check, never
// a full pipeline run.
func (s *RAGService) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{Embedding: "up", Retrieval: "up", Generation: "up"}
	if err := s.embedder.Ping(ctx); err != nil {
		status.Embedding = "down"
	}
	if err := s.store.Ping(ctx); err != nil {
		status.Retrieval = "down"
	}
	if err := s.generator.Ping(ctx); err != nil {
		status.Generation = "down"
	}
	return status
}

func (s *RAGService) Stats() CacheStats {
	var st CacheStats
	if s.answers != nil {
		st.Answers = s.answers.Stats()
	}
	if s.searches != nil {
		st.Searches = s.searches.Stats()
	}
	return st
}

func (s *RAGService) putAnswer(fingerprint string, answer *model.Answer) {
	if s.answers != nil {
		s.answers.Put(fingerprint, answer)
	}
}

func (s *RAGService) timedEmbed(ctx context.Context, logger *zap.Logger, text string) ([]float32, error) {
	start := time.Now()
	vector, err := s.embedder.Embed(ctx, text)
	logger.Debug("embedding stage", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
	return vector, err
}

func (s *RAGService) timedRetrieve(ctx context.Context, logger *zap.Logger, vector []float32, filters map[string]string, topK int) ([]model.RetrievedPassage, error) {
	start := time.Now()
	passages, err := s.store.Query(ctx, vector, filters, topK)
	logger.Debug("retrieval stage", zap.Duration("elapsed", time.Since(start)), zap.Int("passages", len(passages)), zap.Error(err))
	return passages, err
}

func (s *RAGService) timedGenerate(ctx context.Context, logger *zap.Logger, renderedPrompt string) (string, error) {
	start := time.Now()
	text, err := s.generator.Generate(ctx, renderedPrompt)
	logger.Debug("generation stage", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
	return text, err
}

func cleanQuestion(question string) (string, error) {
	text := strings.TrimSpace(question)
	n := len([]rune(text))
	if n < model.QueryMinChars || n > model.QueryMaxChars {
		return "", appErr.ErrInvalidQuery
	}
	return text, nil
}

func newRequestID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
