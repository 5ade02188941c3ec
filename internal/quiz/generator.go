// Package quiz runs the full pipeline for one uploaded document: extract
// text, chunk it, embed and index the chunks, ask the chat model for a quiz
// and render the result to files.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"pdf-quiz/internal/chromemdb"
	"pdf-quiz/internal/config"
	"pdf-quiz/internal/embedding"
	"pdf-quiz/internal/helper"
	"pdf-quiz/internal/llmservice"
	"pdf-quiz/internal/memory"
	"pdf-quiz/internal/models"
	"pdf-quiz/internal/parser"
	"pdf-quiz/internal/rag"
	"pdf-quiz/internal/render"
)

const errorPrefix = "Error: "

var (
	errNoDocument = errors.New("no document provided")
	errNoText     = errors.New("document contains no extractable text")
)

// Request is one quiz generation request.
type Request struct {
	Document io.ReaderAt
	Size     int64
	Filename string
	Prompt   string
	// SessionID, when set, keeps conversation memory across requests.
	SessionID string
}

// Result is what the user sees. On failure Quiz starts with "Error: " and no
// files are reported.
type Result struct {
	Quiz    string
	PDFPath string
	// Exports maps output format to file path.
	Exports map[string]string
	Failure *Failure
}

type Generator struct {
	cfg       *config.Config
	embedder  embeddings.Embedder
	llm       llms.Model
	renderers []render.Renderer
	sessions  *memory.Store
	opts      llmservice.Options
}

func NewGenerator(cfg *config.Config, embedder embeddings.Embedder, llm llms.Model, renderers []render.Renderer) *Generator {
	g := &Generator{
		cfg:       cfg,
		embedder:  embedder,
		llm:       llm,
		renderers: renderers,
		opts: llmservice.Options{
			Temperature: cfg.ChatLLM.Temperature,
			Timeout:     cfg.ChatLLM.Timeout,
		},
	}
	if cfg.Memory.Sessions {
		g.sessions = memory.NewStore(cfg.Memory.SessionTTL, g.newMemory)
	}
	return g
}

func (g *Generator) newMemory() *memory.SummaryBuffer {
	return memory.NewSummaryBuffer(g.llm, g.cfg.Memory.MaxTokens, g.opts)
}

// GenerateFile runs the pipeline on a PDF on disk.
func (g *Generator) GenerateFile(ctx context.Context, path, prompt, sessionID string) Result {
	f, err := os.Open(path)
	if err != nil {
		return g.fail(log.Logger, &Failure{Kind: KindInput, Stage: stageLoad, Err: err})
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return g.fail(log.Logger, &Failure{Kind: KindInput, Stage: stageLoad, Err: err})
	}
	return g.Generate(ctx, Request{
		Document:  f,
		Size:      info.Size(),
		Filename:  filepath.Base(path),
		Prompt:    prompt,
		SessionID: sessionID,
	})
}

// Generate never panics and never returns an error value; failures are
// reported in the Result.
func (g *Generator) Generate(ctx context.Context, req Request) (res Result) {
	requestID, err := helper.GenerateUUID()
	if err != nil {
		requestID = "unknown"
	}
	logger := log.With().Str("request_id", requestID).Str("file", req.Filename).Logger()

	defer func() {
		if r := recover(); r != nil {
			res = g.fail(logger, &Failure{Kind: KindInternal, Stage: stagePanic, Err: fmt.Errorf("unexpected failure: %v", r)})
		}
	}()

	start := time.Now()
	res, failure := g.run(ctx, logger, requestID, req)
	if failure != nil {
		return g.fail(logger, failure)
	}
	logger.Info().Dur("elapsed", time.Since(start)).Str("pdf", res.PDFPath).Msg("Quiz generated")
	return res
}

func (g *Generator) run(ctx context.Context, logger zerolog.Logger, requestID string, req Request) (Result, *Failure) {
	if req.Document == nil {
		return Result{}, &Failure{Kind: KindInput, Stage: stageLoad, Err: errNoDocument}
	}

	text, err := parser.LoadPDF(req.Document, req.Size, g.cfg.RAG.MaxPages)
	if err != nil {
		return Result{}, &Failure{Kind: KindInput, Stage: stageLoad, Err: err}
	}
	logger.Debug().Int("characters", len(text)).Msg("Extracted text")

	chunks, err := parser.SplitText(text, g.cfg.RAG)
	if err != nil {
		return Result{}, &Failure{Kind: KindInternal, Stage: stageChunk, Err: err}
	}
	if len(chunks) == 0 {
		return Result{}, &Failure{Kind: KindInput, Stage: stageChunk, Err: errNoText}
	}
	logger.Debug().Int("chunks", len(chunks)).Msg("Split text")

	items, err := embedding.EmbedChunks(ctx, g.embedder, req.Filename, chunks)
	if err != nil {
		return Result{}, &Failure{Kind: KindUpstream, Stage: stageEmbed, Err: err}
	}

	index, err := chromemdb.NewIndex(ctx, "quiz-"+requestID, g.embedder, items)
	if err != nil {
		return Result{}, &Failure{Kind: KindInternal, Stage: stageIndex, Err: err}
	}

	chain := rag.NewChain(g.llm, index.Retriever(g.cfg.RAG.TopK), g.memoryFor(req.SessionID), g.opts)
	quizText, err := chain.Run(ctx, models.QuizInstructionPrefix+req.Prompt)
	if err != nil {
		return Result{}, &Failure{Kind: KindUpstream, Stage: stageGenerate, Err: err}
	}

	res := Result{Quiz: quizText, Exports: make(map[string]string, len(g.renderers))}
	for _, r := range g.renderers {
		path, err := r.Render(quizText)
		if err != nil {
			return Result{}, &Failure{Kind: KindInternal, Stage: stageRender, Err: fmt.Errorf("render %s: %w", r.Format(), err)}
		}
		res.Exports[r.Format()] = path
		if r.Format() == config.FormatPDF {
			res.PDFPath = path
		}
	}
	return res, nil
}

// memoryFor returns the session buffer, or a fresh one when there is no session.
func (g *Generator) memoryFor(sessionID string) *memory.SummaryBuffer {
	if sessionID == "" || g.sessions == nil {
		return g.newMemory()
	}
	return g.sessions.Get(sessionID)
}

func (g *Generator) fail(logger zerolog.Logger, f *Failure) Result {
	logger.Error().Err(f.Err).Str("kind", string(f.Kind)).Str("stage", f.Stage).Msg("Quiz generation failed")
	return Result{Quiz: errorPrefix + f.Error(), Failure: f}
}
