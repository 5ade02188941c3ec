package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
)

const maxAttempts = 2

// retryingEmbedder bounds each upstream call with a timeout and retries a
// failed call once. Embedding the same text is idempotent, so a retry never
// changes the result.
type retryingEmbedder struct {
	next    embeddings.Embedder
	timeout time.Duration
	backoff time.Duration
}

// WithRetry wraps next. A zero timeout leaves calls bounded only by the
// caller's context.
func WithRetry(next embeddings.Embedder, timeout, backoff time.Duration) embeddings.Embedder {
	return &retryingEmbedder{next: next, timeout: timeout, backoff: backoff}
}

func (r *retryingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return withRetry(ctx, r, "embed_documents", func(ctx context.Context) ([][]float32, error) {
		return r.next.EmbedDocuments(ctx, texts)
	})
}

func (r *retryingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return withRetry(ctx, r, "embed_query", func(ctx context.Context) ([]float32, error) {
		return r.next.EmbedQuery(ctx, text)
	})
}

func withRetry[T any](ctx context.Context, r *retryingEmbedder, op string, call func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			log.Warn().Err(lastErr).Str("op", op).Dur("backoff", r.backoff).Msg("Retrying embedding call")
			select {
			case <-time.After(r.backoff):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if r.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		}
		v, err := call(callCtx)
		cancel()
		if err == nil {
			return v, nil
		}
		lastErr = err

		// the caller gave up, a retry cannot succeed
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s failed after %d attempt(s): %w", op, attempt, lastErr)
		}
	}
	return zero, fmt.Errorf("%s failed after %d attempt(s): %w", op, maxAttempts, lastErr)
}
