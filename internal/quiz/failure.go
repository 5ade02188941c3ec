package quiz

// Kind classifies why a request failed.
type Kind string

const (
	// KindInput means the uploaded document could not be used.
	KindInput Kind = "input"
	// KindUpstream means a hosted model call failed or timed out.
	KindUpstream Kind = "upstream"
	// KindInternal covers everything else.
	KindInternal Kind = "internal"
)

const (
	stageLoad     = "load"
	stageChunk    = "chunk"
	stageEmbed    = "embed"
	stageIndex    = "index"
	stageGenerate = "generate"
	stageRender   = "render"
	stagePanic    = "panic"
)

// Failure is the error attached to a failed Result.
type Failure struct {
	Kind  Kind
	Stage string
	Err   error
}

func (f *Failure) Error() string { return f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }
