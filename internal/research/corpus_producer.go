package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/YashGondaliya36/Agentic-AI/internal/corpus"
	"github.com/YashGondaliya36/Agentic-AI/internal/loop"
)

// corpusBaseHits is the number of documents pulled on the first attempt.
// Each retry widens the search so the next draft has more material.
const corpusBaseHits = 5

// CorpusProducer drafts notes from a local document corpus instead of a
// model. Useful offline, and as grounding material when chained ahead of
// the model-backed producer.
type CorpusProducer struct {
	Index *corpus.Index
}

// NewCorpusProducer creates a producer over an opened corpus index.
func NewCorpusProducer(index *corpus.Index) *CorpusProducer {
	return &CorpusProducer{Index: index}
}

// Produce implements loop.Producer. Attempt number widens the result set:
// earlier attempts that scored low usually mean too little material, not
// the wrong material.
func (p *CorpusProducer) Produce(ctx context.Context, subject string, prior []loop.Artifact) (loop.Artifact, error) {
	k := corpusBaseHits * (len(prior) + 1)

	hits, err := p.Index.Search(ctx, subject, k)
	if err != nil {
		return loop.Artifact{}, fmt.Errorf("corpus search: %w", err)
	}
	if len(hits) == 0 {
		return loop.Artifact{}, fmt.Errorf("no corpus documents match %q", subject)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Notes on %q from the local corpus:\n", subject)
	for _, h := range hits {
		title := h.Title
		if title == "" {
			title = h.Path
		}
		fmt.Fprintf(&b, "\n## %s (%s)\n%s\n", title, h.Path, h.Excerpt)
	}
	return loop.Artifact{Payload: b.String()}, nil
}
