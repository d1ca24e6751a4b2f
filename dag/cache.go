package dag

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mediakit/mediakit/media"
)

// CachingBuilder memoizes parsed pipeline specs. Batch drivers rebuild
// the same spec for every input file; the memo makes that free. Specs
// are immutable, so sharing one instance across calls is safe — but a
// spec must still be owned by one execution at a time, which the
// scheduler guarantees by never storing run state on the spec.
type CachingBuilder struct {
	builder *Builder
	memo    *lru.Cache[string, *PipelineSpec]
}

// NewCachingBuilder wraps a Builder with an LRU memo of the given size.
func NewCachingBuilder(builder *Builder, size int) (*CachingBuilder, error) {
	if size <= 0 {
		size = 128
	}
	memo, err := lru.New[string, *PipelineSpec](size)
	if err != nil {
		return nil, fmt.Errorf("dag: creating spec memo: %w", err)
	}
	return &CachingBuilder{builder: builder, memo: memo}, nil
}

// Build returns a memoized spec when available, otherwise delegates to
// the underlying Builder. Build errors are not memoized.
func (c *CachingBuilder) Build(text string, inputKind media.Kind) (*PipelineSpec, error) {
	key := string(inputKind) + "|" + text
	if spec, ok := c.memo.Get(key); ok {
		return spec, nil
	}
	spec, err := c.builder.Build(text, inputKind)
	if err != nil {
		return nil, err
	}
	c.memo.Add(key, spec)
	return spec, nil
}

// Purge drops all memoized specs, for use after registry changes.
func (c *CachingBuilder) Purge() {
	c.memo.Purge()
}
