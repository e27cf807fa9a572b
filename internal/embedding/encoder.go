package embedding

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/deeptech-ai/talent-cli/pkg/jina"
)

// DefaultDimensions matches the 384-dimension sentence embeddings the search
// index is provisioned for.
const DefaultDimensions = 384

// minMeaningfulChars is the threshold below which input is treated as
// degenerate: the encoder returns the zero vector instead of calling the
// model, keeping downstream cosine math well-defined.
const minMeaningfulChars = 10

// maxEncodeChars bounds the text sent to the provider. Longer input is
// truncated before encoding; the leading text carries nearly all of the
// semantic signal for profile documents.
const maxEncodeChars = 8000

// Encoder turns arbitrary text into a fixed-dimension vector.
//
// Encode returns the zero vector (and no error) for empty or near-empty
// input, so "no signal" is always distinguishable from a provider failure,
// which is returned as an error.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// JinaEncoder produces embeddings via the Jina AI embeddings API.
type JinaEncoder struct {
	client jina.Client
	dims   int
}

// NewJinaEncoder wraps a Jina client as an Encoder producing dims-length
// vectors.
func NewJinaEncoder(client jina.Client, dims int) *JinaEncoder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &JinaEncoder{client: client, dims: dims}
}

func (e *JinaEncoder) Dimensions() int { return e.dims }

func (e *JinaEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	text = prepareText(text)
	if text == "" {
		return make([]float32, e.dims), nil
	}

	vectors, err := e.client.Embed(ctx, []string{text})
	if err != nil {
		return nil, eris.Wrap(err, "embedding: encode")
	}
	if len(vectors) != 1 || len(vectors[0]) != e.dims {
		return nil, eris.Errorf("embedding: provider returned %d vectors (want 1 of dim %d)", len(vectors), e.dims)
	}
	return vectors[0], nil
}

// prepareText trims, rejects near-empty input, and truncates oversized input.
// Returns "" when the input carries fewer than minMeaningfulChars
// non-whitespace characters.
func prepareText(text string) string {
	text = strings.TrimSpace(text)
	meaningful := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			meaningful++
			if meaningful >= minMeaningfulChars {
				break
			}
		}
	}
	if meaningful < minMeaningfulChars {
		return ""
	}
	if len(text) > maxEncodeChars {
		// Back off to a rune boundary so the cut never produces invalid UTF-8.
		cut := maxEncodeChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}
