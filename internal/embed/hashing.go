package embed

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultHashingDim is the vector width of the offline embedder.
const DefaultHashingDim = 384

var hashTokenRE = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Hashing is a deterministic offline embedder. Each lower-cased word of
// three or more characters, and each adjacent word pair, is hashed into a
// signed bucket; the result is L2-normalised. Texts sharing vocabulary end
// up with positive cosine similarity.
type Hashing struct {
	dim int
}

var _ Embedder = (*Hashing)(nil)

func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultHashingDim
	}
	return &Hashing{dim: dim}
}

// Dim returns the vector width.
func (h *Hashing) Dim() int { return h.dim }

func (h *Hashing) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, h.dim)

	var prev string
	for _, tok := range hashTokenRE.FindAllString(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(tok) < 3 {
			prev = ""
			continue
		}
		h.add(vec, tok, 1)
		if prev != "" {
			h.add(vec, prev+" "+tok, 0.5)
		}
		prev = tok
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, h.dim)
	if norm == 0 {
		return out, nil
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func (h *Hashing) add(vec []float64, feature string, weight float64) {
	hasher := fnv.New64a()
	hasher.Write([]byte(feature))
	sum := hasher.Sum64()
	bucket := int(sum % uint64(h.dim))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[bucket] += weight
}
