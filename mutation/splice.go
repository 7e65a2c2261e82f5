package mutation

import "context"

// ZWNJ is the zero-width non-joiner used to glue Persian word parts.
const ZWNJ = "\u200c"

// Splice is an offline Mutation Service. It joins the first half of a's runes
// to the second half of b's runes with a zero-width non-joiner. It needs no
// network access and is deterministic.
type Splice struct{}

// Mutate implements Service.
func (Splice) Mutate(ctx context.Context, a, b string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ra, rb := []rune(a), []rune(b)
	head := ra[:(len(ra)+1)/2]
	tail := rb[len(rb)/2:]

	out := string(head)
	if len(head) > 0 && len(tail) > 0 {
		out += ZWNJ
	}
	out += string(tail)

	if out == "" {
		return "", ErrEmptyResult
	}
	return out, nil
}
