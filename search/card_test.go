package search

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCard_Unfold(t *testing.T) {
	for _, tc := range []struct {
		name    string
		in      string
		want    string
		removed int
	}{
		{
			name: "empty",
		},
		{
			name: "no-folds",
			in:   "BEGIN:VCARD\r\nFN:Alice\r\nEND:VCARD\r\n",
			want: "BEGIN:VCARD\r\nFN:Alice\r\nEND:VCARD\r\n",
		},
		{
			name:    "space",
			in:      "ADR:123 Main\r\n  St\r\n",
			want:    "ADR:123 Main St\r\n",
			removed: 3,
		},
		{
			name:    "tab",
			in:      "NOTE:This is a lo\r\n\tng line\r\n",
			want:    "NOTE:This is a long line\r\n",
			removed: 3,
		},
		{
			name:    "multiple",
			in:      "EMAIL:al\r\n ice@ex\r\n ample.com\r\nFN:Al\r\n\tice\r\n",
			want:    "EMAIL:alice@example.com\r\nFN:Alice\r\n",
			removed: 9,
		},
		{
			name:    "only-one-whitespace",
			in:      "FN:A\r\n \tB",
			want:    "FN:A\tB",
			removed: 3,
		},
		{
			name: "bare-newlines",
			in:   "FN:A\n B\r C\r\n",
			want: "FN:A\n B\r C\r\n",
		},
		{
			name:    "uncovered-fold",
			in:      "FN:A\r\n\r\n  B",
			want:    "FN:AB",
			removed: 6,
		},
		{
			name:    "trailing-nul",
			in:      "FN:A\r\n B\x00",
			want:    "FN:AB\x00",
			removed: 3,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			card := NewCard([]byte(tc.in))
			removed := card.Unfold()
			assert.Equal(t, tc.want, card.String())
			assert.Equal(t, tc.removed, removed)
			assert.Equal(t, len(tc.in)-removed, card.Len())
		})
	}
}

func TestCard_Unfold_idempotent(t *testing.T) {
	alphabet := []byte("ab\r\n \t")
	rnd := rand.New(rand.NewSource(6350))

	for i := 0; i < 2000; i++ {
		in := make([]byte, rnd.Intn(32))
		for j := range in {
			in[j] = alphabet[rnd.Intn(len(alphabet))]
		}

		card := NewCard(in)
		removed := card.Unfold()
		once := bytes.Clone(card.Bytes())

		require.Zero(t, removed%3, "input %q", in)
		require.Equal(t, len(in)-removed, len(once), "input %q", in)
		require.NotContains(t, string(once), "\r\n ", "input %q", in)
		require.NotContains(t, string(once), "\r\n\t", "input %q", in)

		require.Zero(t, card.Unfold(), "input %q", in)
		require.Equal(t, once, card.Bytes(), "input %q", in)
	}
}

func TestCard_Unfold_refold(t *testing.T) {
	line := "ADR;TYPE=home:;;123 Main Street;Springfield;IL;62701;USA"
	var folded []byte
	for i := 0; i < len(line); i += 10 {
		if i > 0 {
			folded = append(folded, "\r\n "...)
		}
		end := i + 10
		if end > len(line) {
			end = len(line)
		}
		folded = append(folded, line[i:end]...)
	}
	folded = append(folded, "\r\n"...)

	card := NewCard(folded)
	removed := card.Unfold()
	assert.Equal(t, line+"\r\n", card.String())
	assert.Equal(t, 3*((len(line)-1)/10), removed)
}

func TestNewCard_copies(t *testing.T) {
	in := []byte("FN:A\r\n B")
	card := NewCard(in)
	card.Unfold()
	assert.Equal(t, "FN:A\r\n B", string(in))
	assert.Equal(t, "FN:AB", card.String())
	assert.Equal(t, "AB", card.Slice(3, 5))
}
