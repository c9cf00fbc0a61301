package gambit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedGame is returned when an NFG file cannot be read back.
var ErrMalformedGame = errors.New("malformed NFG file")

// Header is the prologue of an NFG file: the game title, the player labels
// and every player's strategy labels in catalogue order.
type Header struct {
	GameName   string
	Players    []string
	Strategies [][]string
}

// CatalogueSizes returns the number of strategies listed for each player.
func (h *Header) CatalogueSizes() []int {
	sizes := make([]int, len(h.Strategies))
	for i, s := range h.Strategies {
		sizes[i] = len(s)
	}
	return sizes
}

type token struct {
	text   string
	quoted bool
}

type tokenizer struct {
	r *bufio.Reader
}

func (t *tokenizer) next() (token, error) {
	for {
		c, err := t.r.ReadByte()
		if err != nil {
			return token{}, err
		}
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			continue
		case c == '{' || c == '}':
			return token{text: string(c)}, nil
		case c == '"':
			s, err := t.r.ReadString('"')
			if err != nil {
				return token{}, fmt.Errorf("unterminated label: %w", ErrMalformedGame)
			}
			return token{text: strings.TrimSuffix(s, `"`), quoted: true}, nil
		default:
			var sb strings.Builder
			sb.WriteByte(c)
			for {
				c, err := t.r.ReadByte()
				if err == io.EOF {
					return token{text: sb.String()}, nil
				}
				if err != nil {
					return token{}, err
				}
				if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '{' || c == '}' || c == '"' {
					t.r.UnreadByte()
					return token{text: sb.String()}, nil
				}
				sb.WriteByte(c)
			}
		}
	}
}

func (t *tokenizer) expect(text string) error {
	tok, err := t.next()
	if err != nil {
		return fmt.Errorf("expected %q: %w", text, ErrMalformedGame)
	}
	if tok.quoted || tok.text != text {
		return fmt.Errorf("expected %q, found %q: %w", text, tok.text, ErrMalformedGame)
	}
	return nil
}

// labels reads quoted labels up to the closing brace of the current list.
func (t *tokenizer) labels() ([]string, error) {
	var out []string
	for {
		tok, err := t.next()
		if err != nil {
			return nil, fmt.Errorf("unterminated list: %w", ErrMalformedGame)
		}
		if !tok.quoted && tok.text == "}" {
			return out, nil
		}
		if !tok.quoted {
			return nil, fmt.Errorf("unexpected %q in label list: %w", tok.text, ErrMalformedGame)
		}
		out = append(out, tok.text)
	}
}

// ReadHeader parses the prologue of an NFG file written by WriteNFG. The
// strategy order it returns is the addressing the solver output uses.
func ReadHeader(r io.Reader) (*Header, error) {
	t := &tokenizer{r: bufio.NewReader(r)}
	for _, word := range []string{"NFG", "1", "R"} {
		if err := t.expect(word); err != nil {
			return nil, err
		}
	}

	title, err := t.next()
	if err != nil || !title.quoted {
		return nil, fmt.Errorf("missing game title: %w", ErrMalformedGame)
	}
	h := &Header{GameName: title.text}

	if err := t.expect("{"); err != nil {
		return nil, err
	}
	if h.Players, err = t.labels(); err != nil {
		return nil, err
	}

	if err := t.expect("{"); err != nil {
		return nil, err
	}
	for {
		tok, err := t.next()
		if err != nil {
			return nil, fmt.Errorf("unterminated strategy block: %w", ErrMalformedGame)
		}
		if tok.quoted {
			return nil, fmt.Errorf("label %q outside a strategy list: %w", tok.text, ErrMalformedGame)
		}
		if tok.text == "}" {
			break
		}
		if tok.text != "{" {
			return nil, fmt.Errorf("unexpected %q in strategy block: %w", tok.text, ErrMalformedGame)
		}
		strategies, err := t.labels()
		if err != nil {
			return nil, err
		}
		h.Strategies = append(h.Strategies, strategies)
	}

	if len(h.Strategies) != len(h.Players) {
		return nil, fmt.Errorf("%d players but %d strategy lists: %w", len(h.Players), len(h.Strategies), ErrMalformedGame)
	}
	return h, nil
}
