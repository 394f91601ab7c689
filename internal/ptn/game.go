// Package ptn reads and writes games in Portable Tak Notation.
package ptn

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

var ErrPTN = errors.New("bad ptn")

type Tag struct {
	Key   string
	Value string
}

type Item struct {
	Move    tak.Move
	Comment string
}

type Game struct {
	Tags   []Tag
	Items  []Item
	Result string
}

func (g *Game) TagValue(key string) (string, bool) {
	for _, tag := range g.Tags {
		if strings.EqualFold(tag.Key, key) {
			return tag.Value, true
		}
	}
	return "", false
}

func (g *Game) Moves() []tak.Move {
	var result = make([]tak.Move, len(g.Items))
	for i := range g.Items {
		result[i] = g.Items[i].Move
	}
	return result
}

var results = map[string]bool{
	"R-0": true, "0-R": true, "F-0": true, "0-F": true,
	"1-0": true, "0-1": true, "1/2-1/2": true, "*": true,
}

// ParseGame parses tags and the move list of one game.
func ParseGame(text string) (Game, error) {
	var game = Game{Tags: parseTags(text)}
	for _, token := range parseTokens(tagsRegex.ReplaceAllString(text, "")) {
		if results[token.Value] {
			game.Result = token.Value
			continue
		}
		if token.Value == "--" {
			continue
		}
		var m, err = tak.ParseMove(token.Value)
		if err != nil {
			return Game{}, fmt.Errorf("%w: %v", ErrPTN, err)
		}
		game.Items = append(game.Items, Item{Move: m, Comment: token.Comment})
	}
	return game, nil
}

// ParseMoves parses a bare move list such as "1. a1 e5 2. b2 c3".
func ParseMoves(text string) ([]tak.Move, error) {
	var game, err = ParseGame(text)
	if err != nil {
		return nil, err
	}
	if len(game.Tags) != 0 {
		return nil, fmt.Errorf("%w: unexpected tags in move list", ErrPTN)
	}
	return game.Moves(), nil
}

func parseTags(text string) []Tag {
	var tags []Tag
	for _, match := range tagPairRegex.FindAllStringSubmatch(text, -1) {
		tags = append(tags, Tag{Key: match[1], Value: match[2]})
	}
	return tags
}

type token struct {
	Value   string
	Comment string
}

// parseTokens splits a move text into moves with their comments. Move numbers
// ("12.") are dropped.
func parseTokens(text string) []token {
	var result []token
	var inComment = false
	var body = &strings.Builder{}
	var flush = func() {
		if body.Len() != 0 {
			result = append(result, token{Value: body.String()})
			body.Reset()
		}
	}
	for _, r := range text {
		if inComment {
			if r == '}' {
				if len(result) != 0 {
					result[len(result)-1].Comment = strings.TrimSpace(body.String())
				}
				inComment = false
				body.Reset()
			} else {
				body.WriteRune(r)
			}
		} else if r == '.' && isMoveNumber(body.String()) {
			body.Reset()
		} else if unicode.IsSpace(r) {
			flush()
		} else if r == '{' {
			flush()
			inComment = true
		} else {
			body.WriteRune(r)
		}
	}
	flush()
	return result
}

func isMoveNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// WalkFile calls onGame with the text of every game in a PTN file. A game
// starts at a tag line that follows move text.
func WalkFile(path string, onGame func(text string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var text = &strings.Builder{}
	var hasBody bool

	var scanner = bufio.NewScanner(file)
	for scanner.Scan() {
		var line = strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			if hasBody {
				if err := onGame(text.String()); err != nil {
					return err
				}
				hasBody = false
				text.Reset()
			}
		} else if line != "" {
			hasBody = true
		}
		text.WriteString(line)
		text.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if hasBody {
		return onGame(text.String())
	}
	return nil
}

var (
	tagsRegex    = regexp.MustCompile(`\[[^\]]+\]`)
	tagPairRegex = regexp.MustCompile(`\[(\w+)\s+"([^"]*)"\]`)
)
