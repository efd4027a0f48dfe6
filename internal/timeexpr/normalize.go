package timeexpr

import (
	"strconv"
	"strings"
	"unicode"
)

type pieceClass int

const (
	pieceDigits pieceClass = iota
	pieceLatin
	pieceHangul
	piecePunct
)

// piece is a maximal run of one character class.
type piece struct {
	text  string
	class pieceClass
	gap   bool // preceded by whitespace or another separator
}

// Normalize converts a transcript into tokens. Numeral words become numbers,
// time keywords are tagged and filler words are dropped. An empty or
// unrecognizable transcript yields an empty (nil) slice.
func Normalize(transcript string) []Token {
	pieces := scan(strings.ToLower(transcript))
	if len(pieces) == 0 {
		return nil
	}

	var out []Token
	for i := 0; i < len(pieces); {
		p := pieces[i]
		switch p.class {
		case pieceDigits:
			toks, n := combineDigits(pieces, i)
			out = append(out, toks...)
			i += n
		case pieceLatin:
			toks, n := combineLatin(pieces, i)
			out = append(out, toks...)
			i += n
		case pieceHangul:
			out = append(out, segmentKorean(p.text)...)
			i++
		default:
			i++
		}
	}
	return settleTentative(out)
}

func scan(s string) []piece {
	var (
		pieces []piece
		cur    []rune
		class  pieceClass
		gap    = true
	)
	flush := func() {
		if len(cur) > 0 {
			pieces = append(pieces, piece{text: string(cur), class: class, gap: gap})
			cur = cur[:0]
			gap = false
		}
	}

	for _, r := range s {
		var c pieceClass
		switch {
		case r >= '0' && r <= '9':
			c = pieceDigits
		case unicode.Is(unicode.Hangul, r):
			c = pieceHangul
		case unicode.IsLetter(r):
			c = pieceLatin
		case r == '\'' && len(cur) > 0 && class == pieceLatin:
			// o'clock
			cur = append(cur, r)
			continue
		case r == ':' || r == '/' || r == '-' || r == '.':
			flush()
			pieces = append(pieces, piece{text: string(r), class: piecePunct, gap: gap})
			gap = false
			continue
		default:
			flush()
			gap = true
			continue
		}
		if len(cur) > 0 && c != class {
			flush()
		}
		class = c
		cur = append(cur, r)
	}
	flush()
	return pieces
}

// at returns the piece at i, or the zero piece when out of range.
func at(pieces []piece, i int) (piece, bool) {
	if i < 0 || i >= len(pieces) {
		return piece{}, false
	}
	return pieces[i], true
}

// adjacent reports whether piece i exists, is glued to its predecessor and has the class.
func adjacent(pieces []piece, i int, class pieceClass, text string) bool {
	p, ok := at(pieces, i)
	if !ok || p.gap || p.class != class {
		return false
	}
	return text == "" || p.text == text
}

func atoi(s string) (int, bool) {
	if len(s) > 9 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func combineDigits(pieces []piece, i int) ([]Token, int) {
	p := pieces[i]
	n, ok := atoi(p.text)
	if !ok {
		return []Token{{Kind: TokWord, Text: p.text}}, 1
	}

	// H:MM
	if adjacent(pieces, i+1, piecePunct, ":") && adjacent(pieces, i+2, pieceDigits, "") && len(pieces[i+2].text) == 2 {
		m, _ := atoi(pieces[i+2].text)
		if n <= 24 && m <= 59 {
			text := p.text + ":" + pieces[i+2].text
			used := 3
			// drop seconds
			if adjacent(pieces, i+3, piecePunct, ":") && adjacent(pieces, i+4, pieceDigits, "") {
				used = 5
			}
			return []Token{{Kind: TokClock, Text: text, Hour: n, Minute: m}}, used
		}
	}

	// YYYY-MM-DD
	if len(p.text) == 4 && adjacent(pieces, i+1, piecePunct, "-") && adjacent(pieces, i+2, pieceDigits, "") &&
		adjacent(pieces, i+3, piecePunct, "-") && adjacent(pieces, i+4, pieceDigits, "") {
		mo, _ := atoi(pieces[i+2].text)
		d, _ := atoi(pieces[i+4].text)
		text := p.text + "-" + pieces[i+2].text + "-" + pieces[i+4].text
		return []Token{{Kind: TokNumericDate, Text: text, Year: n, Month: mo, Day: d}}, 5
	}

	// M/D or M/D/YY(YY)
	if adjacent(pieces, i+1, piecePunct, "/") && adjacent(pieces, i+2, pieceDigits, "") {
		d, _ := atoi(pieces[i+2].text)
		tok := Token{Kind: TokNumericDate, Text: p.text + "/" + pieces[i+2].text, Month: n, Day: d}
		used := 3
		if adjacent(pieces, i+3, piecePunct, "/") && adjacent(pieces, i+4, pieceDigits, "") {
			y, _ := atoi(pieces[i+4].text)
			if y < 100 {
				y += 2000
			}
			tok.Year = y
			tok.Text += "/" + pieces[i+4].text
			used = 5
		}
		return []Token{tok}, used
	}

	tok := Token{Kind: TokNumber, Text: p.text, Value: n}
	if adjacent(pieces, i+1, pieceLatin, "") && ordinalSuffixes[pieces[i+1].text] {
		tok.Ordinal = true
		tok.Text += pieces[i+1].text
		return []Token{tok}, 2
	}
	return []Token{tok}, 1
}

// nextWord returns the latin word after i, skipping a joining hyphen.
func nextWord(pieces []piece, i int) (string, int, bool) {
	j := i + 1
	if p, ok := at(pieces, j); ok && p.class == piecePunct && p.text == "-" {
		j++
	}
	p, ok := at(pieces, j)
	if !ok || p.class != pieceLatin {
		return "", 0, false
	}
	return p.text, j, true
}

func isUnitWord(w string) bool {
	toks, ok := englishWords[w]
	return ok && len(toks) == 1 && toks[0].Kind == TokUnit
}

func combineLatin(pieces []piece, i int) ([]Token, int) {
	w := pieces[i].text

	// a.m. / p.m.
	if (w == "a" || w == "p") && adjacent(pieces, i+1, piecePunct, ".") && adjacent(pieces, i+2, pieceLatin, "m") {
		used := 3
		if adjacent(pieces, i+3, piecePunct, ".") {
			used = 4
		}
		m := AM
		if w == "p" {
			m = PM
		}
		return []Token{{Kind: TokMeridiem, Text: w + ".m.", Meridiem: m}}, used
	}

	next, j, hasNext := nextWord(pieces, i)

	switch {
	case w == "from" && hasNext && next == "now":
		return []Token{{Kind: TokLater, Text: "from now"}}, j - i + 1
	case w == "half" && hasNext && (next == "an" || next == "a"):
		if u, k, ok := nextWord(pieces, j); ok && (u == "hour" || u == "hr") {
			return []Token{
				{Kind: TokNumber, Text: "half", Value: 30},
				{Kind: TokUnit, Text: "an hour", Unit: UnitMinute},
			}, k - i + 1
		}
	case (w == "a" || w == "an") && hasNext && isUnitWord(next):
		return []Token{{Kind: TokNumber, Text: w, Value: 1}}, 1
	}

	if tens, ok := englishTens[w]; ok {
		if hasNext {
			if ones, ok := englishOnes[next]; ok && ones > 0 && ones < 10 {
				return []Token{{Kind: TokNumber, Text: w + " " + next, Value: tens + ones}}, j - i + 1
			}
			if ord, ok := englishOrdinals[next]; ok && ord < 10 {
				return []Token{{Kind: TokNumber, Text: w + " " + next, Value: tens + ord, Ordinal: true}}, j - i + 1
			}
		}
		return []Token{{Kind: TokNumber, Text: w, Value: tens}}, 1
	}
	if n, ok := englishOnes[w]; ok {
		return []Token{{Kind: TokNumber, Text: w, Value: n}}, 1
	}
	if n, ok := englishOrdinals[w]; ok {
		return []Token{{Kind: TokNumber, Text: w, Value: n, Ordinal: true}}, 1
	}
	if m, ok := englishMonths[w]; ok {
		return []Token{{Kind: TokMonthName, Text: w, Value: m}}, 1
	}
	if toks, ok := englishWords[w]; ok {
		return withText(toks, w), 1
	}
	if englishFillers[w] || ordinalSuffixes[w] {
		return nil, 1
	}
	return []Token{{Kind: TokWord, Text: w}}, 1
}

func withText(toks []Token, text string) []Token {
	out := make([]Token, len(toks))
	for i, t := range toks {
		t.Text = text
		out[i] = t
	}
	return out
}

// segmentKorean splits a Hangul run into keywords, numerals and unknown spans.
func segmentKorean(s string) []Token {
	rs := []rune(s)
	var (
		out     []Token
		unknown []rune
	)
	flush := func() {
		if len(unknown) == 0 {
			return
		}
		w := string(unknown)
		if !koreanParticles[w] {
			out = append(out, Token{Kind: TokWord, Text: w})
		}
		unknown = unknown[:0]
	}

	for p := 0; p < len(rs); {
		kwLen, kwToks := longestKeyword(rs, p)
		numLen, numVal := koreanNumeral(rs, p)
		numWins := numLen > 0 && (numLen > kwLen || (numLen == kwLen && p+numLen < len(rs)))

		switch {
		case numWins:
			flush()
			out = append(out, Token{
				Kind:      TokNumber,
				Text:      string(rs[p : p+numLen]),
				Value:     numVal,
				tentative: p+numLen == len(rs),
			})
			p += numLen
		case kwLen > 0:
			flush()
			out = append(out, withText(kwToks, string(rs[p:p+kwLen]))...)
			p += kwLen
		default:
			unknown = append(unknown, rs[p])
			p++
		}
	}
	flush()
	return out
}

func longestKeyword(rs []rune, p int) (int, []Token) {
	for n := min(maxKoreanWordLen, len(rs)-p); n > 0; n-- {
		if toks, ok := koreanWords[string(rs[p:p+n])]; ok {
			return n, toks
		}
	}
	return 0, nil
}

// koreanNumeral returns the longest native or Sino-Korean numeral at p that
// is followed by a unit syllable or ends the run.
func koreanNumeral(rs []rune, p int) (int, int) {
	accept := func(n int) bool {
		end := p + n
		return end == len(rs) || koreanUnitRunes[rs[end]]
	}
	for n := min(4, len(rs)-p); n > 0; n-- {
		if v, ok := nativeNumerals[string(rs[p:p+n])]; ok && accept(n) {
			return n, v
		}
	}
	for n := min(6, len(rs)-p); n > 0; n-- {
		if v, ok := sinoValue(rs[p : p+n]); ok && accept(n) {
			return n, v
		}
	}
	return 0, 0
}

// sinoValue parses Sino-Korean numerals such as 이십오 (25) or 백이십 (120).
func sinoValue(rs []rune) (int, bool) {
	total, digit := 0, -1
	seenTen, seenHundred := false, false
	for _, r := range rs {
		switch r {
		case '백':
			if seenHundred || seenTen {
				return 0, false
			}
			total += max(digit, 1) * 100
			digit, seenHundred = -1, true
		case '십':
			if seenTen {
				return 0, false
			}
			total += max(digit, 1) * 10
			digit, seenTen = -1, true
		default:
			d, ok := sinoDigits[r]
			if !ok || digit >= 0 {
				return 0, false
			}
			digit = d
		}
	}
	if digit > 0 {
		total += digit
	}
	return total, total > 0
}

// settleTentative keeps numerals from bare Hangul runs only when a unit follows.
func settleTentative(toks []Token) []Token {
	out := toks[:0]
	for i, t := range toks {
		if t.tentative {
			if i+1 >= len(toks) || (toks[i+1].Kind != TokUnit && toks[i+1].Kind != TokHalf) {
				continue
			}
			t.tentative = false
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
