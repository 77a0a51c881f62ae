// Package scan extracts trade fields from screenshots: an external OCR
// collaborator recognizes the text, then heuristic patterns pull out the
// fields. Scanning is best effort and never fails the caller.
package scan

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/yourorg/trade-journal/internal/domain"
)

// Recognizer turns an image into text. Implementations live behind this
// interface so the extraction heuristics stay testable without a service.
type Recognizer interface {
	Recognize(ctx context.Context, image io.Reader, filename string) (string, error)
}

// ScannedTrade is the best-effort result. Absent fields stay nil/empty; the
// user reviews everything before it becomes a trade.
type ScannedTrade struct {
	Symbol   string      `json:"symbol,omitempty"`
	Side     domain.Side `json:"side,omitempty"`
	Price    *float64    `json:"price,omitempty"`
	StopLoss *float64    `json:"stopLoss,omitempty"`
	Target   *float64    `json:"target,omitempty"`
	Quantity *float64    `json:"quantity,omitempty"`
	Text     string      `json:"text,omitempty"`
}

type Scanner struct {
	rec    Recognizer
	logger *slog.Logger
}

func New(rec Recognizer, logger *slog.Logger) *Scanner {
	return &Scanner{rec: rec, logger: logger}
}

// Scan recognizes the image and extracts fields. A recognition failure
// yields an empty result, never an error.
func (s *Scanner) Scan(ctx context.Context, image io.Reader, filename string) ScannedTrade {
	text, err := s.rec.Recognize(ctx, image, filename)
	if err != nil {
		s.logger.Warn("screenshot recognition failed", "file", filename, "err", err)
		return ScannedTrade{}
	}
	return Extract(text)
}

// Uppercase tokens that look like tickers but are order-form vocabulary.
var ignoredTokens = map[string]bool{
	"BUY": true, "SELL": true, "LIMIT": true, "MARKET": true, "EST": true,
	"TOTAL": true, "ORDER": true, "FILL": true, "AVG": true, "COST": true,
	"COLLATERAL": true, "TYPE": true, "TIME": true, "STATUS": true,
	"LONG": true, "SHORT": true, "PROFIT": true, "STOP": true, "RISK": true,
	"REWARD": true, "ENTRY": true,
}

var (
	symbolRe = regexp.MustCompile(`^[A-Z]{1,5}$`)
	longRe   = regexp.MustCompile(`(?i)\b(?:long|buy)\b`)
	shortRe  = regexp.MustCompile(`(?i)\b(?:short|sell)\b`)
	entryRe  = regexp.MustCompile(`(?i)(?:Entry|Price|Open):?\s*([\d,]+\.?\d*)`)
	targetRe = regexp.MustCompile(`(?i)(?:Profit Level|Target|Profit|Reward):?\s*([\d,]+\.?\d*)`)
	stopRe   = regexp.MustCompile(`(?i)(?:Stop Level|Stop Loss|Stop|Risk):?\s*([\d,]+\.?\d*)`)
	dollarRe = regexp.MustCompile(`\$([\d,]+\.\d{2})`)
	qtyRe    = regexp.MustCompile(`(?i)(?:Qty|Amount|Quantity):?\s*(\d+)`)
	sharesRe = regexp.MustCompile(`(?i)(\d+)\s+Shares?`)
)

// Extract applies the field heuristics to recognized text.
func Extract(text string) ScannedTrade {
	out := ScannedTrade{Text: text}

	out.Symbol = findSymbol(text)

	clean := strings.Join(strings.Fields(text), " ")
	// Long/Buy wins over Short/Sell when both appear, matching checking
	// order rather than position in the text.
	if longRe.MatchString(clean) {
		out.Side = domain.SideBuy
	} else if shortRe.MatchString(clean) {
		out.Side = domain.SideSell
	}

	out.Price = matchNumber(entryRe, clean)
	out.Target = matchNumber(targetRe, clean)
	out.StopLoss = matchNumber(stopRe, clean)

	// Broker screenshots often show prices with a currency prefix only.
	if out.Price == nil {
		out.Price = matchNumber(dollarRe, clean)
	}

	if q := matchNumber(qtyRe, clean); q != nil {
		out.Quantity = q
	} else {
		out.Quantity = matchNumber(sharesRe, clean)
	}

	return out
}

// findSymbol scans line by line for the first short uppercase token that is
// not order-form vocabulary.
func findSymbol(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if symbolRe.MatchString(line) && !ignoredTokens[line] {
			return line
		}
		words := strings.Fields(line)
		if len(words) > 0 && symbolRe.MatchString(words[0]) && !ignoredTokens[words[0]] {
			return words[0]
		}
	}
	return ""
}

func matchNumber(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	return domain.Float(v)
}
