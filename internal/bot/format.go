package bot

import (
	"fmt"
	"strings"

	"github.com/tonarb/giftarb/internal/domain"
	"github.com/tonarb/giftarb/internal/scan"
)

// formatResult renders a scan result as chat text: one line per candidate,
// best profit first, with warnings appended at the bottom.
func formatResult(res *scan.Result) string {
	var b strings.Builder

	if len(res.Candidates) == 0 {
		b.WriteString("No profitable flips found.\n")
	} else {
		fmt.Fprintf(&b, "Found %d flip candidates:\n\n", len(res.Candidates))
		for i, c := range res.Candidates {
			b.WriteString(formatCandidate(i+1, c))
		}
	}

	if len(res.Warnings) > 0 {
		b.WriteString("\nWarnings (partial data):\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func formatCandidate(rank int, c domain.Candidate) string {
	name := c.Gift
	if c.Model != "" {
		name = fmt.Sprintf("%s (%s)", c.Gift, c.Model)
	}
	flag := ""
	if !c.Clean {
		flag = " [signed]"
	}
	return fmt.Sprintf("%d. %s%s\n   buy %s @ %.2f, sell %s @ %.2f\n   profit %.2f TON (%.1f%%) via %s\n",
		rank, name, flag,
		c.BuyMarket, c.BuyPrice, c.SellMarket, c.SellPrice,
		c.Profit, c.ProfitPercent, c.Strategy)
}

// chunkText splits text into pieces no longer than max, preferring newline
// boundaries. A single line longer than max is split mid-line.
func chunkText(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > max {
			if cur.Len() > 0 {
				chunks = append(chunks, cur.String())
				cur.Reset()
			}
			chunks = append(chunks, line[:max])
			line = line[max:]
		}
		if cur.Len()+len(line) > max {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
