package deck

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Decklist line: optional quantity, card name, optional trailing "[Tag,Tag]".
// Quantity accepts "4" and "4x" forms.
var lineRegex = regexp.MustCompile(`^(?:(\d+)x?\s+)?(.+?)(?:\s*\[([^\]]*)\])?$`)

// Parse parses a plain-text decklist.
//
// One card per line as "<quantity> <card name>"; the quantity defaults to 1
// when omitted. Blank lines and lines starting with '#' are ignored.
// Duplicate name lines accumulate quantity. A trailing bracket annotation
// such as "Llanowar Elves [ManaSource]" attaches inline role tags.
func Parse(input, name string) (*Deck, error) {
	d := &Deck{Name: name}
	byName := make(map[string]*Card)

	for i, raw := range strings.Split(input, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		matches := lineRegex.FindStringSubmatch(line)
		if matches == nil {
			return nil, fmt.Errorf("line %d: could not parse %q", i+1, line)
		}

		quantity := 1
		if matches[1] != "" {
			q, err := strconv.Atoi(matches[1])
			if err != nil || q <= 0 {
				return nil, fmt.Errorf("line %d: invalid quantity %q", i+1, matches[1])
			}
			quantity = q
		}

		cardName := strings.TrimSpace(matches[2])
		if cardName == "" {
			return nil, fmt.Errorf("line %d: missing card name in %q", i+1, line)
		}

		var tags []string
		if matches[3] != "" {
			for _, t := range strings.Split(matches[3], ",") {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
		}

		if existing, ok := byName[cardName]; ok {
			existing.Quantity += quantity
			existing.Tags = append(existing.Tags, tags...)
			continue
		}

		card := &Card{Name: cardName, Quantity: quantity, Tags: tags}
		byName[cardName] = card
		d.Cards = append(d.Cards, card)
	}

	if len(d.Cards) == 0 {
		return nil, fmt.Errorf("decklist contains no cards")
	}
	return d, nil
}
