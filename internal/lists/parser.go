package lists

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// MaxQuantity caps the quantity of a single entry. Larger pasted
// quantities and merged sums saturate at this value.
const MaxQuantity = 100000

// ParsedCard is one (name, quantity) pair from a pasted deck list.
type ParsedCard struct {
	Name     string
	Quantity int
}

// deckLineRegex matches "4 Lightning Bolt", "4x Lightning Bolt" and the
// Arena export form "4 Lightning Bolt (M21) 123".
// Group 1: quantity, Group 2: card name, Group 3: set code (optional).
var deckLineRegex = regexp.MustCompile(`^(\d+)x?\s+(.+?)(?:\s+\(([A-Za-z0-9]+)\)(?:\s+\S+)?)?$`)

// ParseDeckList parses newline-separated "<quantity> <name>" lines.
// Lines that do not match, and zero quantities, are skipped. Quantities of
// repeated names are summed; names keep their first-seen order.
func ParseDeckList(text string) []ParsedCard {
	var result []ParsedCard
	index := make(map[string]int)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		matches := deckLineRegex.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		quantity, err := strconv.Atoi(matches[1])
		if errors.Is(err, strconv.ErrRange) {
			quantity, err = MaxQuantity, nil
		}
		if err != nil || quantity <= 0 {
			continue
		}
		name := strings.TrimSpace(matches[2])
		if name == "" {
			continue
		}

		if i, ok := index[name]; ok {
			result[i].Quantity = addQuantity(result[i].Quantity, quantity)
			continue
		}
		index[name] = len(result)
		result = append(result, ParsedCard{Name: name, Quantity: min(quantity, MaxQuantity)})
	}

	return result
}

// addQuantity returns a+b for non-negative quantities, saturating at MaxQuantity.
func addQuantity(a, b int) int {
	if b >= MaxQuantity-a {
		return MaxQuantity
	}
	return a + b
}
