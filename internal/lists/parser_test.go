package lists

import (
	"reflect"
	"testing"
)

func TestParseDeckList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []ParsedCard
	}{
		{
			name:  "simple",
			input: "4 Lightning Bolt\n1 Counterspell",
			want:  []ParsedCard{{"Lightning Bolt", 4}, {"Counterspell", 1}},
		},
		{
			name:  "repeated names are summed in first-seen order",
			input: "4 Lightning Bolt\n1 Counterspell\n2 Lightning Bolt",
			want:  []ParsedCard{{"Lightning Bolt", 6}, {"Counterspell", 1}},
		},
		{
			name:  "huge quantities saturate",
			input: "9223372036854775807 Lightning Bolt\n1 Lightning Bolt\n99999999999999999999 Opt",
			want:  []ParsedCard{{"Lightning Bolt", MaxQuantity}, {"Opt", MaxQuantity}},
		},
		{
			name:  "x suffix",
			input: "4x Lightning Bolt",
			want:  []ParsedCard{{"Lightning Bolt", 4}},
		},
		{
			name:  "arena set suffix",
			input: "Deck\n4 Lightning Bolt (M21) 123\n2 Shock (M21) 124",
			want:  []ParsedCard{{"Lightning Bolt", 4}, {"Shock", 2}},
		},
		{
			name:  "blank lines crlf and indentation",
			input: "\r\n  3 Opt \r\n\n\n1 Ponder\r\n",
			want:  []ParsedCard{{"Opt", 3}, {"Ponder", 1}},
		},
		{
			name:  "malformed lines are ignored",
			input: "Sideboard\nLightning Bolt\n4\nfour Shock\n2 Duress",
			want:  []ParsedCard{{"Duress", 2}},
		},
		{
			name:  "zero quantity ignored",
			input: "0 Opt\n1 Ponder",
			want:  []ParsedCard{{"Ponder", 1}},
		},
		{
			name:  "split card names kept whole",
			input: "2 Fire // Ice",
			want:  []ParsedCard{{"Fire // Ice", 2}},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDeckList(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDeckList() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
