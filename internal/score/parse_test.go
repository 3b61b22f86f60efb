package score

import "testing"

func TestParseScore(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{name: "bare decimal", raw: "0.85", want: 0.85},
		{name: "padded", raw: "  0.7\n", want: 0.7},
		{name: "integer one", raw: "1", want: 1},
		{name: "integer zero", raw: "0", want: 0},
		{name: "one point oh", raw: "1.0", want: 1},
		{name: "leading dot", raw: ".75", want: 0.75},
		{name: "percentage", raw: "85%", want: 0.85},
		{name: "labeled", raw: "Score: 0.42", want: 0.42},
		{name: "fenced json", raw: "```json\n{\"score\": 0.8}\n```", want: 0.8},
		{name: "json string score", raw: `{"score": "0.9"}`, want: 0.9},
		{name: "json percent scale", raw: `{"score": 85}`, want: 0.85},
		{name: "first in-range token wins", raw: "between 1.5 and 0.9", want: 0.9},
		{name: "out of range", raw: "1.5", wantErr: true},
		{name: "fraction notation", raw: "7/10", wantErr: true},
		{name: "refusal", raw: "I cannot score this posting.", wantErr: true},
		{name: "json without score", raw: `{"fit": true}`, wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace only", raw: "  \n ", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseScore(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
