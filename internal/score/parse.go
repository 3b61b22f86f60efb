package score

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var numberRE = regexp.MustCompile(`\d+(?:\.\d+)?%?|\.\d+%?`)

type scorePayload struct {
	Score float64 `mapstructure:"score"`
}

// ParseScore extracts a relevance score in [0,1] from a model response. It
// accepts a bare number, a percentage, or a JSON object with a score field.
// Anything else is an error: an unreadable response must never turn into a
// passing score.
func ParseScore(raw string) (float64, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return 0, errors.New("empty score response")
	}

	if strings.HasPrefix(cleaned, "{") {
		if value, err := parseJSONScore(cleaned); err == nil {
			return value, nil
		}
	}

	// Scan numeric tokens in order and take the first one that is a score.
	// "1.5" is a whole token here, not a leading "1", so out-of-range
	// answers fail instead of passing as certainty.
	for _, token := range numberRE.FindAllString(cleaned, -1) {
		percent := strings.HasSuffix(token, "%")
		token = strings.TrimSuffix(token, "%")

		value, err := strconv.ParseFloat(token, 64)
		if err != nil {
			continue
		}
		if percent {
			value /= 100
		}
		if value >= 0 && value <= 1 {
			return value, nil
		}
	}

	return 0, errors.New("no score in [0,1] found in model response")
}

func parseJSONScore(cleaned string) (float64, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return 0, err
	}
	if _, ok := data["score"]; !ok {
		return 0, errors.New("no score field")
	}

	var payload scorePayload
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &payload,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return 0, err
	}
	if err := decoder.Decode(data); err != nil {
		return 0, err
	}

	return normalizeScale(payload.Score)
}

// normalizeScale maps answers given on a 0-100 scale back to [0,1].
func normalizeScale(value float64) (float64, error) {
	switch {
	case value >= 0 && value <= 1:
		return value, nil
	case value > 1 && value <= 100:
		return value / 100, nil
	default:
		return 0, fmt.Errorf("score %v out of range", value)
	}
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
