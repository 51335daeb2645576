package retrieval

import "testing"

func TestClassify(t *testing.T) {
	c := NewClassifier(0.3)

	tests := []struct {
		name   string
		scores []float64
		want   ConfidenceLevel
	}{
		{"empty", nil, ConfidenceFallback},
		{"high", []float64{0.65, 0.55}, ConfidenceHigh},
		{"medium", []float64{0.45, 0.35}, ConfidenceMedium},
		{"low", []float64{0.35}, ConfidenceLow},
		{"below threshold", []float64{0.1}, ConfidenceFallback},
		{"high max dragged down by weak tail", []float64{0.9, 0.0, 0.0, 0.0}, ConfidenceLow},
		{"single strong", []float64{0.8}, ConfidenceHigh},
		{"strong max but mean under high bar", []float64{0.6, 0.1}, ConfidenceMedium},
		{"exactly at threshold", []float64{0.3}, ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.scores)
			if got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.scores, got, tt.want)
			}

			// Classification is pure: repeated calls agree.
			if again := c.Classify(tt.scores); again != got {
				t.Errorf("Classify(%v) not deterministic: %s then %s", tt.scores, got, again)
			}
		})
	}
}

func TestClassifyCustomThreshold(t *testing.T) {
	c := NewClassifier(0.2)

	if got := c.Classify([]float64{0.25}); got != ConfidenceLow {
		t.Errorf("Classify with threshold 0.2 = %s, want LOW", got)
	}
	if got := c.Classify([]float64{0.15}); got != ConfidenceFallback {
		t.Errorf("Classify below threshold 0.2 = %s, want FALLBACK", got)
	}
}

func TestExplanationCoversAllLevels(t *testing.T) {
	for _, level := range []ConfidenceLevel{ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceFallback} {
		if Explanation(level) == "" || Explanation(level) == "Unknown confidence level" {
			t.Errorf("Explanation(%s) missing", level)
		}
	}
}
