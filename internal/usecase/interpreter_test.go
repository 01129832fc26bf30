package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHeuristicIntent(t *testing.T) {
	testCases := []struct {
		name      string
		query     string
		wantTerms []string
		wantMax   *float64
		wantMin   *float64
		wantMinR  *float64
	}{
		{
			name:      "plain query",
			query:     "wireless headphones",
			wantTerms: []string{"wireless", "headphones"},
		},
		{
			name:      "max price with dollar sign",
			query:     "best laptop under $1000",
			wantTerms: []string{"laptop"},
			wantMax:   f64(1000),
		},
		{
			name:      "max price without symbol",
			query:     "phone below 500",
			wantTerms: []string{"phone"},
			wantMax:   f64(500),
		},
		{
			name:      "min price",
			query:     "watch over $200",
			wantTerms: []string{"watch"},
			wantMin:   f64(200),
		},
		{
			name:      "price with thousands separator",
			query:     "tv less than 1,200.50",
			wantTerms: []string{"tv"},
			wantMax:   f64(1200.50),
		},
		{
			name:      "rating hint implies min rating",
			query:     "coffee maker with good reviews",
			wantTerms: []string{"coffee", "maker", "reviews"},
			wantMinR:  f64(4.0),
		},
		{
			name:      "stop words dropped",
			query:     "find me the best deal for a blender",
			wantTerms: []string{"blender"},
		},
		{
			name:      "all stop words yields no terms",
			query:     "best deals",
			wantTerms: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			intent := heuristicIntent(tc.query)

			if intent.RawQuery != tc.query {
				t.Errorf("RawQuery = %q, want %q", intent.RawQuery, tc.query)
			}
			if !equalStrings(intent.Terms, tc.wantTerms) {
				t.Errorf("Terms = %v, want %v", intent.Terms, tc.wantTerms)
			}
			checkPtr(t, "MaxPrice", intent.MaxPrice, tc.wantMax)
			checkPtr(t, "MinPrice", intent.MinPrice, tc.wantMin)
			checkPtr(t, "MinRating", intent.MinRating, tc.wantMinR)
		})
	}
}

type stubChat struct {
	response string
	err      error
	called   bool
}

func (s *stubChat) Complete(_ context.Context, _, _ string) (string, error) {
	s.called = true
	return s.response, s.err
}

func TestInterpret(t *testing.T) {
	t.Run("heuristic only when natural language off", func(t *testing.T) {
		chat := &stubChat{response: "should not be used"}
		qi := NewQueryInterpreter(chat, time.Second, nil)

		intent := qi.Interpret(context.Background(), "laptop under $1000", false)

		if chat.called {
			t.Error("chat client called with natural language off")
		}
		if intent.MaxPrice == nil || *intent.MaxPrice != 1000 {
			t.Errorf("MaxPrice = %v, want 1000", intent.MaxPrice)
		}
	})

	t.Run("nil chat client degrades to heuristic", func(t *testing.T) {
		qi := NewQueryInterpreter(nil, time.Second, nil)

		intent := qi.Interpret(context.Background(), "laptop under $1000", true)

		if intent.Query != "laptop under $1000" {
			t.Errorf("Query = %q, want heuristic passthrough", intent.Query)
		}
	})

	t.Run("rewrite replaces query but keeps local constraints", func(t *testing.T) {
		chat := &stubChat{response: "gaming laptop 16GB"}
		qi := NewQueryInterpreter(chat, time.Second, nil)

		intent := qi.Interpret(context.Background(), "I want a good gaming laptop under $1000 please", true)

		if intent.Query != "gaming laptop 16GB" {
			t.Errorf("Query = %q, want rewritten text", intent.Query)
		}
		if !equalStrings(intent.Terms, []string{"gaming", "laptop", "16gb"}) {
			t.Errorf("Terms = %v, want rewritten terms", intent.Terms)
		}
		if intent.MaxPrice == nil || *intent.MaxPrice != 1000 {
			t.Errorf("MaxPrice = %v, want locally extracted 1000 to survive rewrite", intent.MaxPrice)
		}
		if intent.RawQuery != "I want a good gaming laptop under $1000 please" {
			t.Errorf("RawQuery = %q, want the original text", intent.RawQuery)
		}
	})

	t.Run("rewrite failure falls back to heuristic", func(t *testing.T) {
		chat := &stubChat{err: errors.New("api down")}
		qi := NewQueryInterpreter(chat, time.Second, nil)

		intent := qi.Interpret(context.Background(), "wireless mouse", true)

		if intent.Query != "wireless mouse" {
			t.Errorf("Query = %q, want heuristic fallback", intent.Query)
		}
	})

	t.Run("empty rewrite falls back to heuristic", func(t *testing.T) {
		chat := &stubChat{response: "   "}
		qi := NewQueryInterpreter(chat, time.Second, nil)

		intent := qi.Interpret(context.Background(), "wireless mouse", true)

		if intent.Query != "wireless mouse" {
			t.Errorf("Query = %q, want heuristic fallback on empty rewrite", intent.Query)
		}
	})
}

func f64(v float64) *float64 { return &v }

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func checkPtr(t *testing.T, field string, got, want *float64) {
	t.Helper()
	if (got == nil) != (want == nil) {
		t.Errorf("%s = %v, want %v", field, got, want)
		return
	}
	if got != nil && *got != *want {
		t.Errorf("%s = %v, want %v", field, *got, *want)
	}
}
