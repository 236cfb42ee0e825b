// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/regdoc-engine/internal/logging"
	"github.com/pdiddy/regdoc-engine/pkg/types"
)

// stubSampler returns a fixed sample per URL.
type stubSampler struct {
	samples map[string]string
	errs    map[string]error
}

func (s stubSampler) ExtractSample(_ context.Context, pdfURL string, _ int) (string, error) {
	if err := s.errs[pdfURL]; err != nil {
		return "", err
	}
	return s.samples[pdfURL], nil
}

// stubCompletions replies per assessed URL, keyed on the user prompt content.
type stubCompletions struct {
	mu      sync.Mutex
	replies map[string]string
	err     error
	calls   int
}

func (s *stubCompletions) CompleteJSON(_ context.Context, _, user string) (json.RawMessage, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for key, reply := range s.replies {
		if key == "" || strings.Contains(user, key) {
			return json.RawMessage(reply), nil
		}
	}
	return json.RawMessage(`{"relevance":"low","confidence":0.9,"reasoning":"unmatched"}`), nil
}

func testConfig() types.FilterConfig {
	return types.FilterConfig{
		BatchSize:       5,
		SamplePages:     3,
		SampleChars:     3000,
		ConfidenceFloor: 0.3,
	}
}

func candidate(url string) types.PdfCandidate {
	return types.PdfCandidate{URL: url, Title: url, Source: "EPAR"}
}

func TestFilterAcceptsHighAndMediumAboveFloor(t *testing.T) {
	candidates := []types.PdfCandidate{
		candidate("https://a.example/high.pdf"),
		candidate("https://a.example/medium.pdf"),
		candidate("https://a.example/low.pdf"),
		candidate("https://a.example/timid.pdf"),
	}
	sampler := stubSampler{samples: map[string]string{
		"https://a.example/high.pdf":   "ibuprofen assessment report body",
		"https://a.example/medium.pdf": "ibuprofen guidance body",
		"https://a.example/low.pdf":    "annual shareholder letter",
		"https://a.example/timid.pdf":  "ibuprofen maybe",
	}}
	completions := &stubCompletions{replies: map[string]string{
		"high.pdf":   `{"relevance":"high","confidence":0.95,"reasoning":"assessment report"}`,
		"medium.pdf": `{"relevance":"medium","confidence":0.6,"reasoning":"mentions substance"}`,
		"low.pdf":    `{"relevance":"low","confidence":0.9,"reasoning":"unrelated"}`,
		"timid.pdf":  `{"relevance":"high","confidence":0.2,"reasoning":"unsure"}`,
	}}

	f := New(completions, sampler, testConfig(), logging.Discard())
	accepted := f.Filter(context.Background(), "ibuprofen", candidates)

	require.Len(t, accepted, 2)
	assert.Equal(t, "https://a.example/high.pdf", accepted[0].URL)
	assert.Equal(t, "https://a.example/medium.pdf", accepted[1].URL)
}

func TestFilterRejectsEmptySampleWithoutAICall(t *testing.T) {
	candidates := []types.PdfCandidate{candidate("https://a.example/scan.pdf")}
	sampler := stubSampler{samples: map[string]string{"https://a.example/scan.pdf": "   \n "}}
	completions := &stubCompletions{}

	f := New(completions, sampler, testConfig(), logging.Discard())
	accepted := f.Filter(context.Background(), "ibuprofen", candidates)

	assert.Empty(t, accepted)
	assert.Zero(t, completions.calls)
}

func TestFilterRejectsOnSamplerError(t *testing.T) {
	candidates := []types.PdfCandidate{candidate("https://a.example/broken.pdf")}
	sampler := stubSampler{errs: map[string]error{"https://a.example/broken.pdf": errors.New("status 403")}}
	completions := &stubCompletions{}

	f := New(completions, sampler, testConfig(), logging.Discard())
	accepted := f.Filter(context.Background(), "ibuprofen", candidates)

	assert.Empty(t, accepted)
	assert.Zero(t, completions.calls)
}

func TestFilterRejectsOnAssessmentFailure(t *testing.T) {
	candidates := []types.PdfCandidate{candidate("https://a.example/doc.pdf")}
	sampler := stubSampler{samples: map[string]string{"https://a.example/doc.pdf": "ibuprofen text"}}
	completions := &stubCompletions{err: errors.New("api overloaded")}

	f := New(completions, sampler, testConfig(), logging.Discard())
	accepted := f.Filter(context.Background(), "ibuprofen", candidates)
	assert.Empty(t, accepted)
}

func TestFilterPreservesCandidateOrderAcrossBatches(t *testing.T) {
	var candidates []types.PdfCandidate
	samples := map[string]string{}
	for i := 0; i < 12; i++ {
		url := fmt.Sprintf("https://a.example/doc-%02d.pdf", i)
		candidates = append(candidates, candidate(url))
		samples[url] = "ibuprofen assessment text"
	}
	completions := &stubCompletions{replies: map[string]string{
		"": `{"relevance":"high","confidence":0.9,"reasoning":"relevant"}`,
	}}

	cfg := testConfig()
	cfg.BatchSize = 5
	f := New(completions, stubSampler{samples: samples}, cfg, logging.Discard())
	accepted := f.Filter(context.Background(), "ibuprofen", candidates)

	require.Len(t, accepted, 12)
	for i, c := range accepted {
		assert.Equal(t, fmt.Sprintf("https://a.example/doc-%02d.pdf", i), c.URL)
	}
	assert.Equal(t, 12, completions.calls)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Equal(t, "abc", truncateRunes("abcdef", 3))
	// "é" is two bytes; cutting at 3 would split it.
	assert.Equal(t, "ab", truncateRunes("abéf", 3))
	assert.Equal(t, "abé", truncateRunes("abéf", 4))
}

func TestFilterSampleTruncationKeepsValidUTF8(t *testing.T) {
	sample := strings.Repeat("µ", 40) // 80 bytes of two-byte runes
	var gotUser string
	completions := &stubCompletions{replies: map[string]string{
		"": `{"relevance":"high","confidence":0.9,"reasoning":"ok"}`,
	}}
	recording := completionsRecorder{inner: completions, user: &gotUser}

	cfg := testConfig()
	cfg.SampleChars = 41
	f := New(recording, stubSampler{samples: map[string]string{"https://a.example/u.pdf": sample}}, cfg, logging.Discard())
	f.Filter(context.Background(), "ibuprofen", []types.PdfCandidate{candidate("https://a.example/u.pdf")})

	assert.True(t, utf8.ValidString(gotUser))
	assert.Contains(t, gotUser, strings.Repeat("µ", 20))
	assert.NotContains(t, gotUser, strings.Repeat("µ", 21))
}

// completionsRecorder captures the user prompt on its way through.
type completionsRecorder struct {
	inner *stubCompletions
	user  *string
}

func (r completionsRecorder) CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	*r.user = user
	return r.inner.CompleteJSON(ctx, system, user)
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    types.RelevanceVerdict
		wantErr bool
	}{
		{
			name:  "plain verdict",
			reply: `{"relevance":"high","confidence":0.8,"reasoning":"ok"}`,
			want:  types.RelevanceVerdict{Relevance: types.RelevanceHigh, Confidence: 0.8, Reasoning: "ok"},
		},
		{
			name:  "uppercase relevance normalized",
			reply: `{"relevance":"Medium","confidence":0.5,"reasoning":"ok"}`,
			want:  types.RelevanceVerdict{Relevance: types.RelevanceMedium, Confidence: 0.5, Reasoning: "ok"},
		},
		{
			name:    "unknown relevance",
			reply:   `{"relevance":"definitely","confidence":0.5,"reasoning":"ok"}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			reply:   `"high"`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVerdict(json.RawMessage(tt.reply))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
