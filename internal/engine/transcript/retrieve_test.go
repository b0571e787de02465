package transcript

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captext/captext/internal/engine"
)

// fakeStrategy scripts one strategy's behavior and records how often the
// orchestrator invoked it.
type fakeStrategy struct {
	tag     string
	payload *Payload
	err     error
	calls   *int
}

func (f fakeStrategy) Tag() string { return f.tag }

func (f fakeStrategy) Fetch(ctx context.Context, req *Request) (*Payload, error) {
	*f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

// installFakes registers the given strategies under fresh tags and restores
// the real registry and backoff unit when the test finishes.
func installFakes(t *testing.T, fakes ...fakeStrategy) []string {
	t.Helper()
	engine.Init(engine.Config{})

	oldUnit := backoffUnit
	backoffUnit = time.Millisecond
	tags := make([]string, 0, len(fakes))
	for _, f := range fakes {
		f := f
		strategyFactories[f.tag] = func() Strategy { return f }
		tags = append(tags, f.tag)
	}
	t.Cleanup(func() {
		backoffUnit = oldUnit
		for _, f := range fakes {
			delete(strategyFactories, f.tag)
		}
	})
	return tags
}

func textPayload(text string) *Payload {
	return &Payload{Format: FormatTrackJSON, Data: []byte(`[{"text":"` + text + `"}]`), Language: "en"}
}

func TestRetrieveFirstStrategyWins(t *testing.T) {
	var aCalls, bCalls int
	tags := installFakes(t,
		fakeStrategy{tag: "fake_a", payload: textPayload("hello"), calls: &aCalls},
		fakeStrategy{tag: "fake_b", payload: textPayload("never"), calls: &bCalls},
	)

	res, err := Retrieve(context.Background(), "https://youtu.be/dQw4w9WgXcQ", Options{Strategies: tags})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "dQw4w9WgXcQ", res.VideoID)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, "en", res.Language)
	assert.Empty(t, res.Attempts)
	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 0, bCalls, "later strategies must not run after a success")
}

func TestRetrieveFallsBackOnPermanentFailure(t *testing.T) {
	var aCalls, bCalls int
	tags := installFakes(t,
		fakeStrategy{tag: "fake_a", err: kindErr(KindNotFound, "no track"), calls: &aCalls},
		fakeStrategy{tag: "fake_b", payload: textPayload("rescued"), calls: &bCalls},
	)

	res, err := Retrieve(context.Background(), "https://youtu.be/dQw4w9WgXcQ", Options{Strategies: tags})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "rescued", res.Text)
	assert.Equal(t, 1, aCalls, "not_found is permanent, no retry")
	assert.Equal(t, 1, bCalls)

	require.Len(t, res.Attempts, 1)
	assert.Equal(t, "fake_a", res.Attempts[0].Strategy)
	assert.Equal(t, KindNotFound, res.Attempts[0].Kind)
}

func TestRetrieveRetriesTransientToCeiling(t *testing.T) {
	var calls int
	tags := installFakes(t,
		fakeStrategy{tag: "fake_a", err: transportErr(nil, "connection refused"), calls: &calls},
	)

	res, err := Retrieve(context.Background(), "https://youtu.be/dQw4w9WgXcQ", Options{Strategies: tags})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 3, calls, "transient failures retry up to three total attempts")

	require.Len(t, res.Attempts, 1, "retries collapse into one logged attempt")
	assert.Equal(t, KindTransient, res.Attempts[0].Kind)
}

func TestRetrieveAllStrategiesFail(t *testing.T) {
	var aCalls, bCalls int
	tags := installFakes(t,
		fakeStrategy{tag: "fake_a", err: kindErr(KindDisabled, "captions off"), calls: &aCalls},
		fakeStrategy{tag: "fake_b", err: kindErr(KindNotFound, "no track"), calls: &bCalls},
	)

	res, err := Retrieve(context.Background(), "https://youtu.be/dQw4w9WgXcQ", Options{Strategies: tags})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "dQw4w9WgXcQ", res.VideoID)
	assert.Empty(t, res.Text)

	require.Len(t, res.Attempts, 2)
	assert.Equal(t, KindDisabled, res.Attempts[0].Kind)
	assert.Equal(t, KindNotFound, res.Attempts[1].Kind)
}

func TestRetrieveMalformedPayloadFallsThrough(t *testing.T) {
	var aCalls, bCalls int
	tags := installFakes(t,
		fakeStrategy{tag: "fake_a", payload: &Payload{Format: FormatTrackJSON, Data: []byte("{broken")}, calls: &aCalls},
		fakeStrategy{tag: "fake_b", payload: textPayload("clean"), calls: &bCalls},
	)

	res, err := Retrieve(context.Background(), "https://youtu.be/dQw4w9WgXcQ", Options{Strategies: tags})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "clean", res.Text)

	require.Len(t, res.Attempts, 1)
	assert.Equal(t, KindMalformed, res.Attempts[0].Kind)
}

func TestRetrieveInvalidURL(t *testing.T) {
	installFakes(t)

	res, err := Retrieve(context.Background(), "https://vimeo.com/12345", Options{Strategies: []string{StrategyAPI}})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, res.VideoID)

	require.Len(t, res.Attempts, 1)
	assert.Equal(t, "identifier_resolution", res.Attempts[0].Strategy)
	assert.Equal(t, KindInvalidURL, res.Attempts[0].Kind)
}

func TestRetrieveUnknownStrategyTag(t *testing.T) {
	installFakes(t)

	_, err := Retrieve(context.Background(), "https://youtu.be/dQw4w9WgXcQ", Options{Strategies: []string{"telepathy"}})
	require.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestSelectTrack(t *testing.T) {
	tracks := []captionTrack{
		{LanguageCode: "de", Kind: "asr"},
		{LanguageCode: "en", Kind: ""},
		{LanguageCode: "fr", Kind: ""},
	}

	tests := []struct {
		name  string
		langs []string
		want  string
	}{
		{"exact match", []string{"fr"}, "fr"},
		{"preference order", []string{"fr", "en"}, "fr"},
		{"second preference", []string{"es", "en"}, "en"},
		{"no match falls to asr", []string{"ja"}, "de"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectTrack(tracks, tt.langs)
			assert.Equal(t, tt.want, got.LanguageCode)
		})
	}

	t.Run("no asr falls to manual", func(t *testing.T) {
		manual := []captionTrack{{LanguageCode: "pt", Kind: ""}}
		assert.Equal(t, "pt", selectTrack(manual, []string{"ja"}).LanguageCode)
	})
}
