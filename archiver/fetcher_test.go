package archiver

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRest serves canned response bodies keyed by request order and
// records every requested URL.
type fakeRest struct {
	responses []string
	urls      []string
	err       error
}

func (f *fakeRest) RequestWithBucketID(method, urlStr string, data interface{}, bucketID string, options ...discordgo.RequestOption) ([]byte, error) {
	f.urls = append(f.urls, urlStr)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return []byte("[]"), nil
	}
	body := f.responses[0]
	f.responses = f.responses[1:]
	return []byte(body), nil
}

func TestPagerWalksBackward(t *testing.T) {
	rest := &fakeRest{responses: []string{
		`[{"id":"30"},{"id":"20"}]`,
		`[{"id":"10"}]`,
		`[]`,
	}}
	pager := newMessagePager(rest, "chan-1", "", 2)

	first, err := pager.Next()
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "30", first[0].ID)

	second, err := pager.Next()
	require.NoError(t, err)
	require.Len(t, second, 1)

	third, err := pager.Next()
	require.NoError(t, err)
	assert.Nil(t, third)

	require.Len(t, rest.urls, 3)
	// The first request carries no cursor, each following request uses the
	// oldest id of the previous batch.
	assert.NotContains(t, rest.urls[0], "before")
	assert.Contains(t, rest.urls[0], "limit=2")
	assert.Contains(t, rest.urls[1], "before=20")
	assert.Contains(t, rest.urls[2], "before=10")
}

func TestPagerStartsFromCursor(t *testing.T) {
	rest := &fakeRest{responses: []string{`[]`}}
	pager := newMessagePager(rest, "chan-1", "500", 0)

	batch, err := pager.Next()
	require.NoError(t, err)
	assert.Nil(t, batch)

	require.Len(t, rest.urls, 1)
	assert.Contains(t, rest.urls[0], "before=500")
	assert.Contains(t, rest.urls[0], "limit=100")
}

func TestPagerStaysDone(t *testing.T) {
	rest := &fakeRest{responses: []string{`[]`}}
	pager := newMessagePager(rest, "chan-1", "", 0)

	batch, err := pager.Next()
	require.NoError(t, err)
	assert.Nil(t, batch)

	batch, err = pager.Next()
	require.NoError(t, err)
	assert.Nil(t, batch)

	// No request is issued once the sequence has terminated.
	assert.Len(t, rest.urls, 1)
}

func TestPagerPropagatesTransportErrors(t *testing.T) {
	rest := &fakeRest{err: assert.AnError}
	pager := newMessagePager(rest, "chan-1", "", 0)

	_, err := pager.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPagerNeverRepeatsIDs(t *testing.T) {
	rest := &fakeRest{responses: []string{
		`[{"id":"30"},{"id":"20"}]`,
		`[{"id":"15"},{"id":"10"}]`,
		`[]`,
	}}
	pager := newMessagePager(rest, "chan-1", "", 2)

	seen := make(map[string]bool)
	for {
		batch, err := pager.Next()
		require.NoError(t, err)
		if batch == nil {
			break
		}
		for _, msg := range batch {
			assert.False(t, seen[msg.ID], "message %s yielded twice", msg.ID)
			seen[msg.ID] = true
		}
	}
	assert.Len(t, seen, 4)
}
