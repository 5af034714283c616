package inference

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

const altRulesJSON = `{
  "touristic": [
    {"conditions": [{"category": "pricerange", "value": "expensive"}],
     "consequence": true}
  ]
}`

func writeRules(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWatcherReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)
	path := filepath.Join(t.TempDir(), "rules.json")
	writeRules(t, path, testRulesJSON)

	w, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Close()

	require.True(t, w.Rules().Known("romantic"))

	// Past the debounce window, then replace the file.
	time.Sleep(300 * time.Millisecond)
	writeRules(t, path, altRulesJSON)

	assert.Eventually(t, func() bool {
		rs := w.Rules()
		return rs.Known("touristic") && !rs.Known("romantic")
	}, 3*time.Second, 50*time.Millisecond, "new rule set never became active")
}

func TestWatcherKeepsOldSetOnBadFile(t *testing.T) {
	defer goleak.VerifyNone(t)
	path := filepath.Join(t.TempDir(), "rules.json")
	writeRules(t, path, testRulesJSON)

	w, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Close()

	time.Sleep(300 * time.Millisecond)
	writeRules(t, path, `{"broken":`)

	// The bad write must not clear the active set, now or later.
	time.Sleep(500 * time.Millisecond)
	assert.True(t, w.Rules().Known("romantic"), "previous set must survive a bad reload")
}

func TestNewWatcherFailsFastOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	writeRules(t, path, `not json`)

	_, err := NewWatcher(path, zap.NewNop())
	require.Error(t, err)
}

func TestWatcherCloseStopsGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)
	path := filepath.Join(t.TempDir(), "rules.json")
	writeRules(t, path, testRulesJSON)

	w, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.Close())
}
