package notify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMessages(t *testing.T) {
	m := NewMessages()

	text, err := m.Render(msgReportStatusChanged, map[string]string{"id": "7", "estado": "Aprobado"})
	require.NoError(t, err)
	assert.Equal(t, "Report #7 is now Aprobado", text)

	text, err = m.Render(msgForcedLogout, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestRenderMissingArgument(t *testing.T) {
	m := NewMessages()
	_, err := m.Render(msgReportStatusChanged, map[string]string{"id": "7"})
	require.Error(t, err)
}

func TestRenderUnknownMessage(t *testing.T) {
	m := NewMessages()
	_, err := m.Render("nope", nil)
	require.Error(t, err)
}

func TestLoadReplacesTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msgs.json")
	err := os.WriteFile(path, []byte(`{"report_status_changed": "#{{id}} -> {{estado}}"}`), 0600)
	require.NoError(t, err)

	m := NewMessages()
	require.NoError(t, m.Load(path))

	text, err := m.Render(msgReportStatusChanged, map[string]string{"id": "7", "estado": "Rechazado"})
	require.NoError(t, err)
	assert.Equal(t, "#7 -> Rechazado", text)

	// templates not present in the file are gone after a load
	_, err = m.Render(msgForcedLogout, nil)
	require.Error(t, err)
}

func TestLoadBadFile(t *testing.T) {
	m := NewMessages()
	require.Error(t, m.Load(filepath.Join(t.TempDir(), "missing.json")))
}
