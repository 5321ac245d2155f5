package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldUseColor_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CLICOLOR_FORCE", "1")
	assert.False(t, ShouldUseColor())
}

func TestShouldUseColor_Force(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR_FORCE", "1")
	assert.True(t, ShouldUseColor())
}

func TestNewRenderer_Plain(t *testing.T) {
	md := "# Title\n\n- item\n"
	out, err := NewRenderer(false)(md)
	require.NoError(t, err)
	assert.Equal(t, md, out)
}

func TestPrintFindings_Plain(t *testing.T) {
	var buf bytes.Buffer
	PrintFindings(&buf, domain.Findings{
		{Kind: domain.KindStructural, Message: "node 'a' references unknown node 'b'"},
		{Kind: domain.KindCoverage, Message: "path a leaves 1 required parameters unassigned: X"},
	}, false)

	assert.Equal(t, "error [structural] node 'a' references unknown node 'b'\n"+
		"warning [coverage] path a leaves 1 required parameters unassigned: X\n"+
		"1 error(s), 1 warning(s)\n", buf.String())
}

func TestPrintBanner_Plain(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, false)
	assert.Contains(t, buf.String(), "|_|")
	assert.NotContains(t, buf.String(), "\x1b[")
}
