package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLintDefaultCatalog(t *testing.T) {
	out, err := execute(t, "", "lint")
	require.NoError(t, err)

	assert.Contains(t, out, "5 plans, fallback growth-6m")
	assert.Regexp(t, `3\s+6\s+growth-6m\s+fallback`, out)
	assert.Regexp(t, `12\s+6\s+family-excellence-12m\s+exact`, out)
	assert.Contains(t, out, "fallback combinations: 1")
}

func TestLintRejectsInvalidCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plans:\n  - id: a\n    durationMonths: 9\n    studentQuota: 3\n"), 0o600))

	_, err := execute(t, "", "lint", path)
	assert.Error(t, err)
}

func TestRecommend(t *testing.T) {
	out, err := execute(t, "", "recommend", "--children", "4", "--duration", "6", "--goals", "academic,future")
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "family-growth-6m", rec["recommendedPlan"].(map[string]any)["id"])
	assert.Equal(t, false, rec["fallback"])

	_, err = execute(t, "", "recommend", "--children", "2")
	assert.Error(t, err, "duration is required")

	_, err = execute(t, "", "recommend", "--children", "2", "--duration", "9")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := `{"email":"  Parent@Example.com ","utm":"ignored"}`
	out, err := execute(t, valid, "validate", "--form", "newsletter", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"isValid": true`)
	assert.NotContains(t, out, "utm")

	path := filepath.Join(t.TempDir(), "contact.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"A","email":"bad"}`), 0o600))
	out, err = execute(t, "", "validate", "--form", "contact", path)
	assert.True(t, errors.Is(err, errInvalidPayload))
	assert.Contains(t, out, `"isValid": false`)

	_, err = execute(t, "{}", "validate", "--form", "survey")
	assert.ErrorContains(t, err, "unknown form")

	_, err = execute(t, "not json", "validate", "--form", "contact")
	assert.ErrorContains(t, err, "decode payload")
}
