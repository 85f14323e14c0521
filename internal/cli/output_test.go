package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	rootpkg "github.com/getpup/seeder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var sampleStatuses = []rootpkg.Status{
	{Seed: "20240101000000_roles", Applied: true, Batch: 1},
	{Seed: "20240102000000_demo_users"},
}

func TestWriteStatus_Text(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeStatus(&out, formatText, sampleStatuses))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"Ran?", "Seeder", "Batch"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"Y", "20240101000000_roles", "1"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"N", "20240102000000_demo_users"}, strings.Fields(lines[2]))
	assert.Equal(t, strings.Index(lines[0], "Seeder"), strings.Index(lines[1], "2024"), "columns are aligned")
}

func TestWriteStatus_TextEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeStatus(&out, formatText, nil))

	assert.Equal(t, "No seeders found.\n", out.String())
}

func TestWriteStatus_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeStatus(&out, formatJSON, sampleStatuses))

	assert.Contains(t, out.String(), `"seed": "20240101000000_roles"`)
	assert.NotContains(t, out.String(), `"batch": 0`)

	var decoded []rootpkg.Status
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, sampleStatuses, decoded)
}

func TestWriteStatus_YAML(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeStatus(&out, formatYAML, sampleStatuses))

	assert.Contains(t, out.String(), "applied: true")

	var decoded []rootpkg.Status
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, sampleStatuses, decoded)
}

func TestWriteStatus_UnknownFormat(t *testing.T) {
	err := writeStatus(&bytes.Buffer{}, "xml", sampleStatuses)

	assert.EqualError(t, err, `unsupported status format "xml": use text, json or yaml`)
}

func TestEventPrinter(t *testing.T) {
	var out bytes.Buffer
	printer := &eventPrinter{out: &out}

	printer.handle(rootpkg.Event{Kind: rootpkg.EventSeeding, Seed: "a"})
	printer.handle(rootpkg.Event{Kind: rootpkg.EventSeeded, Seed: "a"})
	printer.handle(rootpkg.Event{Kind: rootpkg.EventRollingBack, Seed: "a"})
	printer.handle(rootpkg.Event{Kind: rootpkg.EventRolledBack, Seed: "a"})
	printer.handle(rootpkg.Event{Kind: rootpkg.EventNothingToRun})
	printer.handle(rootpkg.Event{Kind: rootpkg.EventNothingToRollback})
	printer.handle(rootpkg.Event{Kind: rootpkg.EventFailed, Seed: "a"})

	assert.Equal(t, "Seeding: a\nSeeded:  a\nRolling back: a\nRolled back:  a\nNothing to seed.\nNothing to rollback.\n", out.String())
}

func TestEventPrinter_Pretend(t *testing.T) {
	var out bytes.Buffer
	printer := &eventPrinter{out: &out, pretend: true}

	printer.handle(rootpkg.Event{Kind: rootpkg.EventSeeding, Seed: "a"})
	printer.handle(rootpkg.Event{Kind: rootpkg.EventPretend, Seed: "a", Trace: &rootpkg.Trace{
		Seed:       "a",
		Statements: []string{"INSERT INTO t VALUES (1);", "INSERT INTO t VALUES (2);"},
	}})
	printer.handle(rootpkg.Event{Kind: rootpkg.EventPretend, Seed: "b", Trace: &rootpkg.Trace{Seed: "b"}})

	assert.Equal(t, "a: INSERT INTO t VALUES (1);\na: INSERT INTO t VALUES (2);\nb: (no statements)\n", out.String())
}
