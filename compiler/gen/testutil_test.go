package gen

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/syssam/ocsf/compiler/load"
)

func file(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }

// fixtureTree is a small schema with inheritance, a dictionary override, a
// two-node cycle (user <-> group), a self-loop (process) and enumerations.
func fixtureTree() fstest.MapFS {
	return fstest.MapFS{
		"version.json": file(`{"version": "1.7.0"}`),
		"dictionary.json": file(`{
			"attributes": {
				"name": {"caption": "Name", "type": "string_t"},
				"uid": {"caption": "Unique ID", "type": "string_t"},
				"hostname": {"caption": "Hostname", "type": "hostname_t"},
				"ip": {"caption": "IP Address", "type": "ip_t"},
				"count": {"caption": "Count", "type": "integer_t"},
				"hash": {"caption": "Hash", "type": "file_hash_t"},
				"data": {"caption": "Data", "type": "blob_t"},
				"time": {"caption": "Event Time", "type": "timestamp_t"},
				"type_id": {"caption": "Type ID", "type": "integer_t"},
				"activity_id": {"caption": "Activity ID", "type": "integer_t",
					"enum": {"0": {"caption": "Unknown"}, "99": {"caption": "Other"}}},
				"severity_id": {"caption": "Severity ID", "type": "integer_t",
					"enum": {"0": {"caption": "Unknown"}, "1": {"caption": "Informational"}}},
				"device": {"caption": "Device", "type": "object_t", "object_type": "device"},
				"user": {"caption": "User", "type": "object_t", "object_type": "user"},
				"owner": {"caption": "Owner", "type": "object_t", "object_type": "user"},
				"groups": {"caption": "Groups", "type": "object_t", "object_type": "group", "is_array": true},
				"parent_process": {"caption": "Parent Process", "type": "object_t", "object_type": "process"}
			},
			"types": {"attributes": {"file_hash_t": {"type": "string_t"}}}
		}`),
		"categories.json": file(`{"attributes": {"iam": {"uid": 3, "caption": "Identity & Access Management"}}}`),
		"objects/_entity.json": file(`{"name": "_entity", "caption": "Entity",
			"attributes": {"name": {}, "uid": {}}}`),
		"objects/blob.json":    file(`{"name": "blob", "caption": "Blob", "attributes": {"data": {}, "hash": {}}}`),
		"objects/counter.json": file(`{"name": "counter", "extends": "_entity", "attributes": {"count": {"type": "string_t"}}}`),
		"objects/device.json": file(`{"name": "device", "caption": "Device", "extends": "_entity",
			"description": "The device <b>that</b> reported the event.",
			"attributes": {
				"hostname": {"requirement": "required"},
				"ip": {},
				"type_id": {"enum": {"0": {"caption": "Unknown"}, "1": {"caption": "Server"}, "99": {"caption": "Other"}}}
			}}`),
		"objects/group.json":   file(`{"name": "group", "caption": "Group", "extends": "_entity", "attributes": {"owner": {}}}`),
		"objects/process.json": file(`{"name": "process", "caption": "Process", "attributes": {"name": {}, "parent_process": {}}}`),
		"objects/user.json":    file(`{"name": "user", "caption": "User", "extends": "_entity", "attributes": {"groups": {}}}`),
		"events/base_event.json": file(`{"name": "base_event", "caption": "Base Event", "uid": 0,
			"attributes": {
				"activity_id": {"requirement": "required"},
				"time": {"requirement": "required"},
				"severity_id": {}
			}}`),
		"events/iam/authentication.json": file(`{"name": "authentication", "caption": "Authentication",
			"extends": "base_event", "category": "iam", "uid": 2,
			"attributes": {
				"activity_id": {"enum": {"1": {"caption": "Logon"}, "2": {"caption": "Logoff"}}},
				"user": {"requirement": "required"},
				"device": {}
			}}`),
	}
}

func fixtureSchema(t testing.TB, tree fstest.MapFS) *load.Schema {
	t.Helper()
	s, err := load.NewLoader(tree).Load()
	require.NoError(t, err)
	return s
}

func fixtureGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	cfg, err := NewConfig(append([]Option{WithPackage("github.com/acme/ocsfgo"), WithWorkers(2)}, opts...)...)
	require.NoError(t, err)
	v, err := NewSchemaVersion("1.7.0", "")
	require.NoError(t, err)
	g, err := NewGraph(cfg, v, fixtureSchema(t, fixtureTree()))
	require.NoError(t, err)
	return g
}

func testConfig(t *testing.T, opts ...Option) *Config {
	t.Helper()
	cfg, err := NewConfig(append([]Option{
		WithPackage("github.com/acme/ocsfgo"),
		WithTarget(t.TempDir()),
		WithWorkers(2),
	}, opts...)...)
	require.NoError(t, err)
	return cfg
}
