package gen

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderFixture(t *testing.T, opts ...Option) map[string]string {
	t.Helper()
	cfg := testConfig(t, opts...)
	files, err := NewGenerator(cfg, fixtureGraph(t, opts...)).Files(context.Background())
	require.NoError(t, err)
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.Path] = string(f.Content)
	}
	return out
}

func TestGeneratorFiles(t *testing.T) {
	cfg := testConfig(t)
	files, err := NewGenerator(cfg, fixtureGraph(t)).Files(context.Background())
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
		assert.NotEmpty(t, f.Content, f.Path)
	}
	assert.Equal(t, []string{
		"doc.go",
		"enums/activity_id.go",
		"enums/authentication_activity_id.go",
		"enums/device_type_id.go",
		"enums/enums.go",
		"enums/severity_id.go",
		"events/authentication.go",
		"events/base_event.go",
		"events/events.go",
		"objects/blob.go",
		"objects/counter.go",
		"objects/device.go",
		"objects/entity.go",
		"objects/group.go",
		"objects/objects.go",
		"objects/process.go",
		"objects/user.go",
		"v1_7.go",
	}, paths)
}

func TestGenerateObject(t *testing.T) {
	out := renderFixture(t)

	t.Run("header and package", func(t *testing.T) {
		code := out["objects/user.go"]
		assert.Contains(t, code, "// Code generated by ocsfgen. DO NOT EDIT.")
		assert.Contains(t, code, "package objects")
		assert.Contains(t, code, `"github.com/syssam/ocsf/validate"`)
	})

	t.Run("deferred edge is a lazy lookup", func(t *testing.T) {
		code := out["objects/user.go"]
		assert.Contains(t, code, `var UserSchema = Slots.Define("user", validate.Object(`)
		assert.Contains(t, code, `validate.Field("groups", validate.Array(Slots.Lazy("group"))).Optional(),`)
		assert.Regexp(t, "Groups\\s+\\[\\]Group\\s+`json:\"groups,omitempty\"`", code)
		assert.Contains(t, code, "a list of Groups")
	})

	t.Run("eager edge references the validator", func(t *testing.T) {
		code := out["objects/group.go"]
		assert.Contains(t, code, `validate.Field("owner", UserSchema).Optional(),`)
		assert.Regexp(t, `Owner\s+\*User\s+`, code)
	})

	t.Run("self loop", func(t *testing.T) {
		code := out["objects/process.go"]
		assert.Contains(t, code, `validate.Field("parent_process", Slots.Lazy("process")).Optional(),`)
		assert.Regexp(t, `ParentProcess\s+\*Process\s+`, code)
	})

	t.Run("scalars and enums", func(t *testing.T) {
		code := out["objects/device.go"]
		assert.Contains(t, code, `validate.Field("hostname", validate.Hostname()),`)
		assert.Contains(t, code, `validate.Field("ip", validate.IP()).Optional(),`)
		assert.Contains(t, code, `validate.Field("type_id", validate.Int().OneOf(0, 1, 99)).Optional(),`)
		assert.Contains(t, code, "validate.Passthrough")
		assert.Regexp(t, "Hostname\\s+string\\s+`json:\"hostname\"`", code)
		assert.Regexp(t, `Ip\s+\*string\s+`, code)
		assert.Regexp(t, `TypeId\s+\*enums\.DeviceTypeId\s+`, code)
		assert.Contains(t, code, `"github.com/acme/ocsfgo/v1_7/enums"`)
		assert.Contains(t, code, "// The device that reported the event.")
		assert.NotContains(t, code, "<b>")
	})

	t.Run("unmapped type falls back to any", func(t *testing.T) {
		code := out["objects/blob.go"]
		assert.Contains(t, code, `validate.Field("data", validate.Any()).Optional(),`)
		assert.Regexp(t, `Data\s+any\s+`, code)
		assert.Contains(t, code, `validate.Field("hash", validate.String()).Optional(),`)
	})

	t.Run("open entity keeps unmodeled attributes", func(t *testing.T) {
		code := out["objects/process.go"]
		assert.Regexp(t, "Extra\\s+map\\[string\\]any\\s+`json:\"-\"`", code)
		assert.Contains(t, code, "func (x *Process) UnmarshalJSON(data []byte) error {")
		assert.Regexp(t, `(?s)type plain Process\s+extra, err := validate\.DecodeExtra\(\s+data,\s+\(\*plain\)\(x\),\s+"name",\s+"parent_process",\s+\)`, code)
		assert.Contains(t, code, "x.Extra = extra")
		assert.Contains(t, code, "func (x Process) MarshalJSON() ([]byte, error) {")
		assert.Contains(t, code, "return validate.EncodeExtra(plain(x), x.Extra)")
	})

	t.Run("abstract entity", func(t *testing.T) {
		code := out["objects/entity.go"]
		assert.Contains(t, code, "type Entity struct")
		assert.Contains(t, code, `var EntitySchema = Slots.Define("_entity", validate.Object(`)
	})
}

func TestGenerateEvent(t *testing.T) {
	code := renderFixture(t)["events/authentication.go"]

	assert.Contains(t, code, "package events")
	assert.Contains(t, code, "AuthenticationSchema = validate.Object(")
	assert.Contains(t, code, `validate.Field("user", objects.UserSchema),`)
	assert.Contains(t, code, `validate.Field("device", objects.DeviceSchema).Optional(),`)
	assert.Contains(t, code, `validate.Field("activity_id", validate.Int().OneOf(0, 1, 2, 99)),`)
	assert.Contains(t, code, `validate.Field("time", validate.Timestamp()),`)
	assert.Contains(t, code, "AuthenticationClass = ocsf.ClassInfo{")
	assert.Regexp(t, `CategoryUID:\s+3,`, code)
	assert.Regexp(t, `ClassUID:\s+3002,`, code)
	assert.Regexp(t, `User\s+\*objects\.User\s+`, code)
	assert.Regexp(t, `ActivityId\s+enums\.AuthenticationActivityId\s+`, code)
	assert.Regexp(t, `Time\s+int64\s+`, code)
	assert.Contains(t, code, "func (x *Authentication) UnmarshalJSON(data []byte) error {")
	assert.Contains(t, code, "func (x Authentication) MarshalJSON() ([]byte, error) {")
}

func TestGenerateEnum(t *testing.T) {
	code := renderFixture(t)["enums/authentication_activity_id.go"]

	assert.Contains(t, code, "package enums")
	assert.Contains(t, code, "type AuthenticationActivityId int32")
	assert.Regexp(t, `AuthenticationActivityId_LOGON\s+AuthenticationActivityId = 1`, code)
	assert.Regexp(t, `AuthenticationActivityId_OTHER\s+AuthenticationActivityId = 99`, code)
	assert.Regexp(t, `AuthenticationActivityId_LOGON:\s+"Logon",`, code)
	assert.Contains(t, code, "func (v AuthenticationActivityId) String() string {")
	assert.Contains(t, code, "strconv.FormatInt(int64(v), 10)")
}

func TestGenerateBarrels(t *testing.T) {
	out := renderFixture(t)

	t.Run("objects", func(t *testing.T) {
		code := out["objects/objects.go"]
		assert.Contains(t, code, "// Package objects holds the OCSF 1.7.0 objects.")
		assert.Contains(t, code, `var Slots = validate.NewArena("v1_7/objects")`)
		assert.Regexp(t, `(?s)var Names = \[\]string\{\s+"_entity",.*"process",\s+"user",\s+"group",\s+\}`, code)
		assert.Contains(t, code, `var Registry = ocsf.NewRegistry("object", map[string]validate.Schema{`)
		assert.Regexp(t, `"user":\s+UserSchema,`, code)
	})

	t.Run("events", func(t *testing.T) {
		code := out["events/events.go"]
		assert.Regexp(t, `"authentication":\s+AuthenticationSchema,`, code)
		assert.Regexp(t, `"authentication":\s+AuthenticationClass,`, code)
		assert.Contains(t, code, "var Classes = map[string]ocsf.ClassInfo{")
	})

	t.Run("enums", func(t *testing.T) {
		code := out["enums/enums.go"]
		assert.Contains(t, code, "func Label(family string, id int64) (string, bool) {")
		assert.Contains(t, code, `case "DeviceTypeId":`)
		assert.Contains(t, code, "DeviceTypeIdLabels[DeviceTypeId(id)]")
	})

	t.Run("enum label range", func(t *testing.T) {
		tree := fixtureTree()
		tree["objects/counter.json"] = file(`{"name": "counter", "extends": "_entity",
			"attributes": {"level_id": {"type": "long_t", "enum": {"1": {"caption": "Low"}}}}}`)
		cfg := testConfig(t)
		v, err := NewSchemaVersion("1.7.0", "")
		require.NoError(t, err)
		g, err := NewGraph(cfg, v, fixtureSchema(t, tree))
		require.NoError(t, err)
		files, err := NewGenerator(cfg, g).Files(context.Background())
		require.NoError(t, err)
		var code string
		for _, f := range files {
			if f.Path == "enums/enums.go" {
				code = string(f.Content)
			}
		}
		require.NotEmpty(t, code)
		assert.Contains(t, code, `"math"`)
		assert.Regexp(t, `(?s)case "DeviceTypeId":\s+if id < math\.MinInt32 \|\| id > math\.MaxInt32 \{\s+return "", false\s+\}\s+s, ok := DeviceTypeIdLabels\[DeviceTypeId\(id\)\]`, code)
		assert.Regexp(t, `(?s)case "CounterLevelId":\s+s, ok := CounterLevelIdLabels\[CounterLevelId\(id\)\]`, code)
	})

	t.Run("version", func(t *testing.T) {
		code := out["v1_7.go"]
		assert.Contains(t, code, "package v1_7")
		assert.Contains(t, code, `const Version = "1.7.0"`)
		assert.Regexp(t, `Objects\s+= objects\.Registry`, code)
		assert.Contains(t, code, "return enums.Label(family, id)")
	})

	t.Run("doc", func(t *testing.T) {
		code := out["doc.go"]
		assert.Contains(t, code, "// Package v1_7 holds validators for OCSF schema version 1.7.0.")
		assert.Contains(t, code, "//   - process.parent_process -> process")
		assert.Contains(t, code, "//   - user.groups -> group")
		assert.Contains(t, code, "package v1_7")
	})
}

func TestGenerateStrict(t *testing.T) {
	out := renderFixture(t, WithStrict("device"))
	assert.Contains(t, out["objects/device.go"], "validate.Strict,")
	assert.Contains(t, out["objects/user.go"], "validate.Passthrough,")

	device := out["objects/device.go"]
	assert.NotContains(t, device, "Extra")
	assert.NotContains(t, device, "UnmarshalJSON")
	assert.NotContains(t, device, "MarshalJSON")
	assert.Regexp(t, `Extra\s+map\[string\]any`, out["objects/user.go"])
}

func TestGenerateDeterministic(t *testing.T) {
	first := renderFixture(t)
	for range 3 {
		assert.Equal(t, first, renderFixture(t))
	}
}

func TestGenerateCollisions(t *testing.T) {
	tree := fixtureTree()
	tree["objects/entity.json"] = file(`{"name": "entity", "attributes": {}}`)
	cfg := testConfig(t)
	v, err := NewSchemaVersion("1.7.0", "")
	require.NoError(t, err)
	g, err := NewGraph(cfg, v, fixtureSchema(t, tree))
	require.NoError(t, err)

	_, err = NewGenerator(cfg, g).Files(context.Background())
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
	assert.Contains(t, err.Error(), "objects.Entity")
	assert.Contains(t, err.Error(), "objects/entity.go")
}

func TestRootFile(t *testing.T) {
	cfg := testConfig(t)
	v16, err := NewSchemaVersion("1.6.0", "")
	require.NoError(t, err)
	v17, err := NewSchemaVersion("v1.7.0", "")
	require.NoError(t, err)

	f, err := RootFile(cfg, []SchemaVersion{v17, v16}, v17)
	require.NoError(t, err)
	code := string(f.Content)
	assert.Equal(t, "ocsf.go", f.Path)
	assert.Contains(t, code, "package ocsfgo")
	assert.Contains(t, code, `"github.com/acme/ocsfgo/v1_7"`)
	assert.Contains(t, code, "const Version = v1_7.Version")
	assert.Regexp(t, `(?s)var Versions = \[\]string\{\s+"1.6.0",\s+"1.7.0",\s+\}`, code)
	assert.Regexp(t, `Events\s+= v1_7\.Events`, code)
}

func TestGenerateMultiLineHeader(t *testing.T) {
	out := renderFixture(t, WithHeader("Code generated by ocsfgen. DO NOT EDIT.\n\nCopyright Acme Corp."))
	doc := out["doc.go"]
	require.NotEmpty(t, doc)
	assert.True(t, strings.HasPrefix(doc, "// Code generated by ocsfgen. DO NOT EDIT.\n//\n// Copyright Acme Corp.\n"), doc)
	assert.Contains(t, doc, "package v1_7")
	for _, p := range []string{"objects/user.go", "events/authentication.go", "enums/enums.go", "v1_7.go"} {
		assert.True(t, strings.HasPrefix(out[p], "// Code generated by ocsfgen. DO NOT EDIT.\n//\n// Copyright Acme Corp.\n"), p)
	}
}

func TestLineComment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single line", in: "Code generated. DO NOT EDIT.", want: "// Code generated. DO NOT EDIT."},
		{name: "already commented", in: "// Code generated. DO NOT EDIT.", want: "// Code generated. DO NOT EDIT."},
		{name: "several lines", in: "first\n\n// second\nthird\n", want: "// first\n//\n// second\n// third"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lineComment(tt.in))
		})
	}
}

func TestDocText(t *testing.T) {
	assert.Equal(t, "The host & its <children>.", docText("The <b>host</b> &amp;   its\n &lt;children&gt;."))
	assert.Equal(t, "", docText("  <br/> "))
}
