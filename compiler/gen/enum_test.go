package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ocsf/compiler/load"
)

func TestCollectEnums(t *testing.T) {
	g := fixtureGraph(t)

	var names []string
	byName := make(map[string]*EnumFamily)
	for _, e := range g.Enums {
		names = append(names, e.Name)
		byName[e.Name] = e
	}
	assert.Equal(t, []string{"ActivityId", "AuthenticationActivityId", "DeviceTypeId", "SeverityId"}, names)

	auth := byName["AuthenticationActivityId"]
	assert.Equal(t, "authentication", auth.Origin)
	assert.Equal(t, "activity_id", auth.Attr)
	assert.Equal(t, "int32", auth.GoType)
	assert.Equal(t, []EnumConst{
		{Member: "UNKNOWN", ID: 0, Caption: "Unknown"},
		{Member: "LOGON", ID: 1, Caption: "Logon"},
		{Member: "LOGOFF", ID: 2, Caption: "Logoff"},
		{Member: "OTHER", ID: 99, Caption: "Other"},
	}, auth.Values)
	assert.Equal(t, "AuthenticationActivityId_LOGON", auth.Const(auth.Values[1]))
	assert.Equal(t, "AuthenticationActivityIdLabels", auth.LabelsVar())
}

func TestEnumFamilyMembers(t *testing.T) {
	enum := load.Enum{
		{Key: "0", Caption: "Unknown"},
		{Key: "1", Caption: "Other"},
		{Key: "2", Caption: "other"},
		{Key: "01", Caption: "Duplicate ID"},
		{Key: "-1", Caption: "Other"},
	}
	fam := newEnumFamily(&Field{
		Name:      "status_id",
		EnumType:  "StatusId",
		Enum:      enum,
		Primitive: Primitive{"Int", "int32"},
	})
	var members []string
	for _, v := range fam.Values {
		members = append(members, v.Member)
	}
	assert.Equal(t, []string{"UNKNOWN", "OTHER", "OTHER_2", "OTHER_N1"}, members)
}

func TestCollectEnumsConflict(t *testing.T) {
	a := &Type{Name: "a", Fields: []*Field{{
		Name: "state_id", EnumType: "StateId", Primitive: Primitive{"Int", "int32"},
		Enum: load.Enum{{Key: "0", Caption: "Unknown"}},
	}}}
	b := &Type{Name: "b", Fields: []*Field{{
		Name: "state_id", EnumType: "StateId", Primitive: Primitive{"Int", "int32"},
		Enum: load.Enum{{Key: "1", Caption: "Active"}},
	}}}
	_, err := collectEnums([]*Type{a, b})
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
	assert.Contains(t, err.Error(), "StateId")

	fams, err := collectEnums([]*Type{a, a})
	require.NoError(t, err)
	assert.Len(t, fams, 1)
}
