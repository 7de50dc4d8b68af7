package gen

// Primitive is the mapping of an OCSF scalar type to generated code.
type Primitive struct {
	// Validator names the constructor in package validate, e.g. "String".
	Validator string
	// GoType is the static Go type of the companion struct field.
	GoType string
}

// Fallback is the mapping of every type missing from the table: accept any
// value and keep it untyped.
var Fallback = Primitive{Validator: "Any", GoType: "any"}

// ObjectType is the native type of attributes that reference an object.
const ObjectType = "object_t"

var primitives = map[string]Primitive{
	"string_t":     {"String", "string"},
	"bytestring_t": {"String", "string"},
	"integer_t":    {"Int", "int32"},
	"int_t":        {"Int", "int32"},
	"long_t":       {"Long", "int64"},
	"boolean_t":    {"Bool", "bool"},
	"float_t":      {"Float", "float64"},
	"double_t":     {"Float", "float64"},
	"json_t":       {"Any", "any"},
	"timestamp_t":  {"Timestamp", "int64"},
	"datetime_t":   {"Datetime", "string"},
	"ip_t":         {"IP", "string"},
	"mac_t":        {"MAC", "string"},
	"email_t":      {"Email", "string"},
	"url_t":        {"URL", "string"},
	"hostname_t":   {"Hostname", "string"},
	"uuid_t":       {"UUID", "string"},
	"subnet_t":     {"CIDR", "string"},
	"cidr_t":       {"CIDR", "string"},
	"port_t":       {"Port", "int32"},
	"country_t":    {"String", "string"},

	// String-shaped subtypes declared in dictionary.types.
	"file_name_t":    {"String", "string"},
	"file_path_t":    {"String", "string"},
	"file_hash_t":    {"String", "string"},
	"process_name_t": {"String", "string"},
	"username_t":     {"String", "string"},
	"resource_uid_t": {"String", "string"},
	"reg_key_path_t": {"String", "string"},
}

// MapType returns the mapping of a native OCSF scalar type. Types that are
// not in the table map to Fallback; this is not an error.
func MapType(native string) Primitive {
	if p, ok := primitives[native]; ok {
		return p
	}
	return Fallback
}

// Known reports whether the native type is in the mapping table.
func Known(native string) bool {
	_, ok := primitives[native]
	return ok
}
