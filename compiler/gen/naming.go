package gen

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/mod/semver"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Separator is the native word separator of OCSF identifiers.
const Separator = "_"

// TypeName projects a native snake_case name to a type name. Leading
// separators (abstract entities such as "_entity") are dropped, every
// segment gets an upper-case first character and a lower-case remainder.
// There is no acronym handling: "dns_activity" becomes "DnsActivity".
func TypeName(native string) string {
	lower := cases.Lower(language.Und)
	var b strings.Builder
	for _, seg := range strings.Split(strings.TrimLeft(native, Separator), Separator) {
		if seg == "" {
			continue
		}
		r, n := utf8.DecodeRuneInString(seg)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(lower.String(seg[n:]))
	}
	return b.String()
}

// EnumMember projects an enum caption to a constant member name. Runs of
// characters other than ASCII letters and digits collapse into a single
// separator, the result is upper-cased, prefixed with "V_" when it starts
// with a digit and replaced by "UNKNOWN" when nothing is left.
func EnumMember(caption string) string {
	var b strings.Builder
	sep := false
	for _, r := range caption {
		if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if sep && b.Len() > 0 {
				b.WriteString(Separator)
			}
			sep = false
			b.WriteRune(r)
			continue
		}
		sep = true
	}
	s := cases.Upper(language.Und).String(b.String())
	switch {
	case s == "":
		return "UNKNOWN"
	case s[0] >= '0' && s[0] <= '9':
		return "V_" + s
	}
	return s
}

// VersionSlug projects a semantic version to its package directory name.
// Only major and minor are kept: "1.7.0" and "1.7.1" both become "v1_7".
func VersionSlug(version string) string {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if semver.IsValid(v) {
		return strings.ReplaceAll(semver.MajorMinor(v), ".", Separator)
	}
	parts := strings.SplitN(strings.TrimPrefix(v, "v"), ".", 3)
	if len(parts) < 2 || parts[1] == "" {
		parts = append(parts[:1], "0")
	}
	return "v" + parts[0] + Separator + parts[1]
}

// FileName projects a type name back to snake_case. A separator goes before
// an upper-case letter that follows a lower-case letter or digit, and before
// an upper-case letter that starts a new word after an upper-case run
// ("HTTPRequest" becomes "http_request"). This is a best-effort inverse of
// TypeName and does not round-trip names whose segments start with a digit.
func FileName(typeName string) string {
	rs := []rune(typeName)
	var b strings.Builder
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteString(Separator)
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// goFileName returns the Go source file name for a type name. Names the Go
// toolchain would read as a build constraint get a "_gen" suffix.
func goFileName(typeName string) string {
	name := FileName(typeName)
	if i := strings.LastIndex(name, Separator); i >= 0 {
		last := name[i+1:]
		if last == "test" || knownOS[last] || knownArch[last] {
			name += "_gen"
		}
	}
	return name + ".go"
}

var knownOS = set(
	"aix", "android", "darwin", "dragonfly", "freebsd", "hurd", "illumos", "ios", "js",
	"linux", "nacl", "netbsd", "openbsd", "plan9", "solaris", "wasip1", "windows", "zos",
)

var knownArch = set(
	"386", "amd64", "amd64p32", "arm", "armbe", "arm64", "arm64be", "loong64", "mips",
	"mipsle", "mips64", "mips64le", "mips64p32", "mips64p32le", "ppc", "ppc64", "ppc64le",
	"riscv", "riscv64", "s390", "s390x", "sparc", "sparc64", "wasm",
)

func set(xs ...string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}
