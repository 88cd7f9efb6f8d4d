package profile

import (
	"cmp"
	"strconv"
	"strings"
)

// PSVersion is a PowerShell version: major[.minor[.build[.revision]]] or
// major.minor.build-label[+buildlabel]. Absent components are -1.
type PSVersion struct {
	Major           int
	Minor           int
	Build           int
	Revision        int
	PreReleaseLabel string
	BuildLabel      string
}

// versionState is a position in the version grammar.
type versionState int

const (
	inMajor versionState = iota
	inMinor
	inBuild
	inRevision
	inLabel
	inBuildLabel
)

// versionTransitions lists, for each numeric state, the separators that may
// follow it and the state each one leads to. A label may only follow the
// build component, so revision and label are mutually exclusive.
var versionTransitions = map[versionState]map[byte]versionState{
	inMajor:    {'.': inMinor},
	inMinor:    {'.': inBuild},
	inBuild:    {'.': inRevision, '-': inLabel},
	inRevision: {},
}

// ParsePSVersion parses s against the version grammar. Failures are
// returned as *ParseError.
func ParsePSVersion(s string) (PSVersion, error) {
	v := PSVersion{Minor: -1, Build: -1, Revision: -1}
	fail := func(reason string) (PSVersion, error) {
		return PSVersion{}, &ParseError{Input: s, Reason: reason}
	}
	if s == "" {
		return fail("empty version")
	}

	state := inMajor
	rest := s
	for {
		switch state {
		case inLabel:
			label, build, hasBuild := strings.Cut(rest, "+")
			if label == "" {
				return fail("empty pre-release label")
			}
			v.PreReleaseLabel = label
			if !hasBuild {
				return v, nil
			}
			rest, state = build, inBuildLabel
			continue
		case inBuildLabel:
			if rest == "" {
				return fail("empty build label")
			}
			v.BuildLabel = rest
			return v, nil
		}

		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if end == 0 {
			return fail("expected digit")
		}
		n, err := strconv.Atoi(rest[:end])
		if err != nil {
			return fail("component out of range")
		}
		switch state {
		case inMajor:
			v.Major = n
		case inMinor:
			v.Minor = n
		case inBuild:
			v.Build = n
		case inRevision:
			v.Revision = n
		}
		rest = rest[end:]
		if rest == "" {
			return v, nil
		}
		next, ok := versionTransitions[state][rest[0]]
		if !ok {
			return fail("unexpected " + strconv.QuoteRune(rune(rest[0])))
		}
		state = next
		rest = rest[1:]
	}
}

func (v PSVersion) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(v.Major))
	for _, n := range []int{v.Minor, v.Build, v.Revision} {
		if n < 0 {
			break
		}
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(n))
	}
	if v.PreReleaseLabel != "" {
		b.WriteByte('-')
		b.WriteString(v.PreReleaseLabel)
		if v.BuildLabel != "" {
			b.WriteByte('+')
			b.WriteString(v.BuildLabel)
		}
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (v PSVersion) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *PSVersion) UnmarshalText(text []byte) error {
	parsed, err := ParsePSVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Compare orders versions by numeric components, absent components first.
// A pre-release sorts before the release it precedes. It returns -1, 0 or
// +1.
func (v PSVersion) Compare(o PSVersion) int {
	for _, pair := range [][2]int{
		{v.Major, o.Major},
		{v.Minor, o.Minor},
		{v.Build, o.Build},
		{v.Revision, o.Revision},
	} {
		if c := cmp.Compare(pair[0], pair[1]); c != 0 {
			return c
		}
	}
	switch {
	case v.PreReleaseLabel == o.PreReleaseLabel:
		return 0
	case v.PreReleaseLabel == "":
		return 1
	case o.PreReleaseLabel == "":
		return -1
	}
	return strings.Compare(v.PreReleaseLabel, o.PreReleaseLabel)
}
