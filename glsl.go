package tetragl

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ShaderMeta holds the metadata read from a shader file's "//#" directives, along with the source
// shared by both stages.
type ShaderMeta struct {
	Name             string
	Common           string   // Source before the first stage marker; prepended to both stages
	Includes         []string // Included in both stages
	VertexIncludes   []string
	FragmentIncludes []string
}

// Clone returns a deep copy of the metadata.
func (meta ShaderMeta) Clone() ShaderMeta {
	meta.Includes = append([]string(nil), meta.Includes...)
	meta.VertexIncludes = append([]string(nil), meta.VertexIncludes...)
	meta.FragmentIncludes = append([]string(nil), meta.FragmentIncludes...)
	return meta
}

const (
	directivePrefix   = "//#"
	directiveVertex   = "//#vertex"
	directiveFragment = "//#fragment"
)

var generatedShaderID uint64

func generatedShaderName() string {
	return "Shader" + strconv.FormatUint(atomic.AddUint64(&generatedShaderID, 1), 10)
}

// ParseGLSL splits a combined shader file into a Shader. The file is laid out as:
//
//	//#name MyShader
//	//#include CommonInclude
//	...source shared by both stages...
//	//#vertex
//	//#include VertexInclude
//	...vertex source...
//	//#fragment
//	...fragment source...
//
// "//#include" lines are attached to the section they appear in. Line comments are stripped.
// Shaders without a "//#name" directive get a generated name.
func ParseGLSL(source string) (*Shader, error) {

	const (
		sectionCommon = iota
		sectionVertex
		sectionFragment
	)

	meta := ShaderMeta{}
	var vertex, fragment, common strings.Builder
	section := sectionCommon
	sawVertex, sawFragment := false, false

	for _, line := range strings.Split(source, "\n") {

		line = strings.TrimRight(line, "\r")

		if strings.Contains(line, directivePrefix) {

			switch {
			case strings.Contains(line, directiveVertex):
				section = sectionVertex
				sawVertex = true
			case strings.Contains(line, directiveFragment):
				section = sectionFragment
				sawFragment = true
			default:
				if name, ok := directiveValue(line, "name"); ok && meta.Name == "" {
					meta.Name = name
				}
				if include, ok := directiveValue(line, "include"); ok {
					switch section {
					case sectionCommon:
						meta.Includes = append(meta.Includes, include)
					case sectionVertex:
						meta.VertexIncludes = append(meta.VertexIncludes, include)
					case sectionFragment:
						meta.FragmentIncludes = append(meta.FragmentIncludes, include)
					}
				}
			}

			continue

		}

		if i := strings.Index(line, "//"); i > -1 {
			line = line[:i]
		}

		switch section {
		case sectionCommon:
			common.WriteString(line + "\n")
		case sectionVertex:
			vertex.WriteString(line + "\n")
		case sectionFragment:
			fragment.WriteString(line + "\n")
		}

	}

	if !sawVertex || !sawFragment {
		return nil, errors.Errorf("shader %q needs both a %s and a %s section", meta.Name, directiveVertex, directiveFragment)
	}

	meta.Common = common.String()

	name := meta.Name
	if name == "" {
		name = generatedShaderName()
	}

	shader := NewShader(name, vertex.String(), fragment.String())
	shader.Meta = meta
	return shader, nil

}

// ParseInclude reads an include file: its "//#name" directive names it, other directives are
// ignored and line comments are stripped.
func ParseInclude(source string) (name string, body string) {
	var out strings.Builder
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.Contains(line, directivePrefix) {
			if n, ok := directiveValue(line, "name"); ok && name == "" {
				name = n
			}
			continue
		}
		if i := strings.Index(line, "//"); i > -1 {
			line = line[:i]
		}
		out.WriteString(line + "\n")
	}
	return name, out.String()
}

func directiveValue(line, tag string) (string, bool) {
	p := strings.Index(line, directivePrefix+tag)
	if p < 0 {
		return "", false
	}
	value := strings.TrimSpace(line[p+len(directivePrefix)+len(tag):])
	if value == "" {
		return "", false
	}
	return value, true
}
