package engine

import (
	"fmt"
	"strings"

	"github.com/viant/parsly"
)

const (
	refOpen  = "{{"
	refClose = "}}"
)

// parseReference parses the inside of a {{...}} reference into path segments:
// a bare context variable ("incident_email") or a sibling output path
// ("snapshot.output.artifact_id").
func parseReference(expr string) ([]string, error) {
	cursor := parsly.NewCursor("", []byte(expr), 0)
	var path []string

	matched := cursor.MatchAfterOptional(whitespaceToken, identifierToken)
	if matched.Code != identifierToken.Code {
		return nil, cursor.NewError(identifierToken)
	}
	path = append(path, matched.Text(cursor))

	for {
		matched = cursor.MatchOne(dotToken)
		if matched.Code != dotToken.Code {
			break
		}
		matched = cursor.MatchOne(identifierToken)
		if matched.Code != identifierToken.Code {
			return nil, cursor.NewError(identifierToken)
		}
		path = append(path, matched.Text(cursor))
	}

	matched = cursor.MatchOne(whitespaceToken)
	if cursor.Pos < cursor.InputSize {
		return nil, fmt.Errorf("invalid reference %q: unexpected %q", expr, string(cursor.Input[cursor.Pos:]))
	}
	return path, nil
}

// resolver substitutes {{...}} references in task inputs. Context variables
// come from the run context; output paths read completed sibling results.
type resolver struct {
	context map[string]interface{}
	outputs func(task string) (map[string]interface{}, bool)
}

// ResolveInputs returns a copy of inputs with all references substituted.
// Any reference that does not resolve yields *UnresolvedReferenceError.
func (r *resolver) ResolveInputs(inputs map[string]interface{}) (map[string]interface{}, error) {
	resolved := make(map[string]interface{}, len(inputs))
	for key, value := range inputs {
		actual, err := r.resolveValue(value)
		if err != nil {
			return nil, err
		}
		resolved[key] = actual
	}
	return resolved, nil
}

func (r *resolver) resolveValue(value interface{}) (interface{}, error) {
	switch actual := value.(type) {
	case string:
		return r.resolveString(actual)
	case map[string]interface{}:
		resolved := make(map[string]interface{}, len(actual))
		for k, v := range actual {
			item, err := r.resolveValue(v)
			if err != nil {
				return nil, err
			}
			resolved[k] = item
		}
		return resolved, nil
	case []interface{}:
		resolved := make([]interface{}, len(actual))
		for i, v := range actual {
			item, err := r.resolveValue(v)
			if err != nil {
				return nil, err
			}
			resolved[i] = item
		}
		return resolved, nil
	default:
		return value, nil
	}
}

// resolveString substitutes references inside text. When the whole string is
// a single reference the resolved value keeps its original type; otherwise
// values are rendered into the surrounding text.
func (r *resolver) resolveString(text string) (interface{}, error) {
	if !strings.Contains(text, refOpen) {
		return text, nil
	}
	if strings.HasPrefix(text, refOpen) && strings.HasSuffix(text, refClose) {
		inner := text[len(refOpen) : len(text)-len(refClose)]
		if !strings.Contains(inner, refOpen) && !strings.Contains(inner, refClose) {
			return r.lookup(inner)
		}
	}
	var builder strings.Builder
	rest := text
	for {
		open := strings.Index(rest, refOpen)
		if open == -1 {
			builder.WriteString(rest)
			break
		}
		closing := strings.Index(rest[open:], refClose)
		if closing == -1 {
			builder.WriteString(rest)
			break
		}
		value, err := r.lookup(rest[open+len(refOpen) : open+closing])
		if err != nil {
			return nil, err
		}
		builder.WriteString(rest[:open])
		builder.WriteString(fmt.Sprintf("%v", value))
		rest = rest[open+closing+len(refClose):]
	}
	return builder.String(), nil
}

func (r *resolver) lookup(expr string) (interface{}, error) {
	path, err := parseReference(expr)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(expr)
	if len(path) == 1 {
		value, ok := r.context[path[0]]
		if !ok {
			return nil, &UnresolvedReferenceError{Reference: trimmed}
		}
		return value, nil
	}
	if len(path) < 3 || path[1] != "output" {
		return nil, &UnresolvedReferenceError{Reference: trimmed}
	}
	output, ok := r.outputs(path[0])
	if !ok {
		return nil, &UnresolvedReferenceError{Reference: trimmed}
	}
	var value interface{} = output
	for _, field := range path[2:] {
		holder, ok := value.(map[string]interface{})
		if !ok {
			return nil, &UnresolvedReferenceError{Reference: trimmed}
		}
		value, ok = holder[field]
		if !ok {
			return nil, &UnresolvedReferenceError{Reference: trimmed}
		}
	}
	return value, nil
}
