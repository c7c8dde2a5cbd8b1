package httpdconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dmitrymomot/httpdconf/augtree"
)

// variableRef matches ${NAME} interpolations inside directive arguments.
var variableRef = regexp.MustCompile(`\$\{[^ }]*\}`)

// FindDirectives returns the tree addresses of every active directive called
// name, case-insensitively, reachable from start. Include and IncludeOptional
// directives are followed: their targets are parsed on demand and searched
// too, so the result covers the whole configuration closure. A non-empty
// value restricts matches to directives carrying that exact argument; the
// returned addresses then point at the matching argument nodes. An empty
// start searches from the main configuration file.
func (p *Parser) FindDirectives(name, value, start string) ([]string, error) {
	if start == "" {
		start = augtree.FilePath(p.entry)
	}
	expr := fmt.Sprintf("%s//*[self::directive=~regexp('%s', 'i')]", start, namePattern(name))
	matches, err := p.aug.Match(expr)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	var found []string
	for _, m := range matches {
		active, err := p.directiveActive(m)
		if err != nil {
			return nil, err
		}
		if !active {
			continue
		}
		dirName, ok, err := p.aug.Get(m)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		if !ok {
			continue
		}
		if strings.EqualFold(dirName, "include") || strings.EqualFold(dirName, "includeoptional") {
			target, ok, err := p.GetArgument(m + "/arg")
			if err != nil {
				return nil, err
			}
			if ok {
				sub, err := p.includePath(target)
				if err != nil {
					return nil, err
				}
				nested, err := p.FindDirectives(name, value, sub)
				if err != nil {
					return nil, err
				}
				found = append(found, nested...)
			}
		}
		if strings.EqualFold(dirName, name) {
			argExpr := m + "/arg"
			if value != "" {
				argExpr = fmt.Sprintf("%s/*[self::arg=%s]", m, quoteExpr(value))
			}
			args, err := p.aug.Match(argExpr)
			if err != nil {
				return nil, errors.Join(ErrInvalidConfig, err)
			}
			found = append(found, args...)
		}
	}
	return found, nil
}

// namePattern builds the case-insensitive alternation matched against
// directive names: the requested name plus the include forms that must be
// followed to complete the search.
func namePattern(name string) string {
	return fmt.Sprintf("(%s)|(include)|(includeoptional)", regexp.QuoteMeta(strings.ToLower(name)))
}

// quoteExpr wraps value for use inside a path expression, picking whichever
// quote character the value does not contain.
func quoteExpr(value string) string {
	if strings.Contains(value, "'") {
		return `"` + value + `"`
	}
	return "'" + value + "'"
}

// directiveActive reports whether every IfModule and IfDefine wrapper on the
// way to addr is satisfied by the known modules and variables. A wrapper
// without an argument gates its content off.
func (p *Parser) directiveActive(addr string) (bool, error) {
	segments := strings.Split(addr, "/")
	prefix := ""
	for _, seg := range segments[1:] {
		prefix += "/" + seg

		var known map[string]string
		switch strings.ToLower(trimIndex(seg)) {
		case "ifmodule":
			known = p.modules
		case "ifdefine":
			known = p.variables
		default:
			continue
		}

		gate, ok, err := p.aug.Get(prefix + "/arg")
		if err != nil {
			return false, errors.Join(ErrInvalidConfig, err)
		}
		if !ok {
			return false, nil
		}
		want, negated := strings.CutPrefix(gate, "!")
		_, present := known[want]
		if present == negated {
			return false, nil
		}
	}
	return true, nil
}

// trimIndex strips the [n] suffix from a path segment.
func trimIndex(seg string) string {
	if i := strings.IndexByte(seg, '['); i >= 0 {
		return seg[:i]
	}
	return seg
}

// GetArgument reads the argument node at addr, strips surrounding quotes, and
// interpolates ${VAR} references from the known runtime variables. The second
// return is false when the node is absent or empty. An unknown variable is an
// error rather than a silent passthrough.
func (p *Parser) GetArgument(addr string) (string, bool, error) {
	raw, ok, err := p.aug.Get(addr)
	if err != nil {
		return "", false, errors.Join(ErrInvalidConfig, err)
	}
	if !ok || raw == "" {
		return "", false, nil
	}
	value := strings.Trim(raw, `"'`)
	for _, tok := range variableRef.FindAllString(value, -1) {
		name := tok[2 : len(tok)-1]
		repl, ok := p.variables[name]
		if !ok {
			return "", false, fmt.Errorf("%w: unknown runtime variable %q", ErrInvalidConfig, name)
		}
		value = strings.ReplaceAll(value, tok, repl)
	}
	return value, true, nil
}

// includePath resolves an Include target to a searchable tree address,
// parsing the referenced files on demand. Relative targets are anchored at
// the server root, and a directory target means every file in it. Glob
// segments are rewritten so the engine can match them against loaded labels.
func (p *Parser) includePath(arg string) (string, error) {
	if filepath.IsAbs(arg) {
		arg = filepath.Clean(arg)
	} else {
		arg = filepath.Join(p.root, arg)
	}

	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		if err := p.ParseFile(filepath.Join(arg, "*")); err != nil {
			return "", err
		}
	} else if err := p.ParseFile(arg); err != nil {
		return "", err
	}

	segs := strings.Split(arg, "/")
	for i, seg := range segs {
		if strings.ContainsAny(seg, `*?[]\`) {
			segs[i] = fmt.Sprintf("*[label()=~regexp('%s')]", globToRegexp(seg))
		}
	}
	return augtree.FilePath(strings.Join(segs, "/")), nil
}

// globToRegexp translates a shell glob into the regular expression dialect
// the engine evaluates in label() predicates.
func globToRegexp(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}
