package ctl

import (
	"fmt"
	"regexp"
	"strings"
)

// dumpFlagDefine is reported back as a regular define by the server because
// the query itself sets it; it never belongs in the variable table.
const dumpFlagDefine = "DUMP_RUN_CFG"

var (
	defineLine  = regexp.MustCompile(`Define: ([^ \n]*)`)
	moduleLine  = regexp.MustCompile(`(.*)_module`)
	includeLine = regexp.MustCompile(`\(.*\) (.*)`)
)

// ParseDefines extracts the runtime variable table from a DUMP_RUN_CFG
// report. A define without a value maps to the empty string. A value with
// more than one equals sign cannot be split unambiguously, so it fails the
// whole report rather than guessing.
func ParseDefines(report string) (map[string]string, error) {
	variables := make(map[string]string)
	for _, m := range defineLine.FindAllStringSubmatch(report, -1) {
		token := m[1]
		if token == dumpFlagDefine {
			continue
		}
		if strings.Count(token, "=") > 1 {
			return nil, fmt.Errorf("%w: unexpected number of equal signs in %q", ErrBadReport, token)
		}
		name, value, _ := strings.Cut(token, "=")
		variables[name] = value
	}
	return variables, nil
}

// ParseModules extracts module names from a DUMP_MODULES report, without
// the "_module" suffix the server prints.
func ParseModules(report string) []string {
	var names []string
	for _, m := range moduleLine.FindAllStringSubmatch(report, -1) {
		names = append(names, strings.TrimSpace(m[1]))
	}
	return names
}

// ParseIncludes extracts configuration file paths from a DUMP_INCLUDES
// report, in the server's resolution order.
func ParseIncludes(report string) []string {
	var files []string
	for _, m := range includeLine.FindAllStringSubmatch(report, -1) {
		files = append(files, m[1])
	}
	return files
}
