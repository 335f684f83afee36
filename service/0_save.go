package service

import (
	"net/http"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/inceptionview/logger"
)

const (
	examplesHost    = "example.com"
	examplesDate    = "Mon, 15 Aug 2022 02:08:13 GMT"
	examplesPathEnv = "API_EXAMPLES_PATH"
)

// Save writes a markdown page with a curl command and the raw HTTP exchange
// of an acceptance step. Nothing is written unless API_EXAMPLES_PATH is set.
func Save(response *apitest.Response, title, description string) {

	dir := os.Getenv(examplesPathEnv)
	if dir == "" {
		return
	}

	request := response.Request
	target := request.URL.Path
	if request.URL.RawQuery != "" {
		target += "?" + request.URL.RawQuery
	}
	requestBody := formatJSON(response.BodyRequestString())

	md := &strings.Builder{}
	md.WriteString("# " + title + "\n")
	md.WriteString(cropTabs(description) + "\n")

	md.WriteString("Curl example:\n\n```sh\ncurl ")
	if request.Method != http.MethodGet {
		md.WriteString("-X " + request.Method + " ")
	}
	md.WriteString(`"https://` + examplesHost + target + `"`)
	eachHeader(request.Header, func(k, v string) {
		md.WriteString(" \\\n-H \"" + k + ": " + v + "\"")
	})
	if requestBody != "" {
		md.WriteString(" \\\n-d '" + requestBody + "'")
	}
	md.WriteString("\n```\n\n\n")

	md.WriteString("HTTP request/response example:\n\n```http\n")
	md.WriteString(request.Method + " " + target + " " + request.Proto + "\n")
	md.WriteString("Host: " + examplesHost + "\n")
	eachHeader(request.Header, func(k, v string) {
		md.WriteString(k + ": " + v + "\n")
	})
	md.WriteString("\n" + requestBody + "\n\n")

	md.WriteString(response.Proto + " " + response.Status + "\n")
	eachHeader(response.Header, func(k, v string) {
		if k == "Date" {
			v = examplesDate // stable output
		}
		md.WriteString(k + ": " + v + "\n")
	})
	md.WriteString("\n" + formatJSON(response.BodyString()) + "\n```\n\n\n")

	filename := strings.ReplaceAll(strings.ToLower(title), " ", "_") + ".md"
	p := path.Join(dir, path.Clean(filename))

	l := logger.WithComponent("examples")
	err := os.WriteFile(p, []byte(md.String()), 0666)
	if err != nil {
		l.Error("save example", "file", p, "error", err)
		return
	}
	l.Debug("example saved", "file", p)
}

func eachHeader(h http.Header, f func(k, v string)) {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range h[k] {
			f(k, v)
		}
	}
}

// formatJSON indents a JSON body. JSON lines are indented one by one.
func formatJSON(body string) string {

	body = strings.TrimSpace(body)
	if body == "" {
		return body
	}

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		v := jsontext.Value(line)
		err := v.Indent(jsontext.WithIndent("    "))
		if nil != err {
			return body
		}
		lines[i] = string(v)
	}

	return strings.Join(lines, "\n")
}

// cropTabs removes the indentation shared by the inner lines of a raw string
// literal and turns ´´´ fences into backticks.
func cropTabs(d string) string {

	lines := strings.Split(d, "\n")

	inner := lines
	if len(lines) > 2 {
		inner = lines[1 : len(lines)-1]
	}

	prefix, found := "", false
	for _, line := range inner {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tabs := line[:len(line)-len(strings.TrimLeft(line, "\t"))]
		if !found || len(tabs) < len(prefix) {
			prefix, found = tabs, true
		}
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}

	return strings.ReplaceAll(strings.Join(lines, "\n"), "\n´´´", "\n```")
}
