package sso

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// confTemplate produces the JSON document the gateway consumes. A permission
// whose allowed set contains "visitors" marks a public app the gateway lets
// through unauthenticated.
const confTemplate = `{
  "generated": {{ now | date "2006-01-02T15:04:05Z07:00" | quote }},
  "permissions": {
{{- range $i, $p := . }}
    {{- if $i }},{{ end }}
    {{ printf "%s.main" $p.Instance | quote }}: {
      "uris": [{{ if $p.URL }}{{ $p.URL | quote }}{{ end }}],
      "users": [{{ range $j, $u := $p.Allowed }}{{ if $j }}, {{ end }}{{ $u | quote }}{{ end }}],
      "public": {{ has "visitors" $p.Allowed }}
    }
{{- end }}
  }
}
`

var confTmpl = template.Must(
	template.New("gateway-conf").Funcs(sprig.TxtFuncMap()).Parse(confTemplate))

// renderConf renders the gateway conf for the given permissions, which must
// already be sorted for a stable output.
func renderConf(perms []Permission) ([]byte, error) {
	var buf bytes.Buffer
	if err := confTmpl.Execute(&buf, perms); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
