package eventhub

import (
	"strings"
)

// NamespaceFromConnectionString returns the host of the Endpoint entry of
// an event hub connection string, e.g. "ns.servicebus.windows.net", or ""
// when there is none.
func NamespaceFromConnectionString(conn string) string {
	for _, part := range strings.Split(conn, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "Endpoint") {
			continue
		}
		value = strings.TrimSpace(value)
		if i := strings.Index(value, "://"); i >= 0 {
			value = value[i+3:]
		}
		return strings.TrimSuffix(value, "/")
	}
	return ""
}
