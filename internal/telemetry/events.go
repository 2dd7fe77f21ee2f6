package telemetry

// Event names sent by the CLI and servers. Pipeline events are named in the pipeline
// package.
const (
	EventCommandExecuted = "command_executed"
	EventServerStarted   = "server_started"
)

// maxPropertyLength bounds string property values. Anything longer is likely user
// content, which is never sent.
const maxPropertyLength = 64

// blockedProperties are never sent whatever their value.
var blockedProperties = map[string]bool{
	"prompt":          true,
	"enhanced_prompt": true,
	"file":            true,
	"path":            true,
	"project_id":      true,
}

// sanitize keeps numbers, booleans, short strings and slices of short strings.
func sanitize(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if blockedProperties[k] {
			continue
		}
		switch val := v.(type) {
		case string:
			if len(val) <= maxPropertyLength {
				out[k] = val
			}
		case []string:
			kept := make([]string, 0, len(val))
			for _, s := range val {
				if len(s) <= maxPropertyLength {
					kept = append(kept, s)
				}
			}
			out[k] = kept
		case bool, int, int32, int64, float32, float64, uint, uint32, uint64:
			out[k] = val
		}
	}
	return out
}
